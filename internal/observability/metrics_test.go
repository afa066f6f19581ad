package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveNutrientLookup("hit", time.Millisecond)
	m.IncPhaseTransition("greeting", "eating_routine_assessment")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("POST", "/api/consultations/:id/messages", "200", 120*time.Millisecond)
	m.ObserveNutrientLookup("cache_hit", 0)
	m.ObserveLLMRequest("gpt", "/v1/chat/completions", "200", time.Second, 1000, 500)
	m.IncPhaseTransition("greeting", "eating_routine_assessment")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`sm_api_requests_total{method="POST",route="/api/consultations/:id/messages",status="200"} 1.000000`,
		`sm_nutrient_lookups_total{outcome="cache_hit"} 1.000000`,
		`sm_llm_tokens_total{model="gpt",kind="input"} 1000.000000`,
		`sm_consultation_transitions_total{from="greeting",to="eating_routine_assessment"} 1.000000`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestLabelString(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString=%s", got)
	}
}
