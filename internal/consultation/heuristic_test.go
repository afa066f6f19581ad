package consultation

import "testing"

func userTurns(msgs ...string) []Turn {
	out := make([]Turn, 0, len(msgs)*2)
	for _, m := range msgs {
		out = append(out, Turn{Role: RoleAssistant, Message: "ok"}, Turn{Role: RoleUser, Message: m})
	}
	return out
}

func TestKeywordSignals(t *testing.T) {
	h := DefaultHeuristic()
	sig := h.Evaluate(userTurns("Almoço às 12h", "Adoro frutas", "Vou à academia"))
	if !sig.Routine || !sig.Preference || !sig.Context {
		t.Fatalf("signals=%+v", sig)
	}
	if sig := h.Evaluate(userTurns("oi", "tudo bem")); sig.Routine || sig.Preference || sig.Context {
		t.Fatalf("unexpected signals %+v", sig)
	}
	// assistant turns are ignored
	if sig := h.Evaluate([]Turn{{Role: RoleAssistant, Message: "Qual seu almoço?"}}); sig.Routine {
		t.Fatalf("assistant text should not count")
	}
}

func TestIsGenerateCommand(t *testing.T) {
	h := DefaultHeuristic()
	cases := []struct {
		msg  string
		want bool
	}{
		{"please generate my diet now", true},
		{"GERAR DIETA", true},
		{"pode montar meu plano alimentar?", true},
		{"generate something", false},
		{"please regenerate my diet", true},
		{"pode regerar a dieta?", true},
		{"ela sugere uma dieta nova", false},
		{"minha dieta atual é ruim", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := h.IsGenerateCommand(tc.msg); got != tc.want {
			t.Fatalf("%q: got %v want %v", tc.msg, got, tc.want)
		}
	}
}

func TestNextPhaseNeverRegresses(t *testing.T) {
	all := Signals{Routine: true, Preference: true, Context: true}
	cases := []struct {
		name    string
		current Phase
		sig     Signals
		turns   int
		want    Phase
	}{
		{"greeting_no_user", PhaseGreeting, Signals{}, 0, PhaseGreeting},
		{"greeting_first_reply", PhaseGreeting, Signals{}, 1, PhaseEatingRoutine},
		{"routine_cascades", PhaseGreeting, Signals{Routine: true}, 1, PhaseFoodPreferences},
		{"too_few_turns", PhaseFoodPreferences, all, 3, PhaseFoodPreferences},
		{"preview", PhaseFoodPreferences, all, 4, PhaseDietPreviewGeneration},
		{"generated_stays", PhaseDietGenerated, Signals{}, 1, PhaseDietGenerated},
		{"preview_stays", PhaseDietPreviewGeneration, Signals{}, 9, PhaseDietPreviewGeneration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextPhase(tc.current, tc.sig, tc.turns, 4); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestParseKeywordsRequiresGenerateLists(t *testing.T) {
	if _, err := ParseKeywords([]byte("routine: [almoço]\n")); err == nil {
		t.Fatalf("expected error without generate/diet keywords")
	}
	h, err := ParseKeywords([]byte("generate: [go]\ndiet: [plan]\nmin_user_turns: 2\n"))
	if err != nil {
		t.Fatalf("ParseKeywords: %v", err)
	}
	if h.MinUserTurns() != 2 || !h.IsGenerateCommand("GO plan") {
		t.Fatalf("custom keywords not applied")
	}
}

func TestFillFromMessage(t *testing.T) {
	var u UserData
	if !fillFromMessage(&u, "Tenho 31 anos, peso 82,5 kg e meço 1,78 m") {
		t.Fatalf("expected fields to be filled")
	}
	if u.Age != 31 || u.WeightKg != 82.5 || u.HeightCm != 178 {
		t.Fatalf("got %+v", u)
	}
	u2 := UserData{WeightKg: 60}
	fillFromMessage(&u2, "peso 90 kg")
	if u2.WeightKg != 60 {
		t.Fatalf("known values must not be overwritten")
	}
}
