package consultation

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreCopiesAndExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	st := State{ConsultationID: "a", CurrentPhase: PhaseGreeting, ConversationHistory: []Turn{{Role: RoleAssistant, Message: "oi"}}}
	if err := s.Put(ctx, st); err != nil {
		t.Fatalf("Put: %v", err)
	}
	st.ConversationHistory[0].Message = "changed"

	got, ok, err := s.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.ConversationHistory[0].Message != "oi" {
		t.Fatalf("store should keep its own copy")
	}
	got.ConversationHistory = append(got.ConversationHistory, Turn{Role: RoleUser})
	again, _, _ := s.Get(ctx, "a")
	if len(again.ConversationHistory) != 1 {
		t.Fatalf("mutating a read affected the store")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("entry should have expired")
	}
	if n := s.Sweep(); n != 1 || s.Len() != 0 {
		t.Fatalf("sweep removed %d, len=%d", n, s.Len())
	}
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	k := NewKeyedMutex()
	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			defer unlock()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxActive != 1 {
		t.Fatalf("max concurrent holders=%d", maxActive)
	}
	if k.size() != 0 {
		t.Fatalf("lock entries leaked: %d", k.size())
	}
}
