package consultation

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

// SessionStore keeps consultation states between requests. Stored states
// are copies; mutating a value returned by Get never affects the store.
type SessionStore interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Put(ctx context.Context, st State) error
	Delete(ctx context.Context, id string) error
}

const DefaultSessionTTL = 2 * time.Hour

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryStore is a process-local SessionStore with idle expiry.
type MemoryStore struct {
	log *logger.Logger
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore(log *logger.Logger, ttl time.Duration) *MemoryStore {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		log:     log.With("store", "MemorySessionStore"),
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]memoryEntry{},
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expires) {
		return State{}, false, nil
	}
	return e.state.Clone(), true, nil
}

func (m *MemoryStore) Put(_ context.Context, st State) error {
	m.mu.Lock()
	m.entries[st.ConsultationID] = memoryEntry{state: st.Clone(), expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// StartJanitor sweeps every interval until ctx is done.
func (m *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := m.Sweep(); n > 0 {
					m.log.Debug("Expired consultations removed", "count", n)
				}
			}
		}
	}()
}

// KeyedMutex serializes work per key. Entries are dropped once no holder
// or waiter remains.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: map[string]*keyedLock{}}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
