package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/cache"
)

const (
	DefaultSessionTTL    = 2 * time.Hour
	PaymentPreferenceTTL = 30 * 24 * time.Hour
)

// SessionStore keeps one checkout State per user in the cache. The
// payment method is also kept under its own long-lived key so a fresh
// session starts with the customer's last choice.
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{cache: c, ttl: ttl}
}

func sessionKey(userID string) string { return "checkout:session:" + userID }

func preferenceKey(userID string) string { return "checkout:pref:" + userID + ":payment_method" }

// Load returns the user's state, or a fresh one seeded with the stored
// payment preference.
func (s *SessionStore) Load(ctx context.Context, userID string) (*State, error) {
	raw, err := s.cache.Get(ctx, sessionKey(userID))
	switch {
	case err == nil:
		st := NewState()
		if err := json.Unmarshal(raw, st); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		st.UserID = userID
		return st, nil
	case !errors.Is(err, cache.ErrMiss):
		return nil, fmt.Errorf("load checkout session: %w", err)
	}

	st := NewState()
	st.UserID = userID
	pref, err := s.cache.Get(ctx, preferenceKey(userID))
	switch {
	case err == nil:
		if m := PaymentMethod(pref); m.Valid() {
			st.PaymentMethod = m
		}
	case !errors.Is(err, cache.ErrMiss):
		return nil, fmt.Errorf("load payment preference: %w", err)
	}
	return st, nil
}

// Save writes the state with a sliding TTL and refreshes the preference.
func (s *SessionStore) Save(ctx context.Context, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode checkout session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKey(st.UserID), raw, s.ttl); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	if err := s.cache.Set(ctx, preferenceKey(st.UserID), []byte(st.PaymentMethod), PaymentPreferenceTTL); err != nil {
		return fmt.Errorf("save payment preference: %w", err)
	}
	return nil
}

// Delete drops the session but keeps the payment preference.
func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, sessionKey(userID))
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes each user's checkout requests: load, run, save.
type Manager struct {
	store      *SessionStore
	pendingTTL time.Duration

	mu    sync.Mutex
	locks map[string]*userLock
}

// NewManager returns a Manager. Pending payments older than pendingTTL are
// dropped on the next access; zero keeps them until an event arrives.
func NewManager(store *SessionStore, pendingTTL time.Duration) *Manager {
	return &Manager{store: store, pendingTTL: pendingTTL, locks: make(map[string]*userLock)}
}

func (m *Manager) lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.mu.Unlock()
	}
}

// Do runs fn against the user's orchestrator and saves the state whether
// or not fn fails. The saved state is returned.
func (m *Manager) Do(ctx context.Context, userID string, deps Deps, fn func(*Orchestrator) error) (*State, error) {
	unlock := m.lock(userID)
	defer unlock()

	st, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	o := New(st, deps)
	o.ExpireStalePayment(m.pendingTTL)
	fnErr := fn(o)

	if err := m.store.Save(ctx, o.State()); err != nil {
		return o.State(), errors.Join(fnErr, err)
	}
	return o.State(), fnErr
}
