package services

import (
	"context"
	"sync"
)

// Superseder cancels a client's in-flight request when the same client
// starts a newer one, so a stale product fetch never overwrites a newer one.
type Superseder struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflight
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

func NewSuperseder() *Superseder {
	return &Superseder{inflight: make(map[string]inflight)}
}

// Begin derives a context for key and cancels the previous one. done must
// be called when the request finishes.
func (s *Superseder) Begin(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}
	s.seq++
	seq := s.seq
	s.inflight[key] = inflight{seq: seq, cancel: cancel}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.inflight[key]; ok && cur.seq == seq {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
		cancel()
	}
}

// Len is the number of tracked in-flight requests.
func (s *Superseder) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
