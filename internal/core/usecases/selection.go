package usecases

import (
	"context"
	"sync"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

// Selection tracks the current point of one interactive session. Each Begin
// starts a new generation and cancels the lookup of the previous one, so a
// late result can never replace a newer selection's address.
type Selection struct {
	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	address domain.Address
	current uint64
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Begin supersedes any in-flight lookup and returns the context and
// generation for the new one.
func (s *Selection) Begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

// Commit stores addr if gen is still the latest generation and reports
// whether the result was kept. A non-nil deliver runs before the lock is
// released, so no newer Begin can slip in between the check and the
// delivery.
func (s *Selection) Commit(gen uint64, addr domain.Address, deliver func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		metrics.AddressSuperseded.Inc()
		return false
	}
	s.address = addr
	s.current = gen
	if deliver != nil {
		deliver()
	}
	return true
}

// Current returns the last committed address and its generation. Zero means
// nothing has been committed yet.
func (s *Selection) Current() (domain.Address, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address, s.current
}

// Generation returns the latest generation handed out by Begin.
func (s *Selection) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Close cancels the in-flight lookup, if any.
func (s *Selection) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
