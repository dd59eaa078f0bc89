package approval

import (
	"errors"
	"sync"
)

// ErrWaiterConflict is returned when a join wait is already outstanding for
// an applicant. A second concurrent approval must not silently displace the
// first waiter.
var ErrWaiterConflict = errors.New("join wait already in progress for applicant")

// WaiterRegistry holds one single-shot completion channel per applicant
// currently being admitted. The channel is closed by the first matching
// member-added event; the registration is removed on resolution or
// cancellation, whichever comes first.
type WaiterRegistry struct {
	mu      sync.Mutex
	waiters map[string]chan struct{}
}

func NewWaiterRegistry() *WaiterRegistry {
	return &WaiterRegistry{waiters: make(map[string]chan struct{})}
}

// Register creates a waiter for the applicant and returns its completion
// channel. Fails with ErrWaiterConflict if one is already outstanding.
func (r *WaiterRegistry) Register(applicantID string) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.waiters[applicantID]; ok {
		return nil, ErrWaiterConflict
	}
	ch := make(chan struct{})
	r.waiters[applicantID] = ch
	return ch, nil
}

// Resolve completes the waiter for the applicant, if any, and reports
// whether one was found.
func (r *WaiterRegistry) Resolve(applicantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.waiters[applicantID]
	if !ok {
		return false
	}
	close(ch)
	delete(r.waiters, applicantID)
	return true
}

// Cancel removes the waiter without completing it. Used on the timeout path
// and when admission fails after registration.
func (r *WaiterRegistry) Cancel(applicantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiters, applicantID)
}

// Len returns the number of outstanding waiters.
func (r *WaiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
