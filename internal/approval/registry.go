package approval

import (
	"sync"
	"time"

	"groupgate/internal/domain"
)

// RequestRegistry holds every join request currently under review, keyed by
// the id of its broadcast message. Entries are only removed by the cleanup
// sweep; decision paths leave resolved entries in place so that late
// reactions are recognized and ignored instead of erroring.
type RequestRegistry struct {
	mu       sync.Mutex
	requests map[int64]*domain.PendingRequest
}

func NewRequestRegistry() *RequestRegistry {
	return &RequestRegistry{requests: make(map[int64]*domain.PendingRequest)}
}

// Put stores a request, replacing any record under the same message id.
func (r *RequestRegistry) Put(req *domain.PendingRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.BroadcastMessageID] = req
}

// Get returns a copy of the request under the given message id.
func (r *RequestRegistry) Get(messageID int64) (domain.PendingRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[messageID]
	if !ok {
		return domain.PendingRequest{}, false
	}
	return *req, true
}

// Claim moves a request from pending to processing and returns a copy. It
// fails if the request is absent or any other status, which is what makes a
// second concurrent reaction a no-op.
func (r *RequestRegistry) Claim(messageID int64) (domain.PendingRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[messageID]
	if !ok || req.Status != domain.RequestStatusPending {
		return domain.PendingRequest{}, false
	}
	req.Status = domain.RequestStatusProcessing
	return *req, true
}

// Release rolls a processing request back to pending so it can be claimed
// again after a handler failure.
func (r *RequestRegistry) Release(messageID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[messageID]; ok && req.Status == domain.RequestStatusProcessing {
		req.Status = domain.RequestStatusPending
	}
}

// SetStatus records the final status of a request.
func (r *RequestRegistry) SetStatus(messageID int64, status domain.RequestStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[messageID]
	if !ok {
		return false
	}
	req.Status = status
	return true
}

// RemoveCreatedBefore evicts every request created before the cutoff,
// regardless of status, and returns how many were removed.
func (r *RequestRegistry) RemoveCreatedBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, req := range r.requests {
		if req.CreatedAt.Before(cutoff) {
			delete(r.requests, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked requests.
func (r *RequestRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
