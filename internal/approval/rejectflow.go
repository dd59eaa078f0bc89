package approval

import (
	"sync"
	"time"

	"groupgate/internal/domain"
)

// RejectFlowRegistry holds the in-progress "ask for a reason" exchanges,
// keyed by the id of the coordinator's question message. Expiry is enforced
// lazily by the coordinator at lookup time and by the cleanup sweep.
type RejectFlowRegistry struct {
	mu    sync.Mutex
	flows map[int64]*domain.RejectFlow
}

func NewRejectFlowRegistry() *RejectFlowRegistry {
	return &RejectFlowRegistry{flows: make(map[int64]*domain.RejectFlow)}
}

// Put stores a flow under its question message id.
func (r *RejectFlowRegistry) Put(flow *domain.RejectFlow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[flow.QuestionMessageID] = flow
}

// Get returns a copy of the flow for the given question message id.
func (r *RejectFlowRegistry) Get(questionID int64) (domain.RejectFlow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[questionID]
	if !ok {
		return domain.RejectFlow{}, false
	}
	return *flow, true
}

// Remove deletes a flow and reports whether it was still present. Two
// replies racing on the same question resolve here: only one caller wins.
func (r *RejectFlowRegistry) Remove(questionID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flows[questionID]; !ok {
		return false
	}
	delete(r.flows, questionID)
	return true
}

// RemoveExpired evicts every flow whose deadline has passed and returns how
// many were removed.
func (r *RejectFlowRegistry) RemoveExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, flow := range r.flows {
		if flow.Expired(now) {
			delete(r.flows, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked flows.
func (r *RejectFlowRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
