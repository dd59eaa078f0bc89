package approval

import (
	"context"
	"sync"
	"time"

	"groupgate/internal/logger"
	"groupgate/internal/repository"
)

// PermissionGate resolves whether an acting identity has operator rights:
// the configured owner always does, anyone else needs a binding record with
// the admin flag set. Missing records and lookup failures resolve to false.
//
// A TTL cache over the admin set fronts the repository; correctness never
// depends on its freshness, so a demoted admin can act at most once more
// before the cache expires.
type PermissionGate struct {
	ownerID  string
	bindings repository.BindingRepository
	cacheTTL time.Duration

	mu           sync.Mutex
	cacheExpires time.Time
	cachedAdmins map[string]struct{}
}

func NewPermissionGate(ownerID string, bindings repository.BindingRepository, cacheTTL time.Duration) *PermissionGate {
	return &PermissionGate{
		ownerID:  ownerID,
		bindings: bindings,
		cacheTTL: cacheTTL,
	}
}

// IsOperator reports whether userID may decide on pending requests.
func (g *PermissionGate) IsOperator(ctx context.Context, userID string) bool {
	if userID == g.ownerID {
		return true
	}

	if admins, ok := g.cachedAdminSet(); ok {
		_, isAdmin := admins[userID]
		return isAdmin
	}

	admins, err := g.bindings.ListAdmins(ctx)
	if err != nil {
		logger.Warn("Admin list refresh failed, falling back to direct lookup", "error", err)
		b, err := g.bindings.GetByUserID(ctx, userID)
		if err != nil || b == nil {
			return false
		}
		return b.Admin
	}

	set := make(map[string]struct{}, len(admins))
	for _, b := range admins {
		set[b.UserID] = struct{}{}
	}
	g.storeAdminSet(set)

	_, isAdmin := set[userID]
	return isAdmin
}

func (g *PermissionGate) cachedAdminSet() (map[string]struct{}, bool) {
	if g.cacheTTL <= 0 {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cachedAdmins == nil || time.Now().After(g.cacheExpires) {
		return nil, false
	}
	return g.cachedAdmins, true
}

func (g *PermissionGate) storeAdminSet(set map[string]struct{}) {
	if g.cacheTTL <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cachedAdmins = set
	g.cacheExpires = time.Now().Add(g.cacheTTL)
}
