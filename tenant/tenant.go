// Package tenant resolves and caches the acting tenant. Every tenant-scoped
// read and mutation in the data layer goes through Service.CurrentID; when
// no tenant can be resolved the operation fails fast with apperr.ErrNoTenant
// before any backend call is issued.
package tenant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/internal/memo"
)

// DefaultCacheTTL is how long a resolved tenant stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// Tenant is the owning organization for a set of records.
type Tenant struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Subdomain           string     `json:"subdomain"`
	Address             *string    `json:"address"`
	ContactNumber       *string    `json:"contact_number"`
	Email               *string    `json:"email"`
	Website             *string    `json:"website"`
	LogoURL             *string    `json:"logo_url"`
	Status              string     `json:"status"`
	SubscriptionTier    string     `json:"subscription_tier"`
	SubscriptionStatus  string     `json:"subscription_status"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date"`
	BillingCycle        string     `json:"billing_cycle"`
}

// Resolver fetches the tenant for the acting principal from the backend.
type Resolver interface {
	ResolveTenant(ctx context.Context) (*Tenant, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context) (*Tenant, error)

// ResolveTenant implements Resolver.
func (f ResolverFunc) ResolveTenant(ctx context.Context) (*Tenant, error) {
	return f(ctx)
}

// Service memoizes tenant resolution with a TTL and a force-refresh escape
// hatch. One instance is shared process-wide through the composition root.
type Service struct {
	resolver Resolver
	cache    *memo.Cache[*Tenant]
	logger   *zap.Logger
}

// NewService builds a Service. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewService(resolver Resolver, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver: resolver,
		cache:    memo.New[*Tenant](ttl),
		logger:   logger,
	}
}

// Current returns the acting tenant, or nil when none can be resolved.
// Resolution failures are logged and reported as "no tenant" rather than
// surfaced raw.
func (s *Service) Current(ctx context.Context, forceRefresh bool) *Tenant {
	tenant, err := s.cache.Get(ctx, s.cacheKey(ctx), forceRefresh, s.resolver.ResolveTenant)
	if err != nil {
		s.logger.Error("tenant resolution failed", zap.Error(err))
		return nil
	}
	return tenant
}

// CurrentID returns the acting tenant's id, or "" when none is resolvable.
func (s *Service) CurrentID(ctx context.Context) string {
	tenant := s.Current(ctx, false)
	if tenant == nil {
		return ""
	}
	return tenant.ID
}

// IsSubscriptionActive reports whether the acting tenant's subscription is
// active.
func (s *Service) IsSubscriptionActive(ctx context.Context) bool {
	tenant := s.Current(ctx, false)
	return tenant != nil && tenant.SubscriptionStatus == "active"
}

// SubscriptionTier returns the acting tenant's subscription tier, or "".
func (s *Service) SubscriptionTier(ctx context.Context) string {
	tenant := s.Current(ctx, false)
	if tenant == nil {
		return ""
	}
	return tenant.SubscriptionTier
}

// ClearCache drops any memoized tenant, forcing the next resolution to hit
// the backend.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

func (s *Service) cacheKey(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok && p.UserID != "" {
		return p.UserID
	}
	return "current"
}
