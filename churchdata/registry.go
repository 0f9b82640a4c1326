package churchdata

import (
	"context"

	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/cache"
	"github.com/parishdesk/parishdesk/notify"
	"github.com/parishdesk/parishdesk/postgrest"
	"github.com/parishdesk/parishdesk/tenant"
)

// Deps is everything the entity services need from the composition root.
type Deps struct {
	Client   *postgrest.Client
	Tenants  *tenant.Service
	Cache    cache.CacheService
	Notifier notify.Notifier
	Logger   *zap.Logger
}

// Registry holds one wired service per entity type. Entities that need each
// other (member creation provisions a receivable account) are cross-wired
// here rather than importing each other.
type Registry struct {
	Accounts   *AccountService
	Funds      *FundService
	Members    *MemberService
	Roles      *RoleService
	Categories *CategoryService
}

// New wires the full entity registry.
func New(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}

	accounts := newAccountService(deps)
	return &Registry{
		Accounts:   accounts,
		Funds:      newFundService(deps),
		Members:    newMemberService(deps, accounts),
		Roles:      newRoleService(deps),
		Categories: newCategoryService(deps),
	}
}

// hasDependentRows reports whether any live row in table references id
// through column, within the acting tenant. Delete guards use it to refuse
// removing records that are still in use.
func hasDependentRows(ctx context.Context, deps Deps, table, column, id string) (bool, error) {
	tenantID := deps.Tenants.CurrentID(ctx)
	if tenantID == "" {
		return false, apperr.ErrNoTenant
	}

	count, err := deps.Client.From(table).
		Select("id", postgrest.CountExact).
		Eq("tenant_id", tenantID).
		Is("deleted_at", nil).
		Eq(column, id).
		Head().
		ExecuteInto(ctx, nil)
	if err != nil {
		return false, err
	}
	return count != nil && *count > 0, nil
}
