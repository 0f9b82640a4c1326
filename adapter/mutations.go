package adapter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/metrics"
	"github.com/parishdesk/parishdesk/tenant"
)

// protectedFields are stripped from every update payload so a caller can
// never reassign a row's identity or move it across tenants.
var protectedFields = []string{"id", "tenant_id"}

// Create inserts one row. The payload is stamped with the acting tenant and
// principal, plus matching created_at/updated_at timestamps, after the
// before-create hook has run.
func (a *Adapter[T]) Create(ctx context.Context, data entity.Partial) (*T, error) {
	tenantID, principal, err := a.mutationScope(ctx)
	if err != nil {
		return nil, a.mutationFail(ctx, "create", err)
	}

	if hook := a.cfg.Hooks.OnBeforeCreate; hook != nil {
		data, err = hook(ctx, data)
		if err != nil {
			return nil, a.mutationFail(ctx, "create", err)
		}
	}

	now := a.clock().UTC().Format(time.RFC3339)
	payload := entity.Partial{}
	for k, v := range data {
		payload[k] = v
	}
	payload["tenant_id"] = tenantID
	payload["created_by"] = principal.UserID
	payload["updated_by"] = principal.UserID
	payload["created_at"] = now
	payload["updated_at"] = now

	var record T
	_, err = a.client.From(a.cfg.Table).
		Insert([]entity.Partial{payload}).
		Select("*", "").
		Single().
		ExecuteInto(ctx, &record)
	if err != nil {
		return nil, a.mutationFail(ctx, "create", err)
	}

	if hook := a.cfg.Hooks.OnAfterCreate; hook != nil {
		if err := hook(ctx, record); err != nil {
			a.logger.Error("after-create hook failed",
				zap.String("id", record.GetID()), zap.Error(err))
		}
	}
	return &record, nil
}

// CreateWithRelations inserts one row, then relinks each named relation to
// the given id lists. The relation steps are separate requests issued after
// the insert; a relation failure surfaces alongside the already-created
// record so the caller can retry the linking.
func (a *Adapter[T]) CreateWithRelations(ctx context.Context, data entity.Partial, relations map[string][]string) (*T, error) {
	record, err := a.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := a.linkRelations(ctx, (*record).GetID(), relations); err != nil {
		return record, err
	}
	return record, nil
}

// Update patches one row, scoped by id and tenant. Protected identity fields
// are stripped from the payload and updated_by/updated_at are restamped.
func (a *Adapter[T]) Update(ctx context.Context, id string, data entity.Partial) (*T, error) {
	tenantID, principal, err := a.mutationScope(ctx)
	if err != nil {
		return nil, a.mutationFail(ctx, "update", err)
	}

	if hook := a.cfg.Hooks.OnBeforeUpdate; hook != nil {
		data, err = hook(ctx, id, data)
		if err != nil {
			return nil, a.mutationFail(ctx, "update", err)
		}
	}

	payload := entity.Strip(data, protectedFields...)
	payload["updated_by"] = principal.UserID
	payload["updated_at"] = a.clock().UTC().Format(time.RFC3339)

	var record T
	_, err = a.client.From(a.cfg.Table).
		Update(payload).
		Eq("id", id).
		Eq("tenant_id", tenantID).
		Select("*", "").
		Single().
		ExecuteInto(ctx, &record)
	if err != nil {
		return nil, a.mutationFail(ctx, "update", err)
	}

	if hook := a.cfg.Hooks.OnAfterUpdate; hook != nil {
		if err := hook(ctx, record); err != nil {
			a.logger.Error("after-update hook failed",
				zap.String("id", id), zap.Error(err))
		}
	}
	return &record, nil
}

// UpdateWithRelations patches one row, then relinks each named relation.
func (a *Adapter[T]) UpdateWithRelations(ctx context.Context, id string, data entity.Partial, relations map[string][]string) (*T, error) {
	record, err := a.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	if err := a.linkRelations(ctx, id, relations); err != nil {
		return record, err
	}
	return record, nil
}

// Delete soft-deletes one row by stamping deleted_at; the row stays in the
// table and drops out of every read. The before-delete hook runs first and
// can veto the delete (referential guards).
func (a *Adapter[T]) Delete(ctx context.Context, id string) error {
	tenantID, principal, err := a.mutationScope(ctx)
	if err != nil {
		return a.mutationFail(ctx, "delete", err)
	}

	if hook := a.cfg.Hooks.OnBeforeDelete; hook != nil {
		if err := hook(ctx, id); err != nil {
			return a.mutationFail(ctx, "delete", err)
		}
	}

	payload := entity.Partial{
		"deleted_at": a.clock().UTC().Format(time.RFC3339),
		"updated_by": principal.UserID,
	}
	_, err = a.client.From(a.cfg.Table).
		Update(payload).
		Eq("id", id).
		Eq("tenant_id", tenantID).
		ExecuteInto(ctx, nil)
	if err != nil {
		return a.mutationFail(ctx, "delete", err)
	}

	if hook := a.cfg.Hooks.OnAfterDelete; hook != nil {
		if err := hook(ctx, id); err != nil {
			a.logger.Error("after-delete hook failed",
				zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}

// mutationScope resolves the tenant and principal every mutation is stamped
// with. Mutations always require a tenant; super admin does not waive the
// requirement for writes.
func (a *Adapter[T]) mutationScope(ctx context.Context) (string, tenant.Principal, error) {
	principal, _ := tenant.PrincipalFromContext(ctx)
	tenantID := a.tenants.CurrentID(ctx)
	if tenantID == "" {
		return "", principal, apperr.ErrNoTenant
	}
	return tenantID, principal, nil
}

func (a *Adapter[T]) mutationFail(ctx context.Context, op string, err error) error {
	metrics.MutationFailures.WithLabelValues(a.cfg.Table, op).Inc()
	return a.fail(op, err)
}
