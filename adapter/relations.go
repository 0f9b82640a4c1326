package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
)

// ReplaceRelation relinks the named relation of one owning record to exactly
// the given related ids. An empty id list is a no-op: callers that want to
// detach everything use ClearRelation.
//
// Many-to-many relations are replaced by deleting the owner's join rows and
// inserting fresh ones. The two steps are separate requests, so a failure
// between them can leave the relation partially relinked; callers retry by
// replaying the same id list.
func (a *Adapter[T]) ReplaceRelation(ctx context.Context, name, ownerID string, relatedIDs []string) error {
	rel, tenantID, err := a.relationScope(ctx, name)
	if err != nil {
		return a.mutationFail(ctx, "replaceRelation", err)
	}
	if len(relatedIDs) == 0 {
		return nil
	}

	if rel.Kind == ManyToMany {
		return a.replaceJoinRows(ctx, rel, tenantID, ownerID, relatedIDs)
	}
	return a.repoint(ctx, rel, tenantID, ownerID, relatedIDs)
}

// linkRelations replaces every named relation in the map. An empty id list
// for a relation leaves it untouched, same as ReplaceRelation.
func (a *Adapter[T]) linkRelations(ctx context.Context, ownerID string, relations map[string][]string) error {
	for name, ids := range relations {
		if err := a.ReplaceRelation(ctx, name, ownerID, ids); err != nil {
			return err
		}
	}
	return nil
}

// ClearRelation detaches every row currently linked to the owning record.
func (a *Adapter[T]) ClearRelation(ctx context.Context, name, ownerID string) error {
	rel, tenantID, err := a.relationScope(ctx, name)
	if err != nil {
		return a.mutationFail(ctx, "clearRelation", err)
	}

	if rel.Kind == ManyToMany {
		_, err = a.client.From(rel.JoinTable).
			Delete().
			Eq(rel.ForeignKey, ownerID).
			Eq("tenant_id", tenantID).
			ExecuteInto(ctx, nil)
		if err != nil {
			return a.mutationFail(ctx, "clearRelation", err)
		}
		return nil
	}

	_, err = a.client.From(rel.Table).
		Update(entity.Partial{rel.ForeignKey: nil}).
		Eq(rel.ForeignKey, ownerID).
		Eq("tenant_id", tenantID).
		ExecuteInto(ctx, nil)
	if err != nil {
		return a.mutationFail(ctx, "clearRelation", err)
	}
	return nil
}

func (a *Adapter[T]) relationScope(ctx context.Context, name string) (Relation, string, error) {
	rel, ok := a.cfg.Relations[name]
	if !ok {
		return Relation{}, "", fmt.Errorf("%s: unknown relation %q", a.cfg.Table, name)
	}
	tenantID := a.tenants.CurrentID(ctx)
	if tenantID == "" {
		return Relation{}, "", apperr.ErrNoTenant
	}
	return rel, tenantID, nil
}

// replaceJoinRows swaps the owner's join rows for a fresh set, stamped with
// the acting tenant so the join table stays scoped like every other table.
func (a *Adapter[T]) replaceJoinRows(ctx context.Context, rel Relation, tenantID, ownerID string, relatedIDs []string) error {
	_, err := a.client.From(rel.JoinTable).
		Delete().
		Eq(rel.ForeignKey, ownerID).
		Eq("tenant_id", tenantID).
		ExecuteInto(ctx, nil)
	if err != nil {
		return a.mutationFail(ctx, "replaceRelation", err)
	}

	now := a.clock().UTC().Format(time.RFC3339)
	rows := lo.Map(relatedIDs, func(id string, _ int) entity.Partial {
		return entity.Partial{
			rel.ForeignKey:     ownerID,
			rel.JoinForeignKey: id,
			"tenant_id":        tenantID,
			"created_at":       now,
		}
	})
	_, err = a.client.From(rel.JoinTable).Insert(rows).ExecuteInto(ctx, nil)
	if err != nil {
		return a.mutationFail(ctx, "replaceRelation", err)
	}
	return nil
}

// repoint aims the foreign key of the given related rows at the owner.
func (a *Adapter[T]) repoint(ctx context.Context, rel Relation, tenantID, ownerID string, relatedIDs []string) error {
	ids := lo.Map(relatedIDs, func(id string, _ int) any { return any(id) })
	_, err := a.client.From(rel.Table).
		Update(entity.Partial{rel.ForeignKey: ownerID}).
		In("id", ids).
		Eq("tenant_id", tenantID).
		ExecuteInto(ctx, nil)
	if err != nil {
		return a.mutationFail(ctx, "replaceRelation", err)
	}
	return nil
}
