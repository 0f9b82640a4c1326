// Package adapter implements the tenant-scoped entity adapter: the only
// component that addresses backend tables directly. Reads go through the
// secure query builder, which pins every query to the acting tenant and
// excludes soft-deleted rows; mutations stamp audit columns and are scoped
// by id and tenant so a caller can never touch another tenant's row, even by
// guessing an id.
package adapter

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/postgrest"
	"github.com/parishdesk/parishdesk/query"
	"github.com/parishdesk/parishdesk/tenant"
)

// Hooks are the adapter-level extension points. Each hook defaults to a
// no-op; entity configurations plug infrastructure rules (defaults, audit
// logging, referential delete guards) into the fixed pipeline without
// modifying it.
type Hooks[T entity.Model] struct {
	OnBeforeCreate func(ctx context.Context, data entity.Partial) (entity.Partial, error)
	OnAfterCreate  func(ctx context.Context, record T) error
	OnBeforeUpdate func(ctx context.Context, id string, data entity.Partial) (entity.Partial, error)
	OnAfterUpdate  func(ctx context.Context, record T) error
	OnBeforeDelete func(ctx context.Context, id string) error
	OnAfterDelete  func(ctx context.Context, id string) error
}

// RelationKind classifies a named foreign relation.
type RelationKind string

const (
	OneToOne   RelationKind = "one-to-one"
	OneToMany  RelationKind = "one-to-many"
	ManyToMany RelationKind = "many-to-many"
)

// Relation configures how a named relation is linked. For many-to-many
// relations the rows live in JoinTable, keyed by ForeignKey (owner side) and
// JoinForeignKey (target side); otherwise the target rows in Table carry
// ForeignKey pointing at the owner.
type Relation struct {
	Table          string
	ForeignKey     string
	Kind           RelationKind
	JoinTable      string
	JoinForeignKey string
}

// Config describes one entity table to the adapter.
type Config[T entity.Model] struct {
	Table                string
	DefaultSelect        string
	DefaultRelationships []query.Relationship
	DefaultOrder         *query.Order
	Hooks                Hooks[T]
	Relations            map[string]Relation

	// ErrorMessages overrides the user-facing text for specific backend
	// error codes on this entity.
	ErrorMessages map[string]string
}

// Result is the outcome of a list read. Count is the exact total when the
// backend reported one.
type Result[T entity.Model] struct {
	Data  []T
	Count *int64
}

// Adapter executes reads and mutations for one entity table.
type Adapter[T entity.Model] struct {
	cfg     Config[T]
	client  *postgrest.Client
	tenants *tenant.Service
	logger  *zap.Logger
	clock   func() time.Time
}

// New builds an adapter for the configured table.
func New[T entity.Model](client *postgrest.Client, tenants *tenant.Service, cfg Config[T], logger *zap.Logger) *Adapter[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter[T]{
		cfg:     cfg,
		client:  client,
		tenants: tenants,
		logger:  logger.With(zap.String("table", cfg.Table)),
		clock:   time.Now,
	}
}

// Table returns the backend table this adapter addresses.
func (a *Adapter[T]) Table() string { return a.cfg.Table }

// SetClock overrides the timestamp source, for tests.
func (a *Adapter[T]) SetClock(clock func() time.Time) { a.clock = clock }

// buildSecureQuery assembles a read for the adapter's table: resolved tenant
// scope, soft-delete exclusion, projection with relationship sub-selects,
// then caller filters, ordering and pagination. It fails with
// apperr.ErrNoTenant before touching the backend when no tenant is
// resolvable and the caller is not a super admin.
func (a *Adapter[T]) buildSecureQuery(ctx context.Context, opts query.Options) (*postgrest.Builder, error) {
	principal, _ := tenant.PrincipalFromContext(ctx)

	tenantID := ""
	if !principal.SuperAdmin {
		tenantID = a.tenants.CurrentID(ctx)
		if tenantID == "" {
			return nil, apperr.ErrNoTenant
		}
	}

	relationships := opts.Relationships
	if relationships == nil {
		relationships = a.cfg.DefaultRelationships
	}

	selectExpr := opts.Select
	if selectExpr == "" {
		selectExpr = a.cfg.DefaultSelect
	}
	if selectExpr == "" {
		selectExpr = "*"
	}
	if relSelect := query.BuildRelationshipSelect(relationships); relSelect != "" {
		selectExpr = selectExpr + "," + relSelect
	}

	b := a.client.From(a.cfg.Table).Select(selectExpr, postgrest.CountExact)
	if tenantID != "" {
		b = b.Eq("tenant_id", tenantID)
	}
	b = b.Is("deleted_at", nil)

	b = query.Apply(b, opts.Filters)

	order := opts.Order
	if order == nil {
		order = a.cfg.DefaultOrder
	}
	if order != nil {
		b = b.Order(order.Column, !order.Descending)
	}

	if p := opts.Pagination; p != nil {
		start := p.Offset()
		b = b.Range(start, start+p.PageSize-1)
	}

	return b, nil
}

// Fetch runs a tenant-scoped list read. A disabled read returns an empty
// zero-count result without issuing any query.
func (a *Adapter[T]) Fetch(ctx context.Context, opts query.Options) (Result[T], error) {
	if opts.Disabled() {
		return Result[T]{Data: []T{}}, nil
	}

	b, err := a.buildSecureQuery(ctx, opts)
	if err != nil {
		return Result[T]{}, a.fail("fetch", err)
	}

	var rows []T
	count, err := b.ExecuteInto(ctx, &rows)
	if err != nil {
		return Result[T]{}, a.fail("fetch", err)
	}
	if rows == nil {
		rows = []T{}
	}
	return Result[T]{Data: rows, Count: count}, nil
}

// FetchByID narrows a read to one row. A missing row is not an error: the
// result is nil.
func (a *Adapter[T]) FetchByID(ctx context.Context, id string, opts query.Options) (*T, error) {
	b, err := a.buildSecureQuery(ctx, opts.WithoutPagination())
	if err != nil {
		return nil, a.fail("fetchById", err)
	}

	var row T
	if _, err := b.Eq("id", id).Single().ExecuteInto(ctx, &row); err != nil {
		if postgrest.IsNotFound(err) {
			return nil, nil
		}
		return nil, a.fail("fetchById", err)
	}
	return &row, nil
}

// Exists reports whether any live row matches the filters, without
// transferring row data.
func (a *Adapter[T]) Exists(ctx context.Context, filters query.Filters) (bool, error) {
	b, err := a.buildSecureQuery(ctx, query.Options{Filters: filters})
	if err != nil {
		return false, a.fail("exists", err)
	}

	count, err := b.Head().ExecuteInto(ctx, nil)
	if err != nil {
		return false, a.fail("exists", err)
	}
	return count != nil && *count > 0, nil
}

// fail translates and logs an operation failure. Backend errors pick up any
// per-entity message override; everything else is already one of the apperr
// kinds by the time it reaches here.
func (a *Adapter[T]) fail(op string, err error) error {
	var backend *apperr.BackendError
	if errors.As(err, &backend) {
		if msg, ok := a.cfg.ErrorMessages[backend.Code]; ok {
			backend.UserMessage = msg
		}
		a.logger.Error("backend operation failed",
			zap.String("operation", op),
			zap.String("code", backend.Code),
			zap.String("details", backend.Details),
			zap.String("hint", backend.Hint),
			zap.Error(err),
		)
		return err
	}

	a.logger.Error("operation failed", zap.String("operation", op), zap.Error(err))
	return err
}
