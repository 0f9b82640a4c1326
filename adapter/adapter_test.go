package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/pkg/testsupport"
	"github.com/parishdesk/parishdesk/postgrest"
	"github.com/parishdesk/parishdesk/query"
	"github.com/parishdesk/parishdesk/tenant"
)

type contact struct {
	entity.Entity
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func tenantService(id string) *tenant.Service {
	resolver := tenant.ResolverFunc(func(context.Context) (*tenant.Tenant, error) {
		if id == "" {
			return nil, nil
		}
		return &tenant.Tenant{ID: id}, nil
	})
	return tenant.NewService(resolver, time.Minute, nil)
}

func newFixture(t *testing.T, tenantID string, cfg adapter.Config[contact]) (*adapter.Adapter[contact], *testsupport.FakeDoer) {
	t.Helper()
	if cfg.Table == "" {
		cfg.Table = "contacts"
	}
	doer := testsupport.NewFakeDoer()
	client := postgrest.New(postgrest.Config{BaseURL: "http://db.local", Doer: doer})
	a := adapter.New(client, tenantService(tenantID), cfg, nil)
	a.SetClock(func() time.Time { return fixedNow })
	return a, doer
}

func userCtx(userID string) context.Context {
	return tenant.WithPrincipal(context.Background(), tenant.Principal{UserID: userID})
}

func queryValues(t *testing.T, call testsupport.Call) url.Values {
	t.Helper()
	values, err := url.ParseQuery(call.Query)
	require.NoError(t, err)
	return values
}

func TestFetchScoping(t *testing.T) {
	t.Run("every read is pinned to tenant and live rows", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})

		_, err := a.Fetch(userCtx("user-1"), query.Options{})
		require.NoError(t, err)

		values := queryValues(t, doer.LastCall())
		assert.Equal(t, "eq.tenant-1", values.Get("tenant_id"))
		assert.Equal(t, "is.null", values.Get("deleted_at"))
		assert.Equal(t, "*", values.Get("select"))
	})

	t.Run("no tenant fails fast with zero backend calls", func(t *testing.T) {
		a, doer := newFixture(t, "", adapter.Config[contact]{})

		_, err := a.Fetch(userCtx("user-1"), query.Options{})
		require.ErrorIs(t, err, apperr.ErrNoTenant)
		assert.Equal(t, 0, doer.CallCount())
	})

	t.Run("super admin reads across tenants but still skips deleted rows", func(t *testing.T) {
		a, doer := newFixture(t, "", adapter.Config[contact]{})
		ctx := tenant.WithPrincipal(context.Background(), tenant.Principal{UserID: "root", SuperAdmin: true})

		_, err := a.Fetch(ctx, query.Options{})
		require.NoError(t, err)

		values := queryValues(t, doer.LastCall())
		assert.Empty(t, values.Get("tenant_id"))
		assert.Equal(t, "is.null", values.Get("deleted_at"))
	})

	t.Run("disabled read returns empty with nil count and no calls", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})

		result, err := a.Fetch(userCtx("user-1"), query.Options{Enabled: lo.ToPtr(false)})
		require.NoError(t, err)

		assert.Empty(t, result.Data)
		assert.Nil(t, result.Count)
		assert.Equal(t, 0, doer.CallCount())
	})

	t.Run("pagination maps one-based pages to row ranges", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})

		_, err := a.Fetch(userCtx("user-1"), query.Options{
			Pagination: &query.Pagination{Page: 3, PageSize: 25},
		})
		require.NoError(t, err)

		assert.Equal(t, "50-74", doer.LastCall().Header.Get("Range"))
	})

	t.Run("defaults apply when options leave them unset", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{
			DefaultSelect: "id,name",
			DefaultOrder:  &query.Order{Column: "name"},
			DefaultRelationships: []query.Relationship{
				{Table: "accounts", ForeignKey: "contact_id", Select: []string{"id"}},
			},
		})

		_, err := a.Fetch(userCtx("user-1"), query.Options{})
		require.NoError(t, err)

		values := queryValues(t, doer.LastCall())
		assert.Equal(t, "id,name,accounts!contact_id(id)", values.Get("select"))
		assert.Equal(t, "name.asc", values.Get("order"))
	})

	t.Run("caller order overrides the default and can descend", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{
			DefaultOrder: &query.Order{Column: "name"},
		})

		_, err := a.Fetch(userCtx("user-1"), query.Options{
			Order: &query.Order{Column: "created_at", Descending: true},
		})
		require.NoError(t, err)

		assert.Equal(t, "created_at.desc", queryValues(t, doer.LastCall()).Get("order"))
	})

	t.Run("count comes from the response metadata", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})
		doer.RespondJSON(http.StatusOK, `[{"id":"c1","name":"Ana"}]`, map[string]string{"Content-Range": "0-0/12"})

		result, err := a.Fetch(userCtx("user-1"), query.Options{})
		require.NoError(t, err)

		require.Len(t, result.Data, 1)
		require.NotNil(t, result.Count)
		assert.Equal(t, int64(12), *result.Count)
	})
}

func TestFetchByID(t *testing.T) {
	t.Run("narrows to one row with the single media type", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})
		doer.RespondJSON(http.StatusOK, `{"id":"c1","name":"Ana"}`, nil)

		record, err := a.FetchByID(userCtx("user-1"), "c1", query.Options{})
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "Ana", record.Name)

		call := doer.LastCall()
		values := queryValues(t, call)
		assert.Equal(t, "eq.c1", values.Get("id"))
		assert.Equal(t, "eq.tenant-1", values.Get("tenant_id"))
		assert.Equal(t, "application/vnd.pgrst.object+json", call.Header.Get("Accept"))
	})

	t.Run("a missing row is nil, not an error", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})
		doer.RespondJSON(http.StatusNotAcceptable, `{"code":"PGRST116","message":"no rows"}`, nil)

		record, err := a.FetchByID(userCtx("user-1"), "missing", query.Options{})
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}

func TestCreateStamping(t *testing.T) {
	a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})
	doer.RespondJSON(http.StatusCreated, `{"id":"c9","name":"Ana"}`, nil)

	record, err := a.Create(userCtx("user-7"), entity.Partial{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "c9", record.ID)

	call := doer.LastCall()
	assert.Equal(t, http.MethodPost, call.Method)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.Body), &rows))
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Ana", row["name"])
	assert.Equal(t, "tenant-1", row["tenant_id"])
	assert.Equal(t, "user-7", row["created_by"])
	assert.Equal(t, "user-7", row["updated_by"])
	assert.Equal(t, row["created_at"], row["updated_at"])
	assert.Equal(t, fixedNow.Format(time.RFC3339), row["created_at"])
}

func TestUpdateProtectsIdentity(t *testing.T) {
	a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})
	doer.RespondJSON(http.StatusOK, `{"id":"c1","name":"Renamed"}`, nil)

	_, err := a.Update(userCtx("user-7"), "c1", entity.Partial{
		"name":      "Renamed",
		"id":        "spoofed",
		"tenant_id": "other-tenant",
	})
	require.NoError(t, err)

	call := doer.LastCall()
	assert.Equal(t, http.MethodPatch, call.Method)

	values := queryValues(t, call)
	assert.Equal(t, "eq.c1", values.Get("id"))
	assert.Equal(t, "eq.tenant-1", values.Get("tenant_id"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.Body), &payload))
	assert.NotContains(t, payload, "id")
	assert.NotContains(t, payload, "tenant_id")
	assert.Equal(t, "Renamed", payload["name"])
	assert.Equal(t, "user-7", payload["updated_by"])
	assert.Equal(t, fixedNow.Format(time.RFC3339), payload["updated_at"])
}

func TestDelete(t *testing.T) {
	t.Run("delete is a soft delete patch", func(t *testing.T) {
		a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})

		require.NoError(t, a.Delete(userCtx("user-7"), "c1"))

		call := doer.LastCall()
		assert.Equal(t, http.MethodPatch, call.Method)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(call.Body), &payload))
		assert.Equal(t, fixedNow.Format(time.RFC3339), payload["deleted_at"])
		assert.Equal(t, "user-7", payload["updated_by"])

		values := queryValues(t, call)
		assert.Equal(t, "eq.c1", values.Get("id"))
		assert.Equal(t, "eq.tenant-1", values.Get("tenant_id"))
	})

	t.Run("a guard veto stops the delete before any call", func(t *testing.T) {
		cfg := adapter.Config[contact]{
			Hooks: adapter.Hooks[contact]{
				OnBeforeDelete: func(context.Context, string) error {
					return apperr.Guard("contacts", "Cannot delete contact with open invoices")
				},
			},
		}
		a, doer := newFixture(t, "tenant-1", cfg)

		err := a.Delete(userCtx("user-7"), "c1")
		require.Error(t, err)
		assert.Equal(t, "Cannot delete contact with open invoices", apperr.UserMessage(err))
		assert.Equal(t, 0, doer.CallCount())
	})
}

func TestHooksRewritePayloads(t *testing.T) {
	cfg := adapter.Config[contact]{
		Hooks: adapter.Hooks[contact]{
			OnBeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
				data["email"] = "defaulted@example.org"
				return data, nil
			},
		},
	}
	a, doer := newFixture(t, "tenant-1", cfg)
	doer.RespondJSON(http.StatusCreated, `{"id":"c2"}`, nil)

	_, err := a.Create(userCtx("user-1"), entity.Partial{"name": "Ana"})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(doer.LastCall().Body), &rows))
	assert.Equal(t, "defaulted@example.org", rows[0]["email"])
}

func TestErrorMessageOverride(t *testing.T) {
	cfg := adapter.Config[contact]{
		ErrorMessages: map[string]string{
			"23505": "A contact with this email already exists.",
		},
	}
	a, doer := newFixture(t, "tenant-1", cfg)
	doer.RespondJSON(http.StatusConflict, `{"code":"23505","message":"duplicate key"}`, nil)

	_, err := a.Create(userCtx("user-1"), entity.Partial{"name": "Ana"})
	require.Error(t, err)
	assert.Equal(t, "A contact with this email already exists.", apperr.UserMessage(err))
}

func TestExists(t *testing.T) {
	a, doer := newFixture(t, "tenant-1", adapter.Config[contact]{})
	doer.RespondJSON(http.StatusOK, "", map[string]string{"Content-Range": "0-0/2"})

	found, err := a.Exists(userCtx("user-1"), query.Filters{
		"email": query.Filter{Operator: query.Eq, Value: "ana@example.org"},
	})
	require.NoError(t, err)
	assert.True(t, found)

	call := doer.LastCall()
	assert.Equal(t, http.MethodHead, call.Method)
	assert.Equal(t, "eq.ana@example.org", queryValues(t, call).Get("email"))
}
