package repository_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/pkg/testsupport"
	"github.com/parishdesk/parishdesk/postgrest"
	"github.com/parishdesk/parishdesk/repository"
	"github.com/parishdesk/parishdesk/tenant"
)

type note struct {
	entity.Entity
	Title string `json:"title,omitempty"`
}

func newRepo(t *testing.T, hooks repository.Hooks[note]) (*repository.Base[note], *testsupport.FakeDoer) {
	t.Helper()
	doer := testsupport.NewFakeDoer()
	client := postgrest.New(postgrest.Config{BaseURL: "http://db.local", Doer: doer})
	resolver := tenant.ResolverFunc(func(context.Context) (*tenant.Tenant, error) {
		return &tenant.Tenant{ID: "tenant-1"}, nil
	})
	tenants := tenant.NewService(resolver, time.Minute, nil)
	a := adapter.New(client, tenants, adapter.Config[note]{Table: "notes"}, nil)
	return repository.New(a, hooks), doer
}

func ctx() context.Context {
	return tenant.WithPrincipal(context.Background(), tenant.Principal{UserID: "user-1"})
}

func TestValidationStopsBeforeBackend(t *testing.T) {
	repo, doer := newRepo(t, repository.Hooks[note]{
		BeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
			if title, _ := data["title"].(string); title == "" {
				return nil, apperr.Validation("Title is required")
			}
			return data, nil
		},
	})

	_, err := repo.Create(ctx(), entity.Partial{})
	require.Error(t, err)

	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"Title is required"}, validation.Messages)
	assert.Equal(t, 0, doer.CallCount())
}

func TestBeforeHookRewritesPayload(t *testing.T) {
	repo, doer := newRepo(t, repository.Hooks[note]{
		BeforeUpdate: func(_ context.Context, _ string, data entity.Partial) (entity.Partial, error) {
			data["title"] = "normalized"
			return data, nil
		},
	})
	doer.RespondJSON(http.StatusOK, `{"id":"n1","title":"normalized"}`, nil)

	record, err := repo.Update(ctx(), "n1", entity.Partial{"title": "  Raw  "})
	require.NoError(t, err)
	assert.Equal(t, "normalized", record.Title)
	assert.Contains(t, doer.LastCall().Body, `"normalized"`)
}

func TestAfterHooksRun(t *testing.T) {
	var created []string
	repo, doer := newRepo(t, repository.Hooks[note]{
		AfterCreate: func(_ context.Context, record note) error {
			created = append(created, record.ID)
			return nil
		},
	})
	doer.RespondJSON(http.StatusCreated, `{"id":"n7","title":"hello"}`, nil)

	_, err := repo.Create(ctx(), entity.Partial{"title": "hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"n7"}, created)
}

func TestDeleteGuardVeto(t *testing.T) {
	repo, doer := newRepo(t, repository.Hooks[note]{
		BeforeDelete: func(context.Context, string) error {
			return apperr.Guard("notes", "Cannot delete a pinned note")
		},
	})

	err := repo.Delete(ctx(), "n1")
	require.Error(t, err)
	assert.Equal(t, "Cannot delete a pinned note", apperr.UserMessage(err))
	assert.Equal(t, 0, doer.CallCount())
}

func TestFindAllIsUnpaginated(t *testing.T) {
	repo, doer := newRepo(t, repository.Hooks[note]{})
	doer.RespondJSON(http.StatusOK, `[{"id":"n1"},{"id":"n2"}]`, nil)

	records, err := repo.FindAll(ctx())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Empty(t, doer.LastCall().Header.Get("Range"))
}
