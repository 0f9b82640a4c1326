package postgrest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/pkg/testsupport"
)

func newTestClient(doer *testsupport.FakeDoer) *Client {
	return New(Config{BaseURL: "http://db.local/rest/v1", APIKey: "service-key", Doer: doer})
}

func TestBuilderRequestShape(t *testing.T) {
	t.Run("select filters and order become query parameters", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		client := newTestClient(doer)

		_, err := client.From("members").
			Select("id,first_name", CountExact).
			Eq("status", "active").
			Order("last_name", true).
			Execute(context.Background())
		require.NoError(t, err)

		call := doer.LastCall()
		assert.Equal(t, http.MethodGet, call.Method)
		assert.Equal(t, "/rest/v1/members", call.Path)
		assert.Contains(t, call.Query, "select=id%2Cfirst_name")
		assert.Contains(t, call.Query, "status=eq.active")
		assert.Contains(t, call.Query, "order=last_name.asc")
		assert.Equal(t, "count=exact", call.Header.Get("Prefer"))
	})

	t.Run("authorization uses the api key twice", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		client := newTestClient(doer)

		_, err := client.From("members").Execute(context.Background())
		require.NoError(t, err)

		call := doer.LastCall()
		assert.Equal(t, "service-key", call.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", call.Header.Get("Authorization"))
	})

	t.Run("range sets the pagination headers", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		client := newTestClient(doer)

		_, err := client.From("members").Range(25, 49).Execute(context.Background())
		require.NoError(t, err)

		call := doer.LastCall()
		assert.Equal(t, "25-49", call.Header.Get("Range"))
		assert.Equal(t, "items", call.Header.Get("Range-Unit"))
	})

	t.Run("single requests the object media type", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		doer.RespondJSON(http.StatusOK, `{"id":"r1"}`, nil)
		client := newTestClient(doer)

		_, err := client.From("members").Single().Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "application/vnd.pgrst.object+json", doer.LastCall().Header.Get("Accept"))
	})

	t.Run("insert posts a json body and asks for the representation", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		client := newTestClient(doer)

		_, err := client.From("members").
			Insert([]map[string]any{{"first_name": "Ana"}}).
			Execute(context.Background())
		require.NoError(t, err)

		call := doer.LastCall()
		assert.Equal(t, http.MethodPost, call.Method)
		assert.JSONEq(t, `[{"first_name":"Ana"}]`, call.Body)
		assert.Contains(t, call.Header.Get("Prefer"), "return=representation")
	})

	t.Run("head requests carry no body", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		doer.RespondJSON(http.StatusOK, "", map[string]string{"Content-Range": "0-0/7"})
		client := newTestClient(doer)

		count, err := client.From("members").Select("id", CountExact).Head().ExecuteInto(context.Background(), nil)
		require.NoError(t, err)
		require.NotNil(t, count)
		assert.Equal(t, int64(7), *count)
		assert.Equal(t, http.MethodHead, doer.LastCall().Method)
	})
}

func TestExecuteIntoDecodesAndCounts(t *testing.T) {
	doer := testsupport.NewFakeDoer()
	doer.RespondJSON(http.StatusOK, `[{"id":"a"},{"id":"b"}]`, map[string]string{"Content-Range": "0-1/42"})
	client := newTestClient(doer)

	var rows []struct {
		ID string `json:"id"`
	}
	count, err := client.From("members").Select("*", CountExact).ExecuteInto(context.Background(), &rows)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	require.NotNil(t, count)
	assert.Equal(t, int64(42), *count)
}

func TestParseCount(t *testing.T) {
	n := parseCount("0-24/3573")
	require.NotNil(t, n)
	assert.Equal(t, int64(3573), *n)

	assert.Nil(t, parseCount("0-24/*"))
	assert.Nil(t, parseCount(""))
	assert.Nil(t, parseCount("junk"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", formatValue(nil))
	assert.Equal(t, "42", formatValue(42))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "active", formatValue("active"))
}

func TestBackendErrorTranslation(t *testing.T) {
	t.Run("error body maps to the fixed user message", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		doer.RespondJSON(http.StatusConflict, `{"code":"23505","message":"duplicate key value","details":"Key (email) already exists."}`, nil)
		client := newTestClient(doer)

		_, err := client.From("members").Execute(context.Background())
		require.Error(t, err)

		var backend *apperr.BackendError
		require.ErrorAs(t, err, &backend)
		assert.Equal(t, "23505", backend.Code)
		assert.Equal(t, "This record already exists.", backend.UserMessage)
		assert.Equal(t, "Key (email) already exists.", backend.Details)
	})

	t.Run("unknown code falls back to the generic message", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		doer.RespondJSON(http.StatusInternalServerError, `{"code":"XX000","message":"boom"}`, nil)
		client := newTestClient(doer)

		_, err := client.From("members").Execute(context.Background())
		require.Error(t, err)
		assert.Equal(t, "An unexpected database error occurred.", apperr.UserMessage(err))
	})

	t.Run("transport failure surfaces as a network error", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		doer.Handler = func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		}
		client := newTestClient(doer)

		_, err := client.From("members").Execute(context.Background())
		require.Error(t, err)

		var network *apperr.NetworkError
		assert.ErrorAs(t, err, &network)
	})

	t.Run("single miss is recognizable as not found", func(t *testing.T) {
		doer := testsupport.NewFakeDoer()
		doer.RespondJSON(http.StatusNotAcceptable, `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`, nil)
		client := newTestClient(doer)

		_, err := client.From("members").Single().Execute(context.Background())
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})
}

func TestRpc(t *testing.T) {
	doer := testsupport.NewFakeDoer()
	doer.RespondJSON(http.StatusOK, `[{"id":"t1","name":"Grace Fellowship"}]`, nil)
	client := newTestClient(doer)

	var rows []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	err := client.Rpc(context.Background(), "get_current_tenant", nil, &rows)
	require.NoError(t, err)

	call := doer.LastCall()
	assert.Equal(t, "/rest/v1/rpc/get_current_tenant", call.Path)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.JSONEq(t, `{}`, call.Body)
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0].ID)
}
