package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/metrics"
)

// CountMode selects the count metadata requested alongside a read.
type CountMode string

// CountExact asks the backend for the exact total row count, delivered via
// the Content-Range response header.
const CountExact CountMode = "exact"

// Response is the raw outcome of an executed request. Data holds the
// response body (a JSON array, or a single object for Single requests);
// Count is the exact total when it was requested, nil otherwise.
type Response struct {
	Data  json.RawMessage
	Count *int64
}

// Builder accumulates one request against a single table. All predicate
// methods return the builder for chaining; nothing touches the network until
// Execute.
type Builder struct {
	client    *Client
	table     string
	method    string
	selectArg string
	count     CountMode
	filters   url.Values
	order     []string
	rangeFrom int
	rangeTo   int
	hasRange  bool
	limit     int
	hasLimit  bool
	single    bool
	head      bool
	body      any
	hasBody   bool
}

// Select sets the column projection and, optionally, the count mode.
func (b *Builder) Select(columns string, count CountMode) *Builder {
	b.selectArg = columns
	b.count = count
	return b
}

// Eq adds an equality predicate.
func (b *Builder) Eq(column string, value any) *Builder {
	return b.filter(column, "eq", value)
}

// Neq adds an inequality predicate.
func (b *Builder) Neq(column string, value any) *Builder {
	return b.filter(column, "neq", value)
}

// Gt adds a greater-than predicate.
func (b *Builder) Gt(column string, value any) *Builder {
	return b.filter(column, "gt", value)
}

// Gte adds a greater-than-or-equal predicate.
func (b *Builder) Gte(column string, value any) *Builder {
	return b.filter(column, "gte", value)
}

// Lt adds a less-than predicate.
func (b *Builder) Lt(column string, value any) *Builder {
	return b.filter(column, "lt", value)
}

// Lte adds a less-than-or-equal predicate.
func (b *Builder) Lte(column string, value any) *Builder {
	return b.filter(column, "lte", value)
}

// Ilike adds a case-insensitive pattern predicate. The pattern uses %
// wildcards.
func (b *Builder) Ilike(column, pattern string) *Builder {
	return b.filter(column, "ilike", pattern)
}

// Is adds a null/boolean identity predicate. A nil value tests IS NULL.
func (b *Builder) Is(column string, value any) *Builder {
	return b.filter(column, "is", value)
}

// Not negates the given operator for the column.
func (b *Builder) Not(column, operator string, value any) *Builder {
	return b.filter(column, "not."+operator, value)
}

// In restricts the column to the given set of values.
func (b *Builder) In(column string, values []any) *Builder {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return b.rawFilter(column, "in.("+strings.Join(parts, ",")+")")
}

// Or adds a disjunction expression of the form "col.op.value,col2.op.value".
func (b *Builder) Or(expr string) *Builder {
	return b.rawFilter("or", "("+expr+")")
}

// Order appends an ordering term.
func (b *Builder) Order(column string, ascending bool) *Builder {
	direction := "asc"
	if !ascending {
		direction = "desc"
	}
	b.order = append(b.order, column+"."+direction)
	return b
}

// Range requests the inclusive zero-based row window [from, to].
func (b *Builder) Range(from, to int) *Builder {
	b.rangeFrom, b.rangeTo = from, to
	b.hasRange = true
	return b
}

// Limit caps the number of returned rows.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	b.hasLimit = true
	return b
}

// Single requests a single object response instead of an array. Zero rows
// make the request fail with a not-found backend error (see IsNotFound).
func (b *Builder) Single() *Builder {
	b.single = true
	return b
}

// Head issues the request without a body; combined with CountExact it yields
// the count metadata only.
func (b *Builder) Head() *Builder {
	b.head = true
	return b
}

// Insert turns the builder into an insert of the given rows.
func (b *Builder) Insert(rows any) *Builder {
	b.method = http.MethodPost
	b.body = rows
	b.hasBody = true
	return b
}

// Update turns the builder into a predicate-scoped update.
func (b *Builder) Update(values any) *Builder {
	b.method = http.MethodPatch
	b.body = values
	b.hasBody = true
	return b
}

// Delete turns the builder into a predicate-scoped delete.
func (b *Builder) Delete() *Builder {
	b.method = http.MethodDelete
	return b
}

func (b *Builder) filter(column, operator string, value any) *Builder {
	return b.rawFilter(column, operator+"."+formatValue(value))
}

func (b *Builder) rawFilter(key, expr string) *Builder {
	if b.filters == nil {
		b.filters = url.Values{}
	}
	b.filters.Add(key, expr)
	return b
}

// Execute issues the request and returns the raw response.
func (b *Builder) Execute(ctx context.Context) (*Response, error) {
	req, err := b.buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.doer.Do(req)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(b.table, b.method, "network_error").Inc()
		return nil, &apperr.NetworkError{Op: b.method + " " + b.table, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.BackendRequests.WithLabelValues(b.table, b.method, "network_error").Inc()
		return nil, &apperr.NetworkError{Op: b.method + " " + b.table, Err: err}
	}

	if resp.StatusCode >= 400 {
		metrics.BackendRequests.WithLabelValues(b.table, b.method, "backend_error").Inc()
		return nil, b.client.backendFailure(b.table, payload)
	}
	metrics.BackendRequests.WithLabelValues(b.table, b.method, "ok").Inc()

	b.client.logger.Debug("backend request",
		zap.String("table", b.table),
		zap.String("method", b.method),
		zap.String("query", req.URL.RawQuery),
		zap.Int("status", resp.StatusCode),
	)

	return &Response{
		Data:  payload,
		Count: parseCount(resp.Header.Get("Content-Range")),
	}, nil
}

// ExecuteInto executes the request and decodes the response body into dest,
// returning the exact count when one was requested. A nil dest skips
// decoding.
func (b *Builder) ExecuteInto(ctx context.Context, dest any) (*int64, error) {
	resp, err := b.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if dest != nil && len(resp.Data) > 0 && !b.head {
		if err := json.Unmarshal(resp.Data, dest); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", b.table, err)
		}
	}
	return resp.Count, nil
}

func (b *Builder) buildRequest(ctx context.Context) (*http.Request, error) {
	params := url.Values{}
	if b.selectArg != "" {
		params.Set("select", b.selectArg)
	}
	for key, values := range b.filters {
		for _, v := range values {
			params.Add(key, v)
		}
	}
	for _, term := range b.order {
		params.Add("order", term)
	}
	if b.hasLimit {
		params.Set("limit", strconv.Itoa(b.limit))
	}

	method := b.method
	if b.head {
		method = http.MethodHead
	}

	endpoint := b.client.baseURL + "/" + b.table
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var bodyReader io.Reader
	if b.hasBody {
		raw, err := json.Marshal(b.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", b.table, err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", b.table, err)
	}

	b.client.authorize(req)
	if b.hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if b.hasRange {
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", fmt.Sprintf("%d-%d", b.rangeFrom, b.rangeTo))
	}

	var prefer []string
	if b.count != "" {
		prefer = append(prefer, "count="+string(b.count))
	}
	if b.method == http.MethodPost || b.method == http.MethodPatch {
		prefer = append(prefer, "return=representation")
	}
	if len(prefer) > 0 {
		req.Header.Set("Prefer", strings.Join(prefer, ","))
	}

	return req, nil
}

// formatValue renders a predicate operand the way the backend expects it.
func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}

// parseCount extracts the total from a Content-Range header such as
// "0-24/3573". An absent or "*" total yields nil.
func parseCount(contentRange string) *int64 {
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return nil
	}
	total := contentRange[idx+1:]
	if total == "" || total == "*" {
		return nil
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
