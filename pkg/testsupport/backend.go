package testsupport

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"sync"
)

// Call records one request the fake backend received.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

// FakeDoer is an in-memory backend double implementing the client's Doer
// contract. Tests either set Handler for per-request behavior or queue
// canned responses with RespondJSON; without either, every request gets an
// empty JSON array.
type FakeDoer struct {
	mu      sync.Mutex
	calls   []Call
	queue   []*http.Response
	Handler func(req *http.Request) (*http.Response, error)
}

// NewFakeDoer builds an empty fake backend.
func NewFakeDoer() *FakeDoer {
	return &FakeDoer{}
}

// Do implements the Doer contract.
func (f *FakeDoer) Do(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Body:   body,
		Header: req.Header.Clone(),
	})
	var queued *http.Response
	if len(f.queue) > 0 {
		queued = f.queue[0]
		f.queue = f.queue[1:]
	}
	f.mu.Unlock()

	if f.Handler != nil {
		return f.Handler(req)
	}
	if queued != nil {
		return queued, nil
	}
	return JSONResponse(http.StatusOK, "[]", nil), nil
}

// RespondJSON queues a canned JSON response for the next request. Extra
// headers (such as Content-Range) may be passed via headers.
func (f *FakeDoer) RespondJSON(status int, body string, headers map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, JSONResponse(status, body, headers))
}

// Calls returns a snapshot of the recorded requests.
func (f *FakeDoer) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many requests the fake has received.
func (f *FakeDoer) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastCall returns the most recent request, or a zero Call when none were
// made.
func (f *FakeDoer) LastCall() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Call{}
	}
	return f.calls[len(f.calls)-1]
}

// Reset drops recorded calls and queued responses.
func (f *FakeDoer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.queue = nil
}

// JSONResponse builds an *http.Response with a JSON body.
func JSONResponse(status int, body string, headers map[string]string) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Content-Length", strconv.Itoa(len(body)))
	for k, v := range headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}
