package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/petra-io/petra/internal/engine"
	"github.com/petra-io/petra/internal/health"
	"github.com/petra-io/petra/internal/index"
	"github.com/petra-io/petra/internal/store"
)

// fakeEngine backs all services in handler tests.
type fakeEngine struct {
	searchFn   func(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error)
	countFn    func(ctx context.Context, query engine.Mapping) (int64, error)
	beginFn    func(ctx context.Context, req *engine.SearchRequest, timeout time.Duration) (*engine.SearchResult, error)
	continueFn func(ctx context.Context, scroll engine.ScrollState, timeout time.Duration) (*engine.SearchResult, error)
	insertFn   func(ctx context.Context, docs []engine.Document) (*engine.BulkResult, error)
	deleteFn   func(ctx context.Context, ids []string) (*engine.BulkResult, error)
	running    bool
}

func (f *fakeEngine) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.searchFn != nil {
		return f.searchFn(ctx, req)
	}
	return &engine.SearchResult{}, nil
}

func (f *fakeEngine) Count(ctx context.Context, query engine.Mapping) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, query)
	}
	return 0, nil
}

func (f *fakeEngine) BeginScroll(ctx context.Context, req *engine.SearchRequest, timeout time.Duration) (*engine.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.beginFn != nil {
		return f.beginFn(ctx, req, timeout)
	}
	return &engine.SearchResult{}, nil
}

func (f *fakeEngine) ContinueScroll(ctx context.Context, scroll engine.ScrollState, timeout time.Duration) (*engine.SearchResult, error) {
	if f.continueFn != nil {
		return f.continueFn(ctx, scroll, timeout)
	}
	return &engine.SearchResult{}, nil
}

func (f *fakeEngine) BulkInsert(ctx context.Context, docs []engine.Document) (*engine.BulkResult, error) {
	if f.insertFn != nil {
		return f.insertFn(ctx, docs)
	}
	items := make([]engine.BulkItem, len(docs))
	for i, d := range docs {
		items[i] = engine.BulkItem{Action: "index", ID: d.ID, Status: 201}
	}
	return &engine.BulkResult{Items: items}, nil
}

func (f *fakeEngine) BulkDelete(ctx context.Context, ids []string) (*engine.BulkResult, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, ids)
	}
	items := make([]engine.BulkItem, len(ids))
	for i, id := range ids {
		items[i] = engine.BulkItem{Action: "delete", ID: id, Status: 200}
	}
	return &engine.BulkResult{Items: items}, nil
}

func (f *fakeEngine) UpdateByQuery(ctx context.Context, postFilter, script engine.Mapping) (engine.Mapping, error) {
	return engine.Mapping{}, nil
}

func (f *fakeEngine) IsRunning(ctx context.Context) bool { return f.running }

func newTestServer(eng *fakeEngine) *Server {
	logger := zap.NewNop()
	return NewServer(
		store.New(eng, eng, logger),
		index.New(eng, logger),
		health.New(eng),
		logger,
	)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestSearchChunks_OK(t *testing.T) {
	eng := &fakeEngine{
		searchFn: func(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error) {
			return &engine.SearchResult{
				Took:  3,
				Total: 1,
				Hits:  []engine.Hit{{ID: "c1", Source: json.RawMessage(`{"path":"/a"}`)}},
			}, nil
		},
	}
	srv := newTestServer(eng)

	rr := doRequest(t, srv, "GET", "/store", `{"query":{"match_all":{}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Hits) != 1 || resp.Hits[0].ID != "c1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchChunks_MissingPredicate_400(t *testing.T) {
	srv := newTestServer(&fakeEngine{})

	rr := doRequest(t, srv, "GET", "/store", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeMissingQuery {
		t.Errorf("code = %q, want %q", resp.Code, codeMissingQuery)
	}
}

func TestSearchChunks_EngineError_400(t *testing.T) {
	eng := &fakeEngine{
		searchFn: func(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error) {
			return nil, &engine.EngineError{
				Op: engine.OpSearch, Status: 400,
				Type: "parsing_exception", Reason: "unknown key",
			}
		},
	}
	srv := newTestServer(eng)

	rr := doRequest(t, srv, "GET", "/store", `{"query":{"bad":{}}}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSearchChunks_TransportError_502(t *testing.T) {
	eng := &fakeEngine{
		searchFn: func(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResult, error) {
			return nil, &engine.TransportError{Op: engine.OpSearch, Err: context.DeadlineExceeded}
		},
	}
	srv := newTestServer(eng)

	rr := doRequest(t, srv, "GET", "/store", `{"query":{"match_all":{}}}`)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestCountChunks(t *testing.T) {
	eng := &fakeEngine{
		countFn: func(ctx context.Context, query engine.Mapping) (int64, error) { return 12, nil },
	}
	srv := newTestServer(eng)

	rr := doRequest(t, srv, "GET", "/store/count", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]int64
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["count"] != 12 {
		t.Errorf("count = %d, want 12", resp["count"])
	}
}

func TestImportChunks_OK(t *testing.T) {
	srv := newTestServer(&fakeEngine{})

	body := `{"chunks":[{"id":"c1","geometry":{"type":"Point","coordinates":[13.4,52.5]},"path":"/imports/a.geojson","start":0,"end":100}]}`
	rr := doRequest(t, srv, "POST", "/store", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp importResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ImportID == "" {
		t.Error("expected an import id")
	}
	if resp.Indexed != 1 || len(resp.Failed) != 0 {
		t.Errorf("response = %+v", resp)
	}
}

func TestImportChunks_PartialFailure(t *testing.T) {
	eng := &fakeEngine{
		insertFn: func(ctx context.Context, docs []engine.Document) (*engine.BulkResult, error) {
			return &engine.BulkResult{
				Errors: true,
				Items: []engine.BulkItem{
					{Action: "index", ID: "c1", Status: 201},
					{Action: "index", ID: "c2", Status: 400, Error: &engine.BulkError{
						Type: "mapper_parsing_exception", Reason: "failed to parse",
					}},
				},
			}, nil
		},
	}
	srv := newTestServer(eng)

	body := `{"chunks":[
		{"id":"c1","geometry":{"type":"Point","coordinates":[13.4,52.5]},"path":"/a","start":0,"end":10},
		{"id":"c2","geometry":{"type":"Point","coordinates":[13.5,52.6]},"path":"/a","start":10,"end":20}
	]}`
	rr := doRequest(t, srv, "POST", "/store", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp importResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Indexed != 1 {
		t.Errorf("indexed = %d, want 1", resp.Indexed)
	}
	if len(resp.Failed) != 1 || resp.Failed[0].ID != "c2" || resp.Failed[0].Type != "mapper_parsing_exception" {
		t.Errorf("failed = %+v", resp.Failed)
	}
}

func TestImportChunks_EmptyBody_400(t *testing.T) {
	srv := newTestServer(&fakeEngine{})

	rr := doRequest(t, srv, "POST", "/store", `{"chunks":[]}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestImportChunks_TooManyChunks_413(t *testing.T) {
	srv := newTestServer(&fakeEngine{}).WithMaxImportBatch(1)

	body := `{"chunks":[
		{"id":"c1","geometry":{"type":"Point","coordinates":[13.4,52.5]},"path":"/a","start":0,"end":10},
		{"id":"c2","geometry":{"type":"Point","coordinates":[13.5,52.6]},"path":"/a","start":10,"end":20}
	]}`
	rr := doRequest(t, srv, "POST", "/store", body)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
}

func TestDeleteChunks(t *testing.T) {
	eng := &fakeEngine{
		beginFn: func(ctx context.Context, req *engine.SearchRequest, timeout time.Duration) (*engine.SearchResult, error) {
			return &engine.SearchResult{
				Hits: []engine.Hit{
					{ID: "c1", Source: json.RawMessage(`{}`)},
					{ID: "c2", Source: json.RawMessage(`{}`)},
				},
			}, nil
		},
	}
	srv := newTestServer(eng)

	rr := doRequest(t, srv, "DELETE", "/store", `{"query":{"term":{"path":"/a"}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp map[string]int64
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["deleted"] != 2 {
		t.Errorf("deleted = %d, want 2", resp["deleted"])
	}
}

func TestHealthCheck_OK(t *testing.T) {
	srv := newTestServer(&fakeEngine{running: true})

	rr := doRequest(t, srv, "GET", "/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var report health.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Status != health.Healthy {
		t.Errorf("status = %q", report.Status)
	}
}

func TestHealthCheck_EngineDown_503(t *testing.T) {
	srv := newTestServer(&fakeEngine{running: false})

	rr := doRequest(t, srv, "GET", "/health", "")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}
