package elastic

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

// fakeTransport implements esapi.Transport, recording every request and
// replaying scripted responses.
type fakeTransport struct {
	calls     []recordedCall
	performFn func(req *http.Request) (*http.Response, error)
}

type recordedCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

func (t *fakeTransport) Perform(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	t.calls = append(t.calls, recordedCall{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Body:   body,
	})

	if t.performFn != nil {
		return t.performFn(req)
	}
	return jsonResponse(http.StatusOK, `{}`), nil
}

// countCalls returns how many recorded requests hit the given path.
func (t *fakeTransport) countCalls(method, path string) int {
	n := 0
	for _, c := range t.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient() (*Client, *fakeTransport) {
	ft := &fakeTransport{}
	return NewClientWithTransport(ft, "chunks"), ft
}
