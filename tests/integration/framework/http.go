package framework

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type HTTPHelper struct {
	handler http.Handler
}

func NewHTTPHelper(handler http.Handler) *HTTPHelper {
	return &HTTPHelper{handler: handler}
}

type Request struct {
	Path    string
	Method  string
	Body    any
	Headers map[string]string
	Query   map[string]string
}

type Response struct {
	*httptest.ResponseRecorder
	t *testing.T
}

func (h *HTTPHelper) Do(t *testing.T, req Request) *Response {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		jsonbytes, err := json.Marshal(req.Body)
		require.NoError(t, err)
		body = bytes.NewReader(jsonbytes)
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, body)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Add(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, httpReq)

	return &Response{ResponseRecorder: w, t: t}
}

func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()

	assert.Equal(r.t, expected, r.Result().StatusCode, "unexpected status code, body: %s", r.Body.String())
	return r
}

func (r *Response) AssertSuccess(status int) *Response {
	r.t.Helper()
	r.AssertStatus(status)

	var resp map[string]any
	r.ParseJSON(&resp)
	assert.Equal(r.t, true, resp["success"], "expected success=true")

	return r
}

// AssertErrorCode checks the status and the machine readable error code of
// an error envelope.
func (r *Response) AssertErrorCode(status int, code string) *Response {
	r.t.Helper()
	r.AssertStatus(status)

	var resp map[string]any
	r.ParseJSON(&resp)
	assert.Equal(r.t, code, resp["code"], "unexpected error code")

	return r
}

func (r *Response) ParseJSON(v any) *Response {
	r.t.Helper()

	err := json.Unmarshal(r.Body.Bytes(), v)
	require.NoError(r.t, err, "failed to parse JSON response")

	return r
}

func (r *Response) AssertHeader(key, value string) *Response {
	r.t.Helper()

	actual := r.Header().Get(key)
	require.Equal(r.t, value, actual, fmt.Sprintf("expected header %s=%s, got %s", key, value, actual))
	return r
}

type RequestBuilder struct {
	req Request
}

func NewRequest(method, path string) *RequestBuilder {
	return &RequestBuilder{
		req: Request{
			Path:    path,
			Method:  method,
			Headers: make(map[string]string),
			Query:   make(map[string]string),
		},
	}
}

func (b *RequestBuilder) WithJSON(body any) *RequestBuilder {
	b.req.Body = body
	return b
}

func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.req.Headers[key] = value
	return b
}

func (b *RequestBuilder) WithBearer(token string) *RequestBuilder {
	return b.WithHeader("Authorization", "Bearer "+token)
}

func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.req.Query[key] = value
	return b
}

func (b *RequestBuilder) Build() Request {
	return b.req
}
