// testing/recorder.go
package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// Recorder runs requests against a handler without starting a server.
type Recorder struct {
	t *testing.T
}

// NewRecorder creates a new Recorder for testing.
func NewRecorder(t *testing.T) *Recorder {
	return &Recorder{t: t}
}

// Request starts a request builder.
func (rec *Recorder) Request(method, path string) *RecorderRequest {
	return &RecorderRequest{
		rec:    rec,
		method: method,
		path:   path,
		header: make(http.Header),
	}
}

// Get creates a GET request.
func (rec *Recorder) Get(path string) *RecorderRequest {
	return rec.Request(http.MethodGet, path)
}

// Post creates a POST request.
func (rec *Recorder) Post(path string) *RecorderRequest {
	return rec.Request(http.MethodPost, path)
}

// Options creates an OPTIONS request.
func (rec *Recorder) Options(path string) *RecorderRequest {
	return rec.Request(http.MethodOptions, path)
}

// RecorderRequest builds a request for handler testing.
type RecorderRequest struct {
	rec        *Recorder
	method     string
	path       string
	header     http.Header
	body       io.Reader
	remoteAddr string
}

// Header sets a request header.
func (rr *RecorderRequest) Header(key, value string) *RecorderRequest {
	rr.header.Set(key, value)
	return rr
}

// RemoteAddr overrides the client address ("ip:port").
func (rr *RecorderRequest) RemoteAddr(addr string) *RecorderRequest {
	rr.remoteAddr = addr
	return rr
}

// BodyString sets a raw body. No Content-Type is set.
func (rr *RecorderRequest) BodyString(body string) *RecorderRequest {
	rr.body = strings.NewReader(body)
	return rr
}

// JSON sets the request body as JSON.
func (rr *RecorderRequest) JSON(v any) *RecorderRequest {
	rr.rec.t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		rr.rec.t.Fatalf("failed to marshal JSON: %v", err)
	}
	rr.body = bytes.NewReader(data)
	rr.header.Set("Content-Type", "application/json")
	return rr
}

// Form sets the request body as URL-encoded form data.
func (rr *RecorderRequest) Form(data url.Values) *RecorderRequest {
	rr.body = strings.NewReader(data.Encode())
	rr.header.Set("Content-Type", "application/x-www-form-urlencoded")
	return rr
}

// Multipart sets the request body as multipart/form-data with one part per
// field, written in the given order.
func (rr *RecorderRequest) Multipart(fields [][2]string) *RecorderRequest {
	rr.rec.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			rr.rec.t.Fatalf("failed to write multipart field %q: %v", kv[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		rr.rec.t.Fatalf("failed to close multipart writer: %v", err)
	}
	rr.body = &buf
	rr.header.Set("Content-Type", mw.FormDataContentType())
	return rr
}

// Bearer sets the Authorization header with a Bearer token.
func (rr *RecorderRequest) Bearer(token string) *RecorderRequest {
	rr.header.Set("Authorization", "Bearer "+token)
	return rr
}

// Build creates the http.Request without executing it.
func (rr *RecorderRequest) Build() *http.Request {
	req := httptest.NewRequest(rr.method, rr.path, rr.body)
	req.Header = rr.header
	if rr.remoteAddr != "" {
		req.RemoteAddr = rr.remoteAddr
	}
	return req
}

// Run executes the request against a handler and returns the response.
func (rr *RecorderRequest) Run(handler http.Handler) *Response {
	rr.rec.t.Helper()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rr.Build())

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		rr.rec.t.Fatalf("failed to read response body: %v", err)
	}

	return &Response{
		Response: resp,
		Body:     body,
		t:        rr.rec.t,
	}
}
