// testing/testing.go

// Package testing holds HTTP handler test helpers: a request recorder with a
// fluent builder and a response type with assertion methods.
package testing

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

// Response wraps http.Response with assertion methods.
type Response struct {
	*http.Response
	Body []byte
	t    *testing.T
}

// Status asserts the response status code.
func (r *Response) Status(code int) *Response {
	r.t.Helper()
	if r.StatusCode != code {
		r.t.Errorf("expected status %d, got %d\nBody: %s", code, r.StatusCode, string(r.Body))
	}
	return r
}

// StatusOK asserts 200 OK.
func (r *Response) StatusOK() *Response {
	return r.Status(http.StatusOK)
}

// HeaderEquals asserts a header value.
func (r *Response) HeaderEquals(key, expected string) *Response {
	r.t.Helper()
	if actual := r.Header.Get(key); actual != expected {
		r.t.Errorf("expected header %s=%q, got %q", key, expected, actual)
	}
	return r
}

// HeaderContains asserts a header contains a substring.
func (r *Response) HeaderContains(key, substr string) *Response {
	r.t.Helper()
	if actual := r.Header.Get(key); !strings.Contains(actual, substr) {
		r.t.Errorf("expected header %s to contain %q, got %q", key, substr, actual)
	}
	return r
}

// ContentTypeJSON asserts Content-Type is application/json.
func (r *Response) ContentTypeJSON() *Response {
	return r.HeaderContains("Content-Type", "application/json")
}

// BodyContains asserts the body contains a substring.
func (r *Response) BodyContains(substr string) *Response {
	r.t.Helper()
	if !strings.Contains(string(r.Body), substr) {
		r.t.Errorf("expected body to contain %q, got %q", substr, string(r.Body))
	}
	return r
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v any) *Response {
	r.t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		r.t.Fatalf("failed to unmarshal JSON: %v\nBody: %s", err, string(r.Body))
	}
	return r
}

// JSONPath extracts a value from the JSON body at a dot-separated path
// such as "error" or "0.name".
func (r *Response) JSONPath(path string) any {
	r.t.Helper()

	var current any
	if err := json.Unmarshal(r.Body, &current); err != nil {
		r.t.Fatalf("failed to unmarshal JSON: %v\nBody: %s", err, string(r.Body))
	}

	for _, part := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				r.t.Fatalf("path %q not found at %q\nBody: %s", path, part, string(r.Body))
			}
			current = next
		case []any:
			// Numeric segments index into arrays.
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				r.t.Fatalf("bad array index %q in path %q", part, path)
			}
			current = v[idx]
		default:
			r.t.Fatalf("cannot navigate path %q at %q (type %T)", path, part, current)
		}
	}
	return current
}

// JSONPathEquals asserts a JSON path equals an expected value. Values are
// compared by their JSON encoding, so 1 and 1.0 match.
func (r *Response) JSONPathEquals(path string, expected any) *Response {
	r.t.Helper()
	actual := r.JSONPath(path)

	// Convert both to JSON for comparison
	actualJSON, _ := json.Marshal(actual)
	expectedJSON, _ := json.Marshal(expected)
	if string(actualJSON) != string(expectedJSON) {
		r.t.Errorf("expected %s=%s, got %s", path, expectedJSON, actualJSON)
	}
	return r
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.Body)
}
