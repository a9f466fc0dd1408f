package apikey

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequire(t *testing.T) {
	h := Require("s3cret", Options{}, nil)(okHandler())

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		target string
		want   int
	}{
		{"no key", func(r *http.Request) {}, "/api/messages", http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer s3cret") }, "/api/messages", http.StatusOK},
		{"bearer lower", func(r *http.Request) { r.Header.Set("Authorization", "bearer s3cret") }, "/api/messages", http.StatusOK},
		{"header", func(r *http.Request) { r.Header.Set("X-API-Key", "s3cret") }, "/api/messages", http.StatusOK},
		{"query", func(r *http.Request) {}, "/api/messages?api_key=s3cret", http.StatusOK},
		{"wrong", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, "/api/messages", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != `Bearer realm="formdrop"` {
				t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestOptional_EmptyKeyIsOpen(t *testing.T) {
	h := Optional("  ", Options{}, nil)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequire_EmptyExpected(t *testing.T) {
	h := Require("", Options{}, nil)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
