package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]any{"success": true})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || !got["success"] {
		t.Errorf("body = %s, err %v", rec.Body.String(), err)
	}
}

func TestWriteJSON_ClampsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 42, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusTooManyRequests, "rate_limited", "slow down")

	var got ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Error != "rate_limited" || got.Message != "slow down" {
		t.Errorf("got %+v", got)
	}
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"application/json", "application/json"},
		{"Application/JSON; charset=utf-8", "application/json"},
		{"multipart/form-data; boundary=xyz", "multipart/form-data"},
		{"application/x-www-form-urlencoded", "application/x-www-form-urlencoded"},
		{"text/plain;;bad", "text/plain"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if tt.header != "" {
			r.Header.Set("Content-Type", tt.header)
		}
		if got := MediaType(r); got != tt.want {
			t.Errorf("MediaType(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
	if !IsJSON("application/vnd.api+json") || IsJSON("text/plain") {
		t.Error("IsJSON mismatch")
	}
}
