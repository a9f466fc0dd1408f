package intake

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func request(t *testing.T, contentType, body string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/submit-message", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		key         string
		want        any
	}{
		{"json", "application/json", `{"name":"Ada"}`, "name", "Ada"},
		{"json charset", "application/json; charset=utf-8", `{"name":"Ada"}`, "name", "Ada"},
		{"json array", "application/json", `[{"name":"Ada"}]`, "name", "Ada"},
		{"form", "application/x-www-form-urlencoded", "form_fields%5Bname%5D=Ada&form_fields%5Bname%5D=Bob", "form_fields[name]", "Ada"},
		{"sniffed json", "", ` {"name":"Ada"}`, "name", "Ada"},
		{"sniffed form", "text/plain", "name=Ada", "name", "Ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeRequest(request(t, tt.contentType, tt.body))
			if err != nil {
				t.Fatalf("DecodeRequest: %v", err)
			}
			if p[tt.key] != tt.want {
				t.Errorf("p[%q] = %v, want %v (payload %v)", tt.key, p[tt.key], tt.want, p)
			}
		})
	}
}

func TestDecodeRequest_MalformedIsEmpty(t *testing.T) {
	for _, body := range []string{`{"name":`, `"just a string"`, `[1,2]`, `[]`} {
		p, err := DecodeRequest(request(t, "application/json", body))
		if err != nil {
			t.Fatalf("DecodeRequest(%q): %v", body, err)
		}
		if len(p) != 0 {
			t.Errorf("DecodeRequest(%q) = %v, want empty", body, p)
		}
	}
}

func TestDecodeRequest_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("form_fields[name]", "Ada")
	_ = mw.WriteField("form_fields[email]", "ada@x.com")
	_ = mw.Close()

	p, err := DecodeRequest(request(t, mw.FormDataContentType(), buf.String()))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if p["form_fields[name]"] != "Ada" || p["form_fields[email]"] != "ada@x.com" {
		t.Errorf("payload = %v", p)
	}
}

func TestDecodeRequest_MultipartWithoutBoundary(t *testing.T) {
	p, err := DecodeRequest(request(t, "multipart/form-data", "garbage"))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if len(p) != 0 {
		t.Errorf("payload = %v, want empty", p)
	}
}

func TestDecodeRequest_TooLarge(t *testing.T) {
	r := request(t, "application/json", `{"message":"`+strings.Repeat("x", 64)+`"}`)
	r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, 16)

	_, err := DecodeRequest(r)
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		t.Fatalf("err = %v, want MaxBytesError", err)
	}
}

func TestDecodeJSON_UseNumber(t *testing.T) {
	p := DecodeJSON([]byte(`{"phone": 5550100123456789}`))
	if got := coerce(p["phone"]); got != "5550100123456789" {
		t.Errorf("phone = %q, want exact digits", got)
	}
}
