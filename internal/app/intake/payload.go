// internal/app/intake/payload.go
package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dalemusser/formdrop/httputil"
)

// MaxMultipartMemory caps the in-memory part of a multipart body.
const MaxMultipartMemory = 10 << 20

// Payload is a decoded request body. JSON bodies keep their decoded value
// types; form bodies map each key to its first value.
type Payload map[string]any

// DecodeRequest reads r's body into a Payload according to its content type.
// Malformed JSON and unparseable forms yield an empty Payload. Only a body
// that cannot be read (including one over the size limit) is an error.
func DecodeRequest(r *http.Request) (Payload, error) {
	mt := httputil.MediaType(r)
	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(MaxMultipartMemory); err != nil {
			if isReadError(err) {
				return nil, fmt.Errorf("read multipart body: %w", err)
			}
			return Payload{}, nil
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		return firstValues(r.MultipartForm.Value), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case httputil.IsJSON(mt):
		return DecodeJSON(body), nil
	case mt == "application/x-www-form-urlencoded":
		return DecodeForm(body), nil
	default:
		if looksLikeJSON(body) {
			return DecodeJSON(body), nil
		}
		return DecodeForm(body), nil
	}
}

// DecodeJSON decodes a JSON object. A top-level array is unwrapped to its
// first element when that is an object. Anything else yields an empty
// Payload.
func DecodeJSON(body []byte) Payload {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Payload{}
	}
	if obj := asObject(v); obj != nil {
		return obj
	}
	return Payload{}
}

// DecodeForm decodes a URL-encoded body. Keys are kept verbatim.
func DecodeForm(body []byte) Payload {
	values, err := url.ParseQuery(string(body))
	if err != nil && len(values) == 0 {
		return Payload{}
	}
	return firstValues(values)
}

// asObject returns v as an object, unwrapping a one-level array.
func asObject(v any) Payload {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

func firstValues(values map[string][]string) Payload {
	p := make(Payload, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
	return p
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// isReadError separates an oversized body from a malformed one.
func isReadError(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
