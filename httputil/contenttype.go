// httputil/contenttype.go
package httputil

import (
	"mime"
	"net/http"
	"strings"
)

// MediaType returns the lower-cased media type of the request's
// Content-Type header without parameters, or "" when absent or unparsable.
func MediaType(r *http.Request) string {
	ct := strings.TrimSpace(r.Header.Get("Content-Type"))
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// IsJSON reports whether mediaType is application/json or a +json type.
func IsJSON(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
