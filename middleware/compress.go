// middleware/compress.go
package middleware

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/formdrop/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types worth compressing here: the
// JSON API, the CSV export and the static site.
var compressibleTypes = []string{
	"application/json",
	"text/csv",
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"image/svg+xml",
}

// CompressFromConfig returns gzip/deflate response compression at
// coreCfg.CompressionLevel, or a no-op when enable_compression is false.
// The level is validated when the config loads; an out-of-range value here
// is a programming error.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return passthrough
	}
	level := coreCfg.CompressionLevel
	if level < 1 || level > 9 {
		panic(fmt.Sprintf("middleware: invalid compression level %d", level))
	}
	return middleware.Compress(level, compressibleTypes...)
}
