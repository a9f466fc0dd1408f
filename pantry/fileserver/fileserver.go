// pantry/fileserver/fileserver.go

// Package fileserver serves a static site from a directory. Pre-compressed
// siblings (.br, .gz) are preferred when the client accepts them, and
// unknown paths can fall back to an index document for client-side routing.
package fileserver

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// Options configures the handler.
type Options struct {
	// Index is served for paths that do not name an existing file when
	// Fallback is true. Default "index.html".
	Index string

	// Fallback serves Index for unknown GET/HEAD paths instead of 404.
	Fallback bool

	// CacheControl, if set, is sent on every file response.
	CacheControl string

	// DisablePrecompressed skips the .br / .gz lookup.
	DisablePrecompressed bool
}

// Handler serves rootDir at urlPrefix with default options (no fallback).
func Handler(urlPrefix, rootDir string) http.Handler {
	return HandlerWithOptions(urlPrefix, rootDir, Options{})
}

// SPA serves rootDir at "/" and falls back to index.html for unknown paths.
func SPA(rootDir string) http.Handler {
	return HandlerWithOptions("", rootDir, Options{Fallback: true})
}

// HandlerWithOptions serves rootDir at urlPrefix.
func HandlerWithOptions(urlPrefix, rootDir string, opts Options) http.Handler {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	root := http.Dir(rootDir)
	files := http.FileServer(root)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "."
		}
		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}

		if opts.Fallback && !exists(root, name) {
			name = opts.Index
			r2 := r.Clone(r.Context())
			r2.URL.Path = "/" + opts.Index
			r = r2
		}

		if !opts.DisablePrecompressed && servePrecompressed(w, r, root, name) {
			return
		}
		if name == opts.Index {
			serveFile(w, r, root, name)
			return
		}
		files.ServeHTTP(w, r)
	})

	if urlPrefix == "" || urlPrefix == "/" {
		return h
	}
	return http.StripPrefix(urlPrefix, h)
}

func exists(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	if !fi.IsDir() {
		return true
	}
	// Directories count only when they carry their own index.
	idx, err := root.Open(path.Join(name, "index.html"))
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}

// serveFile serves name directly. http.FileServer would redirect
// "/index.html" to "/", which breaks the fallback.
func serveFile(w http.ResponseWriter, r *http.Request, root http.FileSystem, name string) {
	f, err := root.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, fi.ModTime(), f)
}

func servePrecompressed(w http.ResponseWriter, r *http.Request, root http.FileSystem, name string) bool {
	for _, cand := range [...]struct{ ext, encoding string }{{".br", "br"}, {".gz", "gzip"}} {
		if !acceptsEncoding(r, cand.encoding) {
			continue
		}
		f, err := root.Open(name + cand.ext)
		if err != nil {
			continue
		}
		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			_ = f.Close()
			continue
		}
		w.Header().Set("Content-Encoding", cand.encoding)
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Set("Content-Type", mimeTypeByOriginal(name))
		http.ServeContent(w, r, name, fi.ModTime(), f)
		_ = f.Close()
		return true
	}
	return false
}

func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(enc, encoding) {
			return true
		}
	}
	return false
}

func mimeTypeByOriginal(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	switch ext {
	case ".js", ".mjs":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".wasm":
		return "application/wasm"
	default:
		return "application/octet-stream"
	}
}
