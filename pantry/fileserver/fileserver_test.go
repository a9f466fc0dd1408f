package fileserver

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	wtest "github.com/dalemusser/formdrop/pantry/testing"
)

func site(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":       "<h1>app</h1>",
		"assets/app.js":    "console.log('plain')",
		"assets/app.js.gz": "gzipped-bytes",
		"docs/readme.txt":  "no index here",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestSPA_Fallback(t *testing.T) {
	h := SPA(site(t))
	rec := wtest.NewRecorder(t)

	for _, p := range []string{"/", "/dashboard/settings", "/index.html", "/docs"} {
		resp := rec.Get(p).Run(h)
		resp.StatusOK()
		if resp.String() != "<h1>app</h1>" {
			t.Errorf("GET %s body = %q, want index", p, resp.String())
		}
	}
}

func TestSPA_RealFile(t *testing.T) {
	h := SPA(site(t))
	resp := wtest.NewRecorder(t).Get("/assets/app.js").Run(h)
	resp.StatusOK()
	if resp.String() != "console.log('plain')" {
		t.Errorf("body = %q", resp.String())
	}
	if got := resp.Header.Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want none", got)
	}
}

func TestSPA_Precompressed(t *testing.T) {
	h := SPA(site(t))
	resp := wtest.NewRecorder(t).Get("/assets/app.js").Header("Accept-Encoding", "br;q=1.0, gzip").Run(h)
	resp.StatusOK().
		HeaderEquals("Content-Encoding", "gzip").
		HeaderEquals("Vary", "Accept-Encoding").
		HeaderContains("Content-Type", "javascript")
	if resp.String() != "gzipped-bytes" {
		t.Errorf("body = %q", resp.String())
	}
}

func TestHandler_NoFallback(t *testing.T) {
	h := Handler("/static", site(t))
	rec := wtest.NewRecorder(t)

	rec.Get("/static/missing.css").Run(h).Status(http.StatusNotFound)
	rec.Get("/static/docs/readme.txt").Run(h).StatusOK().BodyContains("no index here")
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := SPA(site(t))
	wtest.NewRecorder(t).Post("/").BodyString("x").Run(h).
		Status(http.StatusMethodNotAllowed).
		HeaderEquals("Allow", "GET, HEAD")
}

func TestCacheControl(t *testing.T) {
	h := HandlerWithOptions("", site(t), Options{Fallback: true, CacheControl: "public, max-age=60"})
	wtest.NewRecorder(t).Get("/assets/app.js").Run(h).HeaderEquals("Cache-Control", "public, max-age=60")
}
