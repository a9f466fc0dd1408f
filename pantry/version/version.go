// pantry/version/version.go

// Package version reports the build's version for logs and GET /version.
package version

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/dalemusser/formdrop/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/dalemusser/formdrop/pantry/version.Version=1.4.0"
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info is the JSON body of GET /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get returns the build info. Commit and BuildTime fall back to the VCS
// stamp the go tool embeds when they were not set by ldflags.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.BuildTime == "":
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// Fields returns Get as zap fields for a startup log line.
func Fields() []zap.Field {
	info := Get()
	return []zap.Field{
		zap.String("version", info.Version),
		zap.String("commit", info.Commit),
		zap.String("go_version", info.GoVersion),
	}
}

// Mount attaches GET /version to r.
func Mount(r chi.Router) {
	info := Get()
	r.Method(http.MethodGet, "/version", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	}))
}
