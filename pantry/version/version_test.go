package version

import (
	"runtime"
	"testing"

	wtest "github.com/dalemusser/formdrop/pantry/testing"
	"github.com/go-chi/chi/v5"
)

func TestMount(t *testing.T) {
	old := Version
	Version = "1.4.0"
	t.Cleanup(func() { Version = old })

	r := chi.NewRouter()
	Mount(r)

	wtest.NewRecorder(t).Get("/version").Run(r).
		StatusOK().
		ContentTypeJSON().
		JSONPathEquals("version", "1.4.0").
		JSONPathEquals("go_version", runtime.Version())
}
