// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/app/notify"
	"github.com/dalemusser/formdrop/internal/app/store"
	"github.com/dalemusser/formdrop/pantry/ratelimit"
)

// DBDeps holds the backends opened by ConnectDB and released by Shutdown.
type DBDeps struct {
	Store    store.Store
	Notifier *notify.Notifier
	Aliases  intake.Aliases

	// SubmitLimiter is nil when rate limiting is off.
	SubmitLimiter *ratelimit.KeyLimiter
}
