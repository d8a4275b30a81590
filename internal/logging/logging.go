// Package logging wraps cosmossdk.io/log so every arbitrage lifecycle event
// is emitted as the one-structured-line-per-event spec.md §6 requires, each
// carrying a `data` field with the full ArbitrageData snapshot.
package logging

import (
	"encoding/json"
	"os"

	"cosmossdk.io/log"
)

// Logger is the shared logging interface; callers depend on this alias
// rather than on cosmossdk.io/log directly so the dependency is isolated to
// this package.
type Logger = log.Logger

// New returns a structured logger writing to stderr, matching the teacher's
// cmd/pawd bootstrap.
func New() Logger {
	return log.NewLogger(os.Stderr)
}

// Nop returns a logger that discards everything, for tests.
func Nop() Logger {
	return log.NewNopLogger()
}

// LifecycleEvent logs one structured line for an arbitrage lifecycle event
// (found, broadcast, confirmed, ...), JSON-marshaling data into the `data`
// field per spec.md §6.
func LifecycleEvent(l Logger, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		l.Error("failed to marshal lifecycle event data", "event", event, "error", err)
		return
	}
	l.Info(event, "data", string(payload))
}
