//go:build !unix

package runtime

import (
	"log/slog"
	"os"
)

// IsPID1 is always false on platforms without an init process model.
func IsPID1() bool {
	return false
}

// StartReaper is a no-op outside unix.
func StartReaper(_ *slog.Logger) func() {
	return func() {}
}

// ForwardSignal is a no-op outside unix.
func ForwardSignal(_ os.Signal, _ *slog.Logger) {}
