package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jakobwesthoff/blendwerk/pkg/logging"
	"github.com/jakobwesthoff/blendwerk/pkg/routes"
)

// DebounceWindow is the quiet period after the last filesystem event
// before a rescan runs. Authors tend to save in bursts; one rescan per
// burst is enough.
const DebounceWindow = 250 * time.Millisecond

// Reloader holds the current route table and swaps in replacements
// compiled from the mock root. Swaps are atomic: in-flight requests keep
// the snapshot they started with.
type Reloader struct {
	root     string
	events   <-chan struct{}
	debounce time.Duration
	log      *slog.Logger

	table atomic.Pointer[routes.Table]
}

// ReloaderOption customizes a Reloader.
type ReloaderOption func(*Reloader)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithReloaderLogger sets the operational logger.
func WithReloaderLogger(log *slog.Logger) ReloaderOption {
	return func(r *Reloader) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReloader creates a Reloader serving initial and rescanning root
// whenever events signals a filesystem change.
func NewReloader(root string, initial *routes.Table, events <-chan struct{}, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		root:     root,
		events:   events,
		debounce: DebounceWindow,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.table.Store(initial)
	return r
}

// Current returns the route table snapshot for one request. The returned
// table is immutable and remains valid after later reloads.
func (r *Reloader) Current() *routes.Table {
	return r.table.Load()
}

// Run consumes change notifications until ctx is canceled. Every event
// re-arms the debounce timer; when the timer fires without further events
// a full recompile runs and, if it succeeds, the new table is published.
// Reloads are serialized: events arriving mid-rescan stay pending in the
// watcher channel and re-arm the timer on the next loop turn, so the
// final published table always reflects the final filesystem state.
func (r *Reloader) Run(ctx context.Context) {
	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case _, ok := <-r.events:
			if !ok {
				timer.Stop()
				return
			}
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(r.debounce)
			armed = true
		case <-timer.C:
			armed = false
			r.reload()
		}
	}
}

// reload recompiles the tree and publishes the result. A fatal compile
// error (root gone, root not a directory) keeps the previous table in
// force; per-file diagnostics are logged but do not block publication.
func (r *Reloader) reload() {
	table, diags, err := routes.Compile(r.root)
	if err != nil {
		r.log.Error("route reload failed, previous table retained", "error", err)
		return
	}
	for _, d := range diags {
		r.log.Warn("compile diagnostic", "kind", string(d.Kind), "path", d.Path, "detail", d.Detail)
	}
	r.table.Store(table)
	r.log.Info("routes reloaded", "count", table.Len())
}
