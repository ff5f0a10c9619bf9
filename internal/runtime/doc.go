// Package runtime handles the process-level duties that fall on the
// server when it runs as PID 1 inside a container: reaping orphaned
// children on SIGCHLD and forwarding termination signals to descendants.
// The serving core stays free of this so it remains portable to ordinary
// non-init use; the CLI wires the two together.
package runtime
