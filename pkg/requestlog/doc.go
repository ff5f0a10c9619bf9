// Package requestlog persists served request/response pairs to disk.
//
// Records are written into a directory tree mirroring the request paths:
//
//	<root>/api/users/GET/2025-01-28T15-30-45.123456Z_01JGME....json
//
// This is user-facing traffic capture, distinct from operational logging
// (which uses log/slog). A bounded queue fronts the disk workers so that
// enqueueing a record never blocks a responder: when the queue is full the
// oldest record is dropped and a counter is incremented.
//
// # Usage
//
//	w := requestlog.NewWriter("request-logs", requestlog.FormatJSON)
//	defer w.Close() // drains the queue
//	w.Enqueue(rec)
package requestlog
