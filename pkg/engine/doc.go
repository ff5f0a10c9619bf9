// Package engine contains the serving core: the reload coordinator that
// publishes immutable route tables, the dispatcher that resolves requests
// against the current table, and the dual-listener HTTP/HTTPS server with
// graceful shutdown.
//
// The coordinator owns the only mutable reference in the data path, an
// atomic pointer to the current route table. Requests load the pointer
// once and use that snapshot for their whole lifetime; reloads build a
// fresh table and swap the pointer, so no lock is ever held while a
// request is being answered.
package engine
