package routes

import (
	"sort"
	"strings"
)

// MatchKind is the outcome of a table lookup.
type MatchKind int

const (
	// MatchFound means a route matched; Route and Params are set.
	MatchFound MatchKind = iota
	// MatchMethodNotAllowed means the path shape exists under other
	// methods; Allowed carries their sorted union.
	MatchMethodNotAllowed
	// MatchNotFound means no route shape matched the path.
	MatchNotFound
)

// MatchResult is the outcome of Table.Match.
type MatchResult struct {
	Kind    MatchKind
	Route   *Route
	Params  []Param
	Allowed []string
}

// Table is an immutable snapshot of compiled routes. Lookups are pure:
// the same table, method, and path always produce the same result.
type Table struct {
	routes []*Route
}

func newTable(routes []*Route) *Table {
	return &Table{routes: routes}
}

// Routes returns the compiled routes in stored (discovery) order.
// Callers must not mutate the returned slice.
func (t *Table) Routes() []*Route {
	return t.routes
}

// Len returns the number of compiled routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Match resolves a request method and percent-decoded path against the
// table. Resolution is first-match-wins in discovery order: the first
// route whose segments align and whose method matches takes the request.
// Routes that align in shape but not method feed the 405 Allow list.
func (t *Table) Match(method, path string) MatchResult {
	segs := splitPath(path)
	method = strings.ToUpper(method)

	var allowed []string
	for _, r := range t.routes {
		params, ok := r.match(segs)
		if !ok {
			continue
		}
		if r.Method == method {
			return MatchResult{Kind: MatchFound, Route: r, Params: params}
		}
		if !contains(allowed, r.Method) {
			allowed = append(allowed, r.Method)
		}
	}

	if len(allowed) > 0 {
		sort.Strings(allowed)
		return MatchResult{Kind: MatchMethodNotAllowed, Allowed: allowed}
	}
	return MatchResult{Kind: MatchNotFound}
}

// splitPath breaks a request path into match segments. Leading and
// trailing empty segments are discarded so "/a/b" and "/a/b/" resolve
// identically; interior empty segments are preserved, so they never equal
// a literal segment but are bound by a capture segment like any other.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	for len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
