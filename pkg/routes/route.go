package routes

import (
	"strings"

	"github.com/jakobwesthoff/blendwerk/pkg/mockfile"
)

// Segment is one element of a route's path. Either Literal is set (matched
// byte-for-byte) or Capture is set (matches any one segment and binds it).
type Segment struct {
	Literal string
	Capture string
}

// IsCapture reports whether the segment binds a path parameter.
func (s Segment) IsCapture() bool {
	return s.Capture != ""
}

// Route is one compiled (method, path pattern) -> response entry.
type Route struct {
	// Method is the uppercase HTTP method token.
	Method string

	// Segments is the route's path shape relative to the mock root.
	Segments []Segment

	// Response is the compiled response served on a match.
	Response *mockfile.Response

	// SourcePath is the absolute path of the mock file, for diagnostics.
	SourcePath string

	// Pattern is the canonical display form, e.g. "/api/users/:id".
	Pattern string
}

// Param is one captured path parameter, in capture order.
type Param struct {
	Name  string
	Value string
}

// match checks the route's shape against normalized request segments and
// returns the captured parameters on success.
func (r *Route) match(segs []string) ([]Param, bool) {
	if len(segs) != len(r.Segments) {
		return nil, false
	}
	var params []Param
	for i, want := range r.Segments {
		if want.IsCapture() {
			params = append(params, Param{Name: want.Capture, Value: segs[i]})
			continue
		}
		if want.Literal != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// buildPattern renders segments into the canonical ":param" display form.
func buildPattern(segments []Segment) string {
	if len(segments) == 0 {
		return "/"
	}
	parts := make([]string, len(segments))
	for i, s := range segments {
		if s.IsCapture() {
			parts[i] = ":" + s.Capture
		} else {
			parts[i] = s.Literal
		}
	}
	return "/" + strings.Join(parts, "/")
}

// routeKey renders (segments, method) into a collision-detection key.
// Capture segments are marked so a literal ":id" directory cannot collide
// with a [id] capture.
func routeKey(segments []Segment, method string) string {
	var b strings.Builder
	b.WriteString(method)
	for _, s := range segments {
		if s.IsCapture() {
			b.WriteString("\x01[")
			b.WriteString(s.Capture)
		} else {
			b.WriteString("\x01")
			b.WriteString(s.Literal)
		}
	}
	return b.String()
}
