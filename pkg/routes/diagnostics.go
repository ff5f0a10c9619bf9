package routes

import (
	"errors"
	"fmt"

	"github.com/jakobwesthoff/blendwerk/pkg/mockfile"
)

// Fatal compile errors. Unlike diagnostics these abort the whole scan;
// on a hot reload the previous table stays in force.
var (
	ErrRootMissing      = errors.New("mock root directory does not exist")
	ErrRootNotDirectory = errors.New("mock root is not a directory")
)

// DiagKind classifies a non-fatal compile diagnostic.
type DiagKind string

// Diagnostic kinds.
const (
	DiagUnterminatedFrontmatter DiagKind = "unterminated-frontmatter"
	DiagInvalidStatus           DiagKind = "invalid-status"
	DiagInvalidHeaderValue      DiagKind = "invalid-header-value"
	DiagInvalidDelay            DiagKind = "invalid-delay"
	DiagUnknownMethod           DiagKind = "unknown-method"
	DiagBadBracketName          DiagKind = "bad-bracket-name"
	DiagDuplicateRoute          DiagKind = "duplicate-route"
	DiagUnreadableFile          DiagKind = "unreadable-file"
	DiagParseFailure            DiagKind = "parse-failure"
)

// Diagnostic is a non-fatal problem found while compiling one tree entry.
// An offending file is skipped, except that a directory with a bad bracket
// name is kept as a literal segment; the rest of the scan proceeds.
type Diagnostic struct {
	Kind   DiagKind
	Path   string
	Detail string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Path, d.Detail)
}

// classifyParseError maps a mockfile parse error onto a diagnostic kind.
func classifyParseError(err error) DiagKind {
	switch {
	case errors.Is(err, mockfile.ErrUnterminatedFrontmatter):
		return DiagUnterminatedFrontmatter
	case errors.Is(err, mockfile.ErrInvalidStatus):
		return DiagInvalidStatus
	case errors.Is(err, mockfile.ErrInvalidHeaderValue):
		return DiagInvalidHeaderValue
	case errors.Is(err, mockfile.ErrInvalidDelay):
		return DiagInvalidDelay
	default:
		return DiagParseFailure
	}
}
