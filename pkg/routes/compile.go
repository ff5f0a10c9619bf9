package routes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jakobwesthoff/blendwerk/pkg/mockfile"
)

// methodTokens maps lowercase filename stems to HTTP method tokens.
var methodTokens = map[string]string{
	"get":     "GET",
	"post":    "POST",
	"put":     "PUT",
	"delete":  "DELETE",
	"patch":   "PATCH",
	"head":    "HEAD",
	"options": "OPTIONS",
}

// captureName validates the identifier inside a [param] directory name.
var captureName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Compile walks root and produces a route table plus non-fatal diagnostics.
// The walk is depth-first with entries visited in lexicographic byte order,
// so the resulting route order is deterministic across platforms.
func Compile(root string) (*Table, []Diagnostic, error) {
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil, fmt.Errorf("%w: %s", ErrRootMissing, root)
	case err != nil:
		return nil, nil, fmt.Errorf("stat mock root: %w", err)
	case !info.IsDir():
		return nil, nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	c := &compiler{seen: make(map[string]string)}
	if err := c.walkDir(root, nil); err != nil {
		return nil, nil, err
	}
	return newTable(c.routes), c.diags, nil
}

type compiler struct {
	routes []*Route
	diags  []Diagnostic
	seen   map[string]string // route key -> first source path
}

func (c *compiler) walkDir(dir string, segments []Segment) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// The directory vanished mid-scan (reload race). Skip it; the
		// next filesystem event triggers a rescan anyway.
		c.diags = append(c.diags, Diagnostic{
			Kind:   DiagUnreadableFile,
			Path:   dir,
			Detail: err.Error(),
		})
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			seg := c.dirSegment(path, entry.Name())
			if err := c.walkDir(path, append(segments, seg)); err != nil {
				return err
			}
			continue
		}
		if entry.Type().IsRegular() {
			c.addFile(path, entry.Name(), segments)
		}
	}
	return nil
}

// dirSegment classifies a directory name as a capture or literal segment.
func (c *compiler) dirSegment(path, name string) Segment {
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") && len(name) > 2 {
		inner := name[1 : len(name)-1]
		if captureName.MatchString(inner) {
			return Segment{Capture: inner}
		}
	}
	if strings.ContainsAny(name, "[]") {
		c.diags = append(c.diags, Diagnostic{
			Kind:   DiagBadBracketName,
			Path:   path,
			Detail: fmt.Sprintf("%q is not a valid capture name, treating it as a literal segment", name),
		})
	}
	return Segment{Literal: name}
}

// addFile compiles one <METHOD>.<EXT> file into a route.
func (c *compiler) addFile(path, name string, segments []Segment) {
	stem, ext, ok := splitName(name)
	if !ok {
		// Not shaped like a mock file (no dot, several dots, or an empty
		// stem); such neighbors are ignored without a diagnostic. A one-dot
		// name like README.md does qualify and is reported as an unknown
		// method below.
		return
	}

	method, ok := methodTokens[strings.ToLower(stem)]
	if !ok {
		c.diags = append(c.diags, Diagnostic{
			Kind:   DiagUnknownMethod,
			Path:   path,
			Detail: fmt.Sprintf("%q is not an HTTP method", stem),
		})
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		c.diags = append(c.diags, Diagnostic{
			Kind:   DiagUnreadableFile,
			Path:   path,
			Detail: err.Error(),
		})
		return
	}

	resp, err := mockfile.Parse(raw, ext)
	if err != nil {
		c.diags = append(c.diags, Diagnostic{
			Kind:   classifyParseError(err),
			Path:   path,
			Detail: err.Error(),
		})
		return
	}

	segs := make([]Segment, len(segments))
	copy(segs, segments)

	key := routeKey(segs, method)
	if first, dup := c.seen[key]; dup {
		c.diags = append(c.diags, Diagnostic{
			Kind:   DiagDuplicateRoute,
			Path:   path,
			Detail: fmt.Sprintf("same method and path as %s, keeping the first", first),
		})
		return
	}
	c.seen[key] = path

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	c.routes = append(c.routes, &Route{
		Method:     method,
		Segments:   segs,
		Response:   resp,
		SourcePath: abs,
		Pattern:    buildPattern(segs),
	})
}

// splitName splits "<METHOD>.<EXT>" filenames. Names with zero or more
// than one dot, or an empty stem, do not qualify as mock files.
func splitName(name string) (stem, ext string, ok bool) {
	if strings.Count(name, ".") != 1 {
		return "", "", false
	}
	stem, ext, _ = strings.Cut(name, ".")
	if stem == "" {
		return "", "", false
	}
	return stem, ext, true
}
