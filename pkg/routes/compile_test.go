package routes

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeTree creates files under root from a map of relative path -> content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func compileTree(t *testing.T, files map[string]string) (*Table, []Diagnostic) {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, files)
	table, diags, err := Compile(root)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return table, diags
}

func diagKinds(diags []Diagnostic) []DiagKind {
	kinds := make([]DiagKind, len(diags))
	for i, d := range diags {
		kinds[i] = d.Kind
	}
	return kinds
}

func TestCompile_SimpleTree(t *testing.T) {
	table, diags := compileTree(t, map[string]string{
		"api/users/GET.json":  `{"users":[]}`,
		"api/users/post.json": `{"created":true}`,
	})
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}

	patterns := map[string]bool{}
	for _, r := range table.Routes() {
		patterns[r.Method+" "+r.Pattern] = true
	}
	if !patterns["GET /api/users"] || !patterns["POST /api/users"] {
		t.Errorf("routes = %v", patterns)
	}
}

func TestCompile_RootLevelFile(t *testing.T) {
	table, _ := compileTree(t, map[string]string{"GET.txt": "hello"})
	r := table.Routes()[0]
	if r.Pattern != "/" {
		t.Errorf("Pattern = %q, want /", r.Pattern)
	}
	if len(r.Segments) != 0 {
		t.Errorf("Segments = %v, want empty", r.Segments)
	}
}

func TestCompile_CaptureSegments(t *testing.T) {
	table, diags := compileTree(t, map[string]string{
		"users/[id]/GET.json":                `{"id":"X"}`,
		"users/[id]/posts/[post_id]/GET.json": `{}`,
	})
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}

	var patterns []string
	for _, r := range table.Routes() {
		patterns = append(patterns, r.Pattern)
	}
	want := []string{"/users/:id", "/users/:id/posts/:post_id"}
	if !reflect.DeepEqual(patterns, want) {
		t.Errorf("patterns = %v, want %v", patterns, want)
	}
}

func TestCompile_BadBracketNames(t *testing.T) {
	table, diags := compileTree(t, map[string]string{
		"a/[]/GET.json":    "{}",
		"b/[1id]/GET.json": "{}",
		"c/[id/GET.json":   "{}",
	})

	// All three become literal segments with a diagnostic each.
	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3 literal routes", table.Len())
	}
	kinds := diagKinds(diags)
	if len(kinds) != 3 {
		t.Fatalf("diags = %v, want 3", diags)
	}
	for _, k := range kinds {
		if k != DiagBadBracketName {
			t.Errorf("kind = %v, want DiagBadBracketName", k)
		}
	}

	res := table.Match("GET", "/a/[]")
	if res.Kind != MatchFound {
		t.Error("literal bracket directory should match verbatim")
	}
	if res := table.Match("GET", "/a/anything"); res.Kind == MatchFound {
		t.Error("bad bracket name must not act as a capture")
	}
}

func TestCompile_UnknownMethod(t *testing.T) {
	table, diags := compileTree(t, map[string]string{
		"api/GET.json":   "{}",
		"api/FETCH.json": "{}",
	})
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}
	if kinds := diagKinds(diags); len(kinds) != 1 || kinds[0] != DiagUnknownMethod {
		t.Errorf("diags = %v", diags)
	}
}

func TestCompile_IgnoresNonMockFiles(t *testing.T) {
	table, diags := compileTree(t, map[string]string{
		"api/GET.json":       "{}",
		"api/README":         "notes",
		"api/GET.backup.json": "{}",
		"api/.gitignore":     "*",
	})
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}
	if len(diags) != 0 {
		t.Errorf("diags = %v, want none", diags)
	}
}

func TestCompile_ParseFailureDiagnostics(t *testing.T) {
	table, diags := compileTree(t, map[string]string{
		"bad/GET.json":  "---\nstatus: 9000\n---\n{}",
		"open/GET.json": "---\nstatus: 200",
		"ok/GET.json":   "{}",
	})
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want only the valid route", table.Len())
	}

	found := map[DiagKind]bool{}
	for _, d := range diags {
		found[d.Kind] = true
	}
	if !found[DiagInvalidStatus] || !found[DiagUnterminatedFrontmatter] {
		t.Errorf("diags = %v", diags)
	}
}

func TestCompile_DuplicateRouteFirstWins(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"api/GET.json": `{"first":true}`,
		"api/get.txt":  "second",
	})
	table, diags, err := Compile(root)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}
	if kinds := diagKinds(diags); len(kinds) != 1 || kinds[0] != DiagDuplicateRoute {
		t.Fatalf("diags = %v", diags)
	}

	// Lexicographic walk order: GET.json sorts before get.txt, so it wins.
	r := table.Routes()[0]
	if string(r.Response.Body) != `{"first":true}` {
		t.Errorf("kept route body = %q, want the first-encountered file", r.Response.Body)
	}
}

func TestCompile_DeterministicOrder(t *testing.T) {
	files := map[string]string{
		"b/GET.json": "{}",
		"a/GET.json": "{}",
		"c/GET.json": "{}",
		"a/z/GET.json": "{}",
	}

	root := t.TempDir()
	writeTree(t, root, files)
	first, _, err := Compile(root)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Compile(root)
	if err != nil {
		t.Fatal(err)
	}

	var order []string
	for _, r := range first.Routes() {
		order = append(order, r.Pattern)
	}
	want := []string{"/a", "/a/z", "/b", "/c"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	// Idempotence: an unchanged tree compiles to an equal table.
	if !reflect.DeepEqual(first.Routes(), second.Routes()) {
		t.Error("recompiling an unchanged tree must yield an equal table")
	}
}

func TestCompile_RootMissing(t *testing.T) {
	_, _, err := Compile(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrRootMissing) {
		t.Fatalf("err = %v, want ErrRootMissing", err)
	}
}

func TestCompile_RootNotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := Compile(file)
	if !errors.Is(err, ErrRootNotDirectory) {
		t.Fatalf("err = %v, want ErrRootNotDirectory", err)
	}
}
