package mockfile

import (
	"errors"
	"testing"
)

func TestParse_NoFrontmatter(t *testing.T) {
	body := "{\"users\":[]}\n"
	resp, err := Parse([]byte(body), "json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if resp.DelayMS != 0 {
		t.Errorf("DelayMS = %d, want 0", resp.DelayMS)
	}
	if string(resp.Body) != body {
		t.Errorf("Body = %q, want %q", resp.Body, body)
	}
	if got := resp.ContentType(); got != "application/json" {
		t.Errorf("ContentType = %q", got)
	}
}

func TestParse_FullFrontmatter(t *testing.T) {
	raw := `---
status: 401
headers:
  WWW-Authenticate: Bearer realm="api"
  X-Request-Cost: 3
delay: 50
---
{"error":"unauthorized"}`

	resp, err := Parse([]byte(raw), "json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Status != 401 {
		t.Errorf("Status = %d, want 401", resp.Status)
	}
	if resp.DelayMS != 50 {
		t.Errorf("DelayMS = %d, want 50", resp.DelayMS)
	}
	if string(resp.Body) != `{"error":"unauthorized"}` {
		t.Errorf("Body = %q", resp.Body)
	}

	// Authored headers keep insertion order; inferred Content-Type is appended.
	want := []Header{
		{"WWW-Authenticate", `Bearer realm="api"`},
		{"X-Request-Cost", "3"},
		{"Content-Type", "application/json"},
	}
	if len(resp.Headers) != len(want) {
		t.Fatalf("Headers = %v", resp.Headers)
	}
	for i, h := range want {
		if resp.Headers[i] != h {
			t.Errorf("Headers[%d] = %v, want %v", i, resp.Headers[i], h)
		}
	}
}

func TestParse_ContentTypeOverride(t *testing.T) {
	raw := "---\nheaders:\n  content-type: text/csv\n---\na,b,c"
	resp, err := Parse([]byte(raw), "json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(resp.Headers) != 1 {
		t.Fatalf("Headers = %v, want only the authored content-type", resp.Headers)
	}
	if got := resp.ContentType(); got != "text/csv" {
		t.Errorf("ContentType = %q, want text/csv", got)
	}
}

func TestParse_BodyVerbatim(t *testing.T) {
	raw := "---\nstatus: 200\n---\n\n  indented\ntrailing  \n"
	resp, err := Parse([]byte(raw), "txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(resp.Body) != "\n  indented\ntrailing  \n" {
		t.Errorf("Body = %q, trimming must not happen", resp.Body)
	}
}

func TestParse_EmptyFrontmatter(t *testing.T) {
	resp, err := Parse([]byte("---\n---\nbody"), "txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Status != 200 || string(resp.Body) != "body" {
		t.Errorf("got status=%d body=%q", resp.Status, resp.Body)
	}
}

func TestParse_CRLF(t *testing.T) {
	resp, err := Parse([]byte("---\r\nstatus: 204\r\n---\r\n"), "txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Status != 204 {
		t.Errorf("Status = %d, want 204", resp.Status)
	}
	if len(resp.Body) != 0 {
		t.Errorf("Body = %q, want empty", resp.Body)
	}
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	_, err := Parse([]byte("---\nstatus: 404"), "json")
	if !errors.Is(err, ErrUnterminatedFrontmatter) {
		t.Fatalf("err = %v, want ErrUnterminatedFrontmatter", err)
	}
}

func TestParse_DashesWithoutNewlineIsBody(t *testing.T) {
	resp, err := Parse([]byte("---"), "txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(resp.Body) != "---" {
		t.Errorf("Body = %q, want literal dashes", resp.Body)
	}
}

func TestParse_InvalidStatus(t *testing.T) {
	for _, raw := range []string{
		"---\nstatus: 99\n---\n",
		"---\nstatus: 600\n---\n",
		"---\nstatus: teapot\n---\n",
	} {
		_, err := Parse([]byte(raw), "json")
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidStatus", raw, err)
		}
	}
}

func TestParse_InvalidDelay(t *testing.T) {
	_, err := Parse([]byte("---\ndelay: -5\n---\n"), "json")
	if !errors.Is(err, ErrInvalidDelay) {
		t.Fatalf("err = %v, want ErrInvalidDelay", err)
	}
}

func TestParse_InvalidHeaderValue(t *testing.T) {
	raw := "---\nheaders:\n  X-List:\n    - a\n    - b\n---\n"
	_, err := Parse([]byte(raw), "json")
	if !errors.Is(err, ErrInvalidHeaderValue) {
		t.Fatalf("err = %v, want ErrInvalidHeaderValue", err)
	}
}

func TestParse_ScalarHeaderCoercion(t *testing.T) {
	raw := "---\nheaders:\n  X-Int: 42\n  X-Bool: true\n  X-Float: 1.5\n---\n"
	resp, err := Parse([]byte(raw), "txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, want := range []Header{{"X-Int", "42"}, {"X-Bool", "true"}, {"X-Float", "1.5"}} {
		got, ok := resp.Header(want.Name)
		if !ok || got != want.Value {
			t.Errorf("Header(%q) = %q, %v; want %q", want.Name, got, ok, want.Value)
		}
	}
}

func TestParse_UnknownKeysIgnored(t *testing.T) {
	raw := "---\nstatus: 201\ndescription: created thing\n---\nok"
	resp, err := Parse([]byte(raw), "txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Status != 201 {
		t.Errorf("Status = %d", resp.Status)
	}
}

func TestContentTypeForExtension(t *testing.T) {
	cases := map[string]string{
		"json":  "application/json",
		".json": "application/json",
		"html":  "text/html",
		"htm":   "text/html",
		"xml":   "application/xml",
		"txt":   "text/plain",
		"css":   "text/css",
		"js":    "application/javascript",
		"bin":   "application/octet-stream",
		"":      "application/octet-stream",
	}
	for ext, want := range cases {
		if got := ContentTypeForExtension(ext); got != want {
			t.Errorf("ContentTypeForExtension(%q) = %q, want %q", ext, got, want)
		}
	}
}
