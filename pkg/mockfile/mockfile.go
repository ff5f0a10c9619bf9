package mockfile

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse errors. Callers that turn parse failures into per-file compile
// diagnostics branch on these with errors.Is.
var (
	ErrUnterminatedFrontmatter = errors.New("frontmatter block is not terminated by a closing '---' line")
	ErrInvalidFrontmatter      = errors.New("frontmatter is not a YAML mapping")
	ErrInvalidStatus           = errors.New("status must be an integer between 100 and 599")
	ErrInvalidHeaderValue      = errors.New("header values must be scalars")
	ErrInvalidDelay            = errors.New("delay must be a non-negative integer")
)

// Header is a single response header. Names compare case-insensitively;
// the slice they live in preserves frontmatter insertion order.
type Header struct {
	Name  string
	Value string
}

// Response is the compiled, immutable response for one mock file.
type Response struct {
	// Status is the HTTP status code, default 200.
	Status int

	// Headers are the response headers in frontmatter insertion order,
	// including the inferred Content-Type when none was authored.
	Headers []Header

	// DelayMS is the artificial response delay in milliseconds.
	DelayMS int

	// Body is the response payload, byte-for-byte as authored.
	Body []byte
}

// Header returns the value of the named header, matching case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// ContentType returns the response's Content-Type header value.
func (r *Response) ContentType() string {
	ct, _ := r.Header("Content-Type")
	return ct
}

// ContentTypeForExtension maps a file extension (with or without the
// leading dot) to the Content-Type inferred for bodies of that kind.
func ContentTypeForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		return "application/json"
	case "html", "htm":
		return "text/html"
	case "xml":
		return "application/xml"
	case "txt":
		return "text/plain"
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	default:
		return "application/octet-stream"
	}
}

// Parse compiles raw mock file content into a Response. ext is the file
// extension used for Content-Type inference when the frontmatter does not
// set one.
func Parse(raw []byte, ext string) (*Response, error) {
	front, body, err := split(raw)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Status: 200,
		Body:   body,
	}

	if len(bytes.TrimSpace(front)) > 0 {
		if err := resp.applyFrontmatter(front); err != nil {
			return nil, err
		}
	}

	if _, ok := resp.Header("Content-Type"); !ok {
		resp.Headers = append(resp.Headers, Header{
			Name:  "Content-Type",
			Value: ContentTypeForExtension(ext),
		})
	}

	return resp, nil
}

// split separates the optional frontmatter block from the body. The body
// is everything after the closing fence line, untrimmed.
func split(raw []byte) (front, body []byte, err error) {
	rest, ok := cutFence(raw)
	if !ok {
		return nil, raw, nil
	}

	// Scan line by line for the closing fence.
	off := 0
	for off < len(rest) {
		end := bytes.IndexByte(rest[off:], '\n')
		var line []byte
		var next int
		if end < 0 {
			line = rest[off:]
			next = len(rest)
		} else {
			line = rest[off : off+end]
			next = off + end + 1
		}
		if isFence(line) {
			return rest[:off], rest[next:], nil
		}
		off = next
	}

	return nil, nil, ErrUnterminatedFrontmatter
}

// cutFence strips a leading "---" fence line, reporting whether one was found.
func cutFence(raw []byte) ([]byte, bool) {
	if !bytes.HasPrefix(raw, []byte("---")) {
		return nil, false
	}
	rest := raw[3:]
	switch {
	case bytes.HasPrefix(rest, []byte("\n")):
		return rest[1:], true
	case bytes.HasPrefix(rest, []byte("\r\n")):
		return rest[2:], true
	default:
		return nil, false
	}
}

// isFence reports whether a line (without its terminating \n) is "---".
func isFence(line []byte) bool {
	line = bytes.TrimSuffix(line, []byte("\r"))
	return bytes.Equal(line, []byte("---"))
}

// applyFrontmatter decodes the recognized frontmatter keys into the
// response. Unknown top-level keys are ignored so authors can annotate
// files without breaking older servers.
func (r *Response) applyFrontmatter(front []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(front, &doc); err != nil {
		return fmt.Errorf("parsing frontmatter: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return ErrInvalidFrontmatter
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		value := root.Content[i+1]

		switch key.Value {
		case "status":
			status, err := intScalar(value)
			if err != nil || status < 100 || status > 599 {
				return fmt.Errorf("%w (got %q)", ErrInvalidStatus, value.Value)
			}
			r.Status = status
		case "headers":
			if err := r.applyHeaders(value); err != nil {
				return err
			}
		case "delay":
			delay, err := intScalar(value)
			if err != nil || delay < 0 {
				return fmt.Errorf("%w (got %q)", ErrInvalidDelay, value.Value)
			}
			r.DelayMS = delay
		}
	}

	return nil
}

// applyHeaders decodes the headers mapping, preserving insertion order.
func (r *Response) applyHeaders(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: headers is not a mapping", ErrInvalidHeaderValue)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i]
		value := node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: header %q", ErrInvalidHeaderValue, name.Value)
		}
		r.Headers = append(r.Headers, Header{Name: name.Value, Value: value.Value})
	}
	return nil
}

// intScalar decodes a scalar node as an integer.
func intScalar(node *yaml.Node) (int, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("not a scalar")
	}
	return strconv.Atoi(node.Value)
}
