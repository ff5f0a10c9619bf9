// Package mockfile parses individual mock files into compiled responses.
//
// A mock file is UTF-8 text with an optional YAML frontmatter block fenced
// by lines containing only "---" at the top of the file:
//
//	---
//	status: 401
//	headers:
//	  WWW-Authenticate: Bearer realm="api"
//	delay: 50
//	---
//	{"error": "unauthorized"}
//
// Everything after the closing fence is the response body, verbatim. Files
// without a frontmatter block are served as-is with status 200. When the
// frontmatter sets no Content-Type header, one is inferred from the file
// extension.
package mockfile
