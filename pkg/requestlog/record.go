package requestlog

import (
	"encoding/base64"
	"strings"
	"time"
	"unicode/utf8"
)

// Record captures one complete request/response exchange. The field set is
// identical across the JSON and YAML serializations.
type Record struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Request  Request  `json:"request" yaml:"request"`
	Response Response `json:"response" yaml:"response"`
}

// Metadata identifies the exchange.
type Metadata struct {
	// Timestamp is ISO-8601 UTC with microsecond precision.
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	// RequestID is the ULID minted for this request.
	RequestID string `json:"request_id" yaml:"request_id"`
}

// Request is the client side of the exchange.
type Request struct {
	Method string `json:"method" yaml:"method"`

	// URI is the full request-target as received, query included.
	URI string `json:"uri" yaml:"uri"`

	// Path is the percent-decoded path component.
	Path string `json:"path" yaml:"path"`

	// Query is the raw query string, null when the request had none.
	Query *string `json:"query" yaml:"query"`

	Headers map[string]string `json:"headers" yaml:"headers"`

	// Body is the request payload, null when empty. Non-UTF-8 payloads
	// are base64-encoded with BodyEncoding set to "base64".
	Body         *string `json:"body" yaml:"body"`
	BodyEncoding string  `json:"body_encoding,omitempty" yaml:"body_encoding,omitempty"`

	// MatchedRoute is the pattern of the route that served the request,
	// e.g. "/api/users/:id", or null when nothing matched.
	MatchedRoute *string `json:"matched_route" yaml:"matched_route"`
}

// Response is the server side of the exchange.
type Response struct {
	Status       int               `json:"status" yaml:"status"`
	Headers      map[string]string `json:"headers" yaml:"headers"`
	Body         string            `json:"body" yaml:"body"`
	BodyEncoding string            `json:"body_encoding,omitempty" yaml:"body_encoding,omitempty"`
	DelayMS      int               `json:"delay_ms" yaml:"delay_ms"`
}

// Timestamp renders t as ISO-8601 UTC with microsecond precision, e.g.
// "2025-01-28T15:30:45.123456Z".
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

// filenameTimestamp converts a Timestamp value into its filename-safe
// form, with colons replaced by hyphens.
func filenameTimestamp(ts string) string {
	return strings.ReplaceAll(ts, ":", "-")
}

// EncodeBody prepares a payload for serialization. Valid UTF-8 is passed
// through; anything else is base64-encoded and flagged via the returned
// encoding ("base64").
func EncodeBody(body []byte) (value, encoding string) {
	if utf8.Valid(body) {
		return string(body), ""
	}
	return base64.StdEncoding.EncodeToString(body), "base64"
}
