package engine

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jakobwesthoff/blendwerk/internal/id"
	"github.com/jakobwesthoff/blendwerk/pkg/httputil"
	"github.com/jakobwesthoff/blendwerk/pkg/logging"
	"github.com/jakobwesthoff/blendwerk/pkg/requestlog"
	"github.com/jakobwesthoff/blendwerk/pkg/routes"
)

// MaxLoggedBodySize bounds how much of a request body is captured for the
// request log.
const MaxLoggedBodySize = 10 << 20 // 10MB

// TableSource supplies the route table snapshot for one request.
type TableSource interface {
	Current() *routes.Table
}

// Dispatcher answers HTTP requests from the current route table and feeds
// the request log pipeline.
type Dispatcher struct {
	tables   TableSource
	logs     *requestlog.Writer // nil when request logging is disabled
	log      *slog.Logger
	shutdown <-chan struct{} // closed when the server begins shutting down
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRequestLog enables request logging through the given writer.
func WithRequestLog(w *requestlog.Writer) DispatcherOption {
	return func(d *Dispatcher) {
		d.logs = w
	}
}

// WithDispatcherLogger sets the operational logger.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithShutdownSignal wires the channel closed at shutdown. A delayed
// response interrupted by it answers 503 instead of sleeping on.
func WithShutdownSignal(ch <-chan struct{}) DispatcherOption {
	return func(d *Dispatcher) {
		d.shutdown = ch
	}
}

// NewDispatcher creates a Dispatcher reading tables from source.
func NewDispatcher(source TableSource, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tables: source,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// sentResponse records what was actually written, for the request log.
type sentResponse struct {
	status  int
	headers map[string]string
	body    []byte
	delayMS int
}

// ServeHTTP resolves the request against one table snapshot, writes the
// response, and enqueues a log record once the response is committed.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Capture the request body up front when logging is on; the match
	// itself never looks at bodies.
	var reqBody []byte
	if d.logs != nil && r.Body != nil {
		reqBody, _ = io.ReadAll(io.LimitReader(r.Body, MaxLoggedBodySize))
	}

	table := d.tables.Current()
	result := table.Match(r.Method, r.URL.Path)

	var sent sentResponse
	switch result.Kind {
	case routes.MatchFound:
		resp := result.Route.Response
		if resp.DelayMS > 0 && !d.sleep(r, resp.DelayMS) {
			if r.Context().Err() != nil {
				// Client went away mid-delay; nothing to answer or log.
				return
			}
			httputil.WriteServiceUnavailable(w)
			sent = sentResponse{
				status:  http.StatusServiceUnavailable,
				headers: map[string]string{"content-type": "text/plain"},
				body:    []byte("Service Unavailable"),
			}
			break
		}
		sent = writeCompiled(w, result.Route)
	case routes.MatchMethodNotAllowed:
		httputil.WriteMethodNotAllowed(w, result.Allowed)
		sent = sentResponse{
			status:  http.StatusMethodNotAllowed,
			headers: map[string]string{"allow": strings.Join(result.Allowed, ", ")},
		}
	case routes.MatchNotFound:
		httputil.WriteNotFound(w)
		sent = sentResponse{
			status:  http.StatusNotFound,
			headers: map[string]string{"content-type": "text/plain"},
			body:    []byte("Not Found"),
		}
	}

	d.logExchange(r, result, sent, reqBody, start)
}

// sleep pauses for the route's artificial delay. It returns false when
// the delay was cut short by shutdown or by the client disconnecting.
func (d *Dispatcher) sleep(r *http.Request, delayMS int) bool {
	timer := time.NewTimer(time.Duration(delayMS) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	case <-d.shutdown:
		return false
	}
}

// writeCompiled emits a compiled response: authored status, headers in
// insertion order with the inferred Content-Type unless overridden, and
// the body verbatim with an explicit Content-Length.
func writeCompiled(w http.ResponseWriter, route *routes.Route) sentResponse {
	resp := route.Response

	logged := make(map[string]string, len(resp.Headers))
	for _, h := range resp.Headers {
		w.Header().Set(h.Name, h.Value)
		logged[strings.ToLower(h.Name)] = h.Value
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))

	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)

	return sentResponse{
		status:  resp.Status,
		headers: logged,
		body:    resp.Body,
		delayMS: resp.DelayMS,
	}
}

// logExchange assembles the log record after the response is committed.
// Failures here never surface to the client.
func (d *Dispatcher) logExchange(r *http.Request, result routes.MatchResult, sent sentResponse, reqBody []byte, start time.Time) {
	if d.logs == nil {
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ", ")
	}

	var query *string
	if r.URL.RawQuery != "" {
		q := r.URL.RawQuery
		query = &q
	}

	var body *string
	var bodyEncoding string
	if len(reqBody) > 0 {
		value, enc := requestlog.EncodeBody(reqBody)
		body = &value
		bodyEncoding = enc
	}

	var matchedRoute *string
	if result.Kind == routes.MatchFound {
		pattern := result.Route.Pattern
		matchedRoute = &pattern
	}

	respBody, respEncoding := requestlog.EncodeBody(sent.body)

	d.logs.Enqueue(&requestlog.Record{
		Metadata: requestlog.Metadata{
			Timestamp: requestlog.Timestamp(start),
			RequestID: id.ULID(),
		},
		Request: requestlog.Request{
			Method:       r.Method,
			URI:          r.URL.RequestURI(),
			Path:         r.URL.Path,
			Query:        query,
			Headers:      headers,
			Body:         body,
			BodyEncoding: bodyEncoding,
			MatchedRoute: matchedRoute,
		},
		Response: requestlog.Response{
			Status:       sent.status,
			Headers:      sent.headers,
			Body:         respBody,
			BodyEncoding: respEncoding,
			DelayMS:      sent.delayMS,
		},
	})
}
