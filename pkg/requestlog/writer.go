package requestlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/jakobwesthoff/blendwerk/pkg/logging"
)

// Format selects the on-disk serialization.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format string from configuration.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown request log format %q (want json or yaml)", s)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Marshal serializes a record in the format.
func (f Format) Marshal(rec *Record) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(rec)
	}
	return json.MarshalIndent(rec, "", "  ")
}

// DefaultQueueCapacity bounds the number of records awaiting a disk worker.
const DefaultQueueCapacity = 1024

// Writer serializes records to a mirror directory tree asynchronously.
// Enqueue never blocks; Close drains the queue.
type Writer struct {
	root   string
	format Format
	log    *slog.Logger

	queue     chan *Record
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool

	dropped       atomic.Uint64
	writeFailures atomic.Uint64
	dropLogOnce   sync.Once
}

// WriterOption customizes a Writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	log      *slog.Logger
	capacity int
	workers  int
}

// WithLogger sets the operational logger for queue and write diagnostics.
func WithLogger(log *slog.Logger) WriterOption {
	return func(c *writerConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithQueueCapacity overrides the bounded queue capacity.
func WithQueueCapacity(n int) WriterOption {
	return func(c *writerConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithWorkers sets the number of disk worker goroutines.
func WithWorkers(n int) WriterOption {
	return func(c *writerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewWriter creates a Writer rooted at root and starts its workers.
func NewWriter(root string, format Format, opts ...WriterOption) *Writer {
	cfg := writerConfig{
		log:      logging.Nop(),
		capacity: DefaultQueueCapacity,
		workers:  1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Writer{
		root:   root,
		format: format,
		log:    cfg.log,
		queue:  make(chan *Record, cfg.capacity),
	}

	for i := 0; i < cfg.workers; i++ {
		w.wg.Add(1)
		go w.worker()
	}

	return w
}

// Enqueue hands a record to the disk workers without blocking. When the
// queue is full the oldest pending record is dropped in its favor.
func (w *Writer) Enqueue(rec *Record) {
	if rec == nil || w.closed.Load() {
		return
	}

	select {
	case w.queue <- rec:
		return
	default:
	}

	// Queue full: make room by discarding the oldest pending record.
	select {
	case <-w.queue:
		w.noteDrop()
	default:
	}

	select {
	case w.queue <- rec:
	default:
		w.noteDrop()
	}
}

// Close stops accepting records, drains the queue, and waits for the
// workers to finish their writes. Producers must have stopped before
// Close is called; the server shuts its listeners down first.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		close(w.queue)
	})
	w.wg.Wait()
}

// Dropped returns how many records were discarded due to queue overflow.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// WriteFailures returns how many records failed to reach disk.
func (w *Writer) WriteFailures() uint64 {
	return w.writeFailures.Load()
}

func (w *Writer) noteDrop() {
	w.dropped.Add(1)
	w.dropLogOnce.Do(func() {
		w.log.Warn("request log queue full, dropping oldest records",
			"capacity", cap(w.queue))
	})
}

func (w *Writer) worker() {
	defer w.wg.Done()
	for rec := range w.queue {
		if err := w.write(rec); err != nil {
			w.writeFailures.Add(1)
			w.log.Error("failed to write request log", "error", err)
		}
	}
}

// write serializes one record into the mirror tree. A record is never
// retried: a failed write is counted and reported, nothing more.
func (w *Writer) write(rec *Record) error {
	dir := w.recordDir(rec)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	data, err := w.format.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serializing record %s: %w", rec.Metadata.RequestID, err)
	}

	base := fmt.Sprintf("%s_%s", filenameTimestamp(rec.Metadata.Timestamp), rec.Metadata.RequestID)
	ext := w.format.Extension()

	// Create-new semantics; on a name collision append -1, -2, ...
	name := filepath.Join(dir, base+"."+ext)
	for attempt := 1; ; attempt++ {
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			name = filepath.Join(dir, fmt.Sprintf("%s-%d.%s", base, attempt, ext))
			continue
		}
		if err != nil {
			return fmt.Errorf("creating log file: %w", err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("writing log file: %w", werr)
		}
		if cerr != nil {
			return fmt.Errorf("closing log file: %w", cerr)
		}
		return nil
	}
}

// recordDir builds <root>/<path-as-dirs>/<METHOD> with each segment
// sanitized against path traversal.
func (w *Writer) recordDir(rec *Record) string {
	parts := []string{w.root}
	for _, seg := range strings.Split(strings.Trim(rec.Request.Path, "/"), "/") {
		if seg == "" {
			continue
		}
		parts = append(parts, sanitizeSegment(seg))
	}
	parts = append(parts, sanitizeSegment(strings.ToUpper(rec.Request.Method)))
	return filepath.Join(parts...)
}

// sanitizeSegment neutralizes segments that could escape the log root.
func sanitizeSegment(seg string) string {
	if seg == "." || seg == ".." ||
		strings.ContainsAny(seg, "/\x00") || strings.ContainsRune(seg, os.PathSeparator) {
		return "_"
	}
	return seg
}
