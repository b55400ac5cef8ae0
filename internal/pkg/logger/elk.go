// internal/pkg/logger/elk.go
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ELKConfig holds configuration for Elasticsearch log shipping
type ELKConfig struct {
	Addresses     []string
	Username      string
	Password      string
	IndexPattern  string // daily indices are named <pattern>-YYYY.MM.DD
	BatchSize     int
	FlushInterval time.Duration
	Level         slog.Level
	Service       string
	Environment   string
}

// LogEntry represents a log document in Elasticsearch
type LogEntry struct {
	Timestamp   time.Time              `json:"@timestamp"`
	Level       string                 `json:"level"`
	Message     string                 `json:"message"`
	Service     string                 `json:"service,omitempty"`
	Environment string                 `json:"environment,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
	TraceID     string                 `json:"trace_id,omitempty"`
	UserEmail   string                 `json:"user_email,omitempty"`
	ClientIP    string                 `json:"client_ip,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// elkShipper owns the buffer shared by every handler derived from one ELKHandler
type elkShipper struct {
	client *elasticsearch.Client
	config ELKConfig
	mu     sync.Mutex
	buffer []LogEntry
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// ELKHandler batches records and sends them to the Elasticsearch _bulk API
type ELKHandler struct {
	shipper *elkShipper
	attrs   []slog.Attr
	prefix  string
}

// NewELKHandler creates a new ELK handler and starts its flusher
func NewELKHandler(cfg ELKConfig) (*ELKHandler, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.IndexPattern == "" {
		cfg.IndexPattern = "stocks-logs"
	}

	s := &elkShipper{
		client: client,
		config: cfg,
		buffer: make([]LogEntry, 0, cfg.BatchSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()

	return &ELKHandler{shipper: s}, nil
}

func (h *ELKHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.shipper.config.Level
}

func (h *ELKHandler) Handle(ctx context.Context, record slog.Record) error {
	entry := h.createLogEntry(ctx, record)

	s := h.shipper
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	full := len(s.buffer) >= s.config.BatchSize
	s.mu.Unlock()

	if full {
		go s.flush(context.Background())
	}
	return nil
}

func (h *ELKHandler) createLogEntry(ctx context.Context, record slog.Record) LogEntry {
	entry := LogEntry{
		Timestamp:   record.Time.UTC(),
		Level:       record.Level.String(),
		Message:     record.Message,
		Service:     h.shipper.config.Service,
		Environment: h.shipper.config.Environment,
		Fields:      make(map[string]interface{}),
	}

	add := func(a slog.Attr) bool {
		key := h.prefix + a.Key
		switch key {
		case string(ContextKeyRequestID):
			entry.RequestID = a.Value.String()
		case string(ContextKeyTraceID):
			entry.TraceID = a.Value.String()
		case string(ContextKeyUserEmail):
			entry.UserEmail = a.Value.String()
		case string(ContextKeyClientIP):
			entry.ClientIP = a.Value.String()
		case string(ContextKeyMethod):
			entry.Method = a.Value.String()
		case string(ContextKeyPath):
			entry.Path = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			entry.Fields[key] = a.Value.Resolve().Any()
		}
		return true
	}

	for _, a := range h.attrs {
		entry.Fields[a.Key] = a.Value.Resolve().Any()
	}
	record.Attrs(add)

	// Context values are attached by ContextHandler; read them directly when
	// this handler is used on its own.
	if entry.RequestID == "" {
		entry.RequestID = RequestID(ctx)
	}
	if entry.UserEmail == "" {
		entry.UserEmail = contextString(ctx, ContextKeyUserEmail)
	}

	return entry
}

func (h *ELKHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

func (h *ELKHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// Close stops the flusher and sends whatever is still buffered
func (h *ELKHandler) Close(ctx context.Context) error {
	s := h.shipper
	s.once.Do(func() { close(s.stop) })

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.flush(ctx)
}

func (s *elkShipper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.flush(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *elkShipper) flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return nil
	}
	entries := s.buffer
	s.buffer = make([]LogEntry, 0, s.config.BatchSize)
	s.mu.Unlock()

	body, err := encodeBulk(s.config.IndexPattern, entries)
	if err != nil {
		return err
	}

	res, err := s.client.Bulk(bytes.NewReader(body), s.client.Bulk.WithContext(ctx))
	if err != nil {
		// The logger cannot log its own failures.
		fmt.Fprintf(os.Stderr, "failed to ship %d log entries to elasticsearch: %v\n", len(entries), err)
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.IsError() {
		fmt.Fprintf(os.Stderr, "elasticsearch bulk request failed: %s\n", res.Status())
		return fmt.Errorf("elasticsearch bulk request failed: %s", res.Status())
	}
	return nil
}

func encodeBulk(indexPattern string, entries []LogEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, entry := range entries {
		meta := map[string]map[string]string{
			"index": {"_index": fmt.Sprintf("%s-%s", indexPattern, entry.Timestamp.Format("2006.01.02"))},
		}
		if err := enc.Encode(meta); err != nil {
			return nil, fmt.Errorf("failed to encode bulk metadata: %w", err)
		}
		if err := enc.Encode(entry); err != nil {
			return nil, fmt.Errorf("failed to encode log entry: %w", err)
		}
	}
	return buf.Bytes(), nil
}
