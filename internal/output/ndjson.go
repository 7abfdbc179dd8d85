// Package output renders receiver results as NDJSON (for machine callers)
// or plain text. Every NDJSON object carries a type discriminator and a
// schema version so agents can dispatch without guessing.
package output

import (
	"io"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/hooklog/hooklog/internal/domain"
)

// SchemaVersion is bumped when any NDJSON output shape changes.
const SchemaVersion = 1

// Result is the per-invocation outcome object.
type Result struct {
	Type          string `json:"type"` // "result"
	SchemaVersion int    `json:"schemaVersion"`
	Outcome       string `json:"outcome"` // accepted | rejected | failed
	Seq           uint64 `json:"seq,omitempty"`
	EventType     string `json:"hook_event_name,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Error         string `json:"error,omitempty"`
	LatencyMs     int64  `json:"latency_ms"`
}

// ErrorOutput is a normalized machine-readable failure.
type ErrorOutput struct {
	Type          string `json:"type"` // "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// Stats summarizes the on-disk log.
type Stats struct {
	Type          string           `json:"type"` // "stats"
	SchemaVersion int              `json:"schemaVersion"`
	Records       int              `json:"records"`
	Sessions      int              `json:"sessions"`
	Segments      int              `json:"segments"`
	FirstSeq      uint64           `json:"first_seq,omitempty"`
	LastSeq       uint64           `json:"last_seq,omitempty"`
	TotalBytes    int64            `json:"total_bytes"`
	ByEventType   map[string]int   `json:"by_event_type"`
	SegmentSizes  []map[string]any `json:"segment_sizes,omitempty"`
}

// NDJSONWriter emits one JSON object per line. Safe for concurrent use.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates an NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

// WriteResult writes a result object
func (w *NDJSONWriter) WriteResult(r *Result) error {
	r.Type = "result"
	r.SchemaVersion = SchemaVersion
	return w.write(r)
}

// WriteError writes a normalized error object
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	e := &ErrorOutput{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		e.Hint = hint[0]
	}
	return w.write(e)
}

// WriteRecord writes a stored log record verbatim
func (w *NDJSONWriter) WriteRecord(rec *domain.LogRecord) error {
	return w.write(rec)
}

// WriteStats writes a stats object
func (w *NDJSONWriter) WriteStats(s *Stats) error {
	s.Type = "stats"
	s.SchemaVersion = SchemaVersion
	return w.write(s)
}

// WriteValue writes an arbitrary object; callers own the type field.
func (w *NDJSONWriter) WriteValue(v any) error {
	return w.write(v)
}

func (w *NDJSONWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}
