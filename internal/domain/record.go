package domain

import "time"

// SchemaVersion is bumped when the persisted record shape changes.
const SchemaVersion = 1

// RecordType is the type discriminator on persisted log records.
const RecordType = "record"

// LogRecord is an accepted Event enriched for durable storage: the receiver
// stamps a receipt time and the store assigns a strictly increasing sequence
// number. Records are immutable once written; one record per line.
type LogRecord struct {
	Type          string         `json:"type"`
	SchemaVersion int            `json:"schemaVersion"`
	Seq           uint64         `json:"seq"`
	ReceivedAt    string         `json:"received_at"` // RFC3339Nano, receiver clock
	HookEventName string         `json:"hook_event_name"`
	SessionID     string         `json:"session_id"`
	Timestamp     string         `json:"timestamp,omitempty"` // caller-supplied, diagnostic only
	Data          map[string]any `json:"data,omitempty"`
}

// NewLogRecord enriches an event into a record. Seq is zero until the store
// assigns it inside its append critical section.
func NewLogRecord(ev *Event, receivedAt time.Time) *LogRecord {
	return &LogRecord{
		Type:          RecordType,
		SchemaVersion: SchemaVersion,
		ReceivedAt:    receivedAt.UTC().Format(time.RFC3339Nano),
		HookEventName: ev.HookEventName,
		SessionID:     ev.SessionID,
		Timestamp:     ev.Timestamp,
		Data:          ev.Data,
	}
}

// EventType returns the record's event type.
func (r *LogRecord) EventType() EventType {
	return EventType(r.HookEventName)
}
