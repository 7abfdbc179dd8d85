package domain

// EventType identifies one kind of lifecycle hook event.
type EventType string

// The closed set of event types the receiver accepts. Anything else is a
// validation failure, never a crash.
const (
	EventSessionStart     EventType = "SessionStart"
	EventUserPromptSubmit EventType = "UserPromptSubmit"
	EventNotification     EventType = "Notification"
	EventPreToolUse       EventType = "PreToolUse"
	EventPostToolUse      EventType = "PostToolUse"
	EventPreCompact       EventType = "PreCompact"
	EventStop             EventType = "Stop"
	EventSubagentStop     EventType = "SubagentStop"
	EventSessionEnd       EventType = "SessionEnd"
)

// eventTypes is the membership set; order in EventTypes() is the documented one.
var eventTypes = map[EventType]struct{}{
	EventSessionStart:     {},
	EventUserPromptSubmit: {},
	EventNotification:     {},
	EventPreToolUse:       {},
	EventPostToolUse:      {},
	EventPreCompact:       {},
	EventStop:             {},
	EventSubagentStop:     {},
	EventSessionEnd:       {},
}

// EventTypes returns every accepted event type in a stable order.
func EventTypes() []EventType {
	return []EventType{
		EventSessionStart,
		EventUserPromptSubmit,
		EventNotification,
		EventPreToolUse,
		EventPostToolUse,
		EventPreCompact,
		EventStop,
		EventSubagentStop,
		EventSessionEnd,
	}
}

// Known reports whether t is a member of the closed event-type set.
func (t EventType) Known() bool {
	_, ok := eventTypes[t]
	return ok
}

// SessionState is the lifecycle state a session is in after an event.
type SessionState string

const (
	StateWorking  SessionState = "working"
	StateWaiting  SessionState = "waiting"
	StateFinished SessionState = "finished"
)

// SessionState maps an event type to the session lifecycle state it implies.
// Unknown types map to working so a future event type degrades gracefully.
func (t EventType) SessionState() SessionState {
	switch t {
	case EventNotification:
		return StateWaiting
	case EventStop, EventSubagentStop, EventSessionEnd:
		return StateFinished
	default:
		return StateWorking
	}
}

// Terminal reports whether t ends a session.
func (t EventType) Terminal() bool {
	return t.SessionState() == StateFinished
}

// Event is one externally submitted hook event. It is untrusted input:
// only hook_event_name and session_id are enforced, data stays an open
// mapping so unknown payload shapes round-trip unchanged.
type Event struct {
	HookEventName string         `json:"hook_event_name"`
	SessionID     string         `json:"session_id"`
	Timestamp     string         `json:"timestamp,omitempty"` // microsecond epoch as decimal string
	Data          map[string]any `json:"data,omitempty"`
}

// Type returns the event's type.
func (e *Event) Type() EventType {
	return EventType(e.HookEventName)
}
