// Package validate classifies raw event payloads before anything downstream
// may touch them. Validation is a pure function of the input bytes and the
// static schema: no I/O, no shared state, same input always yields the same
// error kind.
package validate

import (
	"fmt"
	"regexp"

	json "github.com/goccy/go-json"

	"github.com/hooklog/hooklog/internal/domain"
)

// Session ids become filename components downstream, so the accepted
// alphabet is closed: anything that could name a path (separators, dots,
// spaces) is rejected up front.
var sessionIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Kind classifies why an input was rejected. All kinds are caller errors.
type Kind string

const (
	KindEmptyInput       Kind = "empty_input"
	KindMalformedInput   Kind = "malformed_input"
	KindPayloadTooLarge  Kind = "payload_too_large"
	KindUnknownEventType Kind = "unknown_event_type"
	KindInvalidSessionID Kind = "invalid_session_id"
)

// Error is a validation failure. Its message always carries the literal
// phrase "validation failed"; external tooling pattern-matches on it to tell
// expected rejections from real system faults.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Kind, e.Detail)
}

// KindOf extracts the validation kind from err, if it is a validation error.
func KindOf(err error) (Kind, bool) {
	if ve, ok := err.(*Error); ok {
		return ve.Kind, true
	}
	return "", false
}

// Limits bound the resources a single payload may claim.
type Limits struct {
	MaxPayloadBytes   int // total serialized event size
	MaxSessionIDBytes int
}

// DefaultLimits returns the stock limits: 512 KiB payloads, 256-byte session ids.
func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes:   512 << 10,
		MaxSessionIDBytes: 256,
	}
}

// Validator checks raw payloads against the event schema and Limits.
type Validator struct {
	limits Limits
}

// New creates a Validator. Zero limit fields fall back to defaults.
func New(limits Limits) *Validator {
	def := DefaultLimits()
	if limits.MaxPayloadBytes <= 0 {
		limits.MaxPayloadBytes = def.MaxPayloadBytes
	}
	if limits.MaxSessionIDBytes <= 0 {
		limits.MaxSessionIDBytes = def.MaxSessionIDBytes
	}
	return &Validator{limits: limits}
}

// Limits returns the limits the validator enforces.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate parses and classifies one raw payload. Check order: empty input,
// size ceiling, JSON shape, event-type membership, session-id constraints.
// The size check runs before the parse so an oversized payload never costs a
// full decode.
func (v *Validator) Validate(raw []byte) (*domain.Event, error) {
	if len(raw) == 0 {
		return nil, &Error{Kind: KindEmptyInput, Detail: "no payload on input"}
	}
	if len(raw) > v.limits.MaxPayloadBytes {
		return nil, &Error{
			Kind:   KindPayloadTooLarge,
			Detail: fmt.Sprintf("payload is %d bytes, limit is %d", len(raw), v.limits.MaxPayloadBytes),
		}
	}

	var ev domain.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, &Error{Kind: KindMalformedInput, Detail: err.Error()}
	}

	if ev.HookEventName == "" {
		return nil, &Error{Kind: KindUnknownEventType, Detail: "missing hook_event_name"}
	}
	if !ev.Type().Known() {
		return nil, &Error{
			Kind:   KindUnknownEventType,
			Detail: fmt.Sprintf("unknown event type %q", ev.HookEventName),
		}
	}

	if ev.SessionID == "" {
		return nil, &Error{Kind: KindInvalidSessionID, Detail: "missing or empty session_id"}
	}
	if len(ev.SessionID) > v.limits.MaxSessionIDBytes {
		return nil, &Error{
			Kind:   KindInvalidSessionID,
			Detail: fmt.Sprintf("session_id is %d bytes, limit is %d", len(ev.SessionID), v.limits.MaxSessionIDBytes),
		}
	}
	if !sessionIDRe.MatchString(ev.SessionID) {
		return nil, &Error{
			Kind:   KindInvalidSessionID,
			Detail: "session_id must contain only alphanumeric characters, hyphens, and underscores",
		}
	}

	return &ev, nil
}
