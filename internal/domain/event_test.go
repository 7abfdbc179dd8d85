package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeKnown(t *testing.T) {
	tests := []struct {
		input    EventType
		expected bool
	}{
		{EventSessionStart, true},
		{EventUserPromptSubmit, true},
		{EventNotification, true},
		{EventPreToolUse, true},
		{EventPostToolUse, true},
		{EventPreCompact, true},
		{EventStop, true},
		{EventSubagentStop, true},
		{EventSessionEnd, true},
		{EventType("InvalidEvent"), false},
		{EventType("sessionstart"), false}, // case sensitive
		{EventType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.Known())
		})
	}
}

func TestEventTypesCoversMembershipSet(t *testing.T) {
	listed := EventTypes()
	require.Len(t, listed, len(eventTypes))
	for _, et := range listed {
		assert.True(t, et.Known(), "listed type %q should be a member", et)
	}
}

func TestSessionStateMapping(t *testing.T) {
	tests := []struct {
		input    EventType
		expected SessionState
	}{
		{EventSessionStart, StateWorking},
		{EventUserPromptSubmit, StateWorking},
		{EventPreToolUse, StateWorking},
		{EventPostToolUse, StateWorking},
		{EventPreCompact, StateWorking},
		{EventNotification, StateWaiting},
		{EventStop, StateFinished},
		{EventSubagentStop, StateFinished},
		{EventSessionEnd, StateFinished},
		{EventType("SomethingNew"), StateWorking},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.SessionState())
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, EventSessionEnd.Terminal())
	assert.True(t, EventStop.Terminal())
	assert.True(t, EventSubagentStop.Terminal())
	assert.False(t, EventSessionStart.Terminal())
	assert.False(t, EventNotification.Terminal())
}

func TestNewLogRecord(t *testing.T) {
	ev := &Event{
		HookEventName: "UserPromptSubmit",
		SessionID:     "sess_1",
		Timestamp:     "1700000000000000",
		Data:          map[string]any{"prompt_length": float64(42)},
	}
	at := time.Date(2026, 8, 23, 10, 0, 0, 123456789, time.UTC)

	rec := NewLogRecord(ev, at)

	assert.Equal(t, RecordType, rec.Type)
	assert.Equal(t, SchemaVersion, rec.SchemaVersion)
	assert.EqualValues(t, 0, rec.Seq) // store assigns
	assert.Equal(t, "2026-08-23T10:00:00.123456789Z", rec.ReceivedAt)
	assert.Equal(t, ev.HookEventName, rec.HookEventName)
	assert.Equal(t, ev.SessionID, rec.SessionID)
	assert.Equal(t, ev.Timestamp, rec.Timestamp)
	assert.Equal(t, ev.Data, rec.Data)
	assert.Equal(t, EventUserPromptSubmit, rec.EventType())
}
