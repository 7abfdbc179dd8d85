package cli

import (
	"encoding/json"
	"strings"

	"github.com/hooklog/hooklog/internal/domain"
)

// SchemaCmd outputs JSON Schema for hooklog output types
type SchemaCmd struct {
	Type []string `short:"t" help:"Output types to include (record,result,error,stats,session). Default: all"`
}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]interface{}{
		"record":  recordSchema(),
		"result":  resultSchema(),
		"error":   errorSchema(),
		"stats":   statsSchema(),
		"session": sessionSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = []string{"record", "result", "error", "stats", "session"}
	}

	out := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "hooklog Output Schemas",
		"description": "JSON Schema definitions for all hooklog NDJSON output types",
		"definitions": map[string]interface{}{},
	}

	defs := out["definitions"].(map[string]interface{})
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func eventTypeNames() []string {
	types := domain.EventTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func recordSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Log Record",
		"description": "A single accepted event as stored in the append log",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "record",
			},
			"schemaVersion": map[string]interface{}{
				"type": "integer",
			},
			"seq": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"description": "Strictly increasing acceptance sequence number",
			},
			"received_at": map[string]interface{}{
				"type":        "string",
				"format":      "date-time",
				"description": "When the receiver accepted the event",
			},
			"hook_event_name": map[string]interface{}{
				"type":        "string",
				"enum":        eventTypeNames(),
				"description": "Lifecycle event type",
			},
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Opaque session identifier from the sender",
			},
			"timestamp": map[string]interface{}{
				"type":        "string",
				"description": "Sender-supplied timestamp, stored verbatim",
			},
			"data": map[string]interface{}{
				"type":        "object",
				"description": "Open event payload, stored verbatim",
			},
		},
		"required": []string{"type", "schemaVersion", "seq", "received_at", "hook_event_name", "session_id"},
	}
}

func resultSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Receive Result",
		"description": "Per-invocation outcome of the receive command",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "result",
			},
			"schemaVersion": map[string]interface{}{
				"type": "integer",
			},
			"outcome": map[string]interface{}{
				"type": "string",
				"enum": []string{"accepted", "rejected", "failed"},
			},
			"seq": map[string]interface{}{
				"type":        "integer",
				"description": "Sequence number assigned on acceptance",
			},
			"hook_event_name": map[string]interface{}{
				"type": "string",
			},
			"session_id": map[string]interface{}{
				"type": "string",
			},
			"error_kind": map[string]interface{}{
				"type": "string",
				"enum": []string{
					"empty_input",
					"malformed_input",
					"payload_too_large",
					"unknown_event_type",
					"invalid_session_id",
				},
				"description": "Validation failure category, present when rejected",
			},
			"error": map[string]interface{}{
				"type":        "string",
				"description": "Human-readable failure description",
			},
			"latency_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Wall time from process start to outcome",
			},
		},
		"required": []string{"type", "schemaVersion", "outcome", "latency_ms"},
	}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Error",
		"description": "Error message from hooklog",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "error",
			},
			"code": map[string]interface{}{
				"type":        "string",
				"description": "Machine-matchable error code (e.g. log_open_failed, invalid_where)",
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Human-readable error description",
			},
			"hint": map[string]interface{}{
				"type":        "string",
				"description": "Suggested next step",
			},
		},
		"required": []string{"type", "code", "message"},
	}
}

func statsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Log Stats",
		"description": "Summary of the on-disk event log",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "stats",
			},
			"schemaVersion": map[string]interface{}{
				"type": "integer",
			},
			"records": map[string]interface{}{
				"type": "integer",
			},
			"sessions": map[string]interface{}{
				"type": "integer",
			},
			"segments": map[string]interface{}{
				"type": "integer",
			},
			"first_seq": map[string]interface{}{
				"type": "integer",
			},
			"last_seq": map[string]interface{}{
				"type": "integer",
			},
			"total_bytes": map[string]interface{}{
				"type": "integer",
			},
			"by_event_type": map[string]interface{}{
				"type":        "object",
				"description": "Record count per event type",
			},
		},
		"required": []string{"type", "schemaVersion", "records", "segments", "total_bytes"},
	}
}

func sessionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Session State",
		"description": "Derived per-session state from the accepted event stream",
		"properties": map[string]interface{}{
			"version": map[string]interface{}{
				"type": "integer",
			},
			"session_id": map[string]interface{}{
				"type": "string",
			},
			"state": map[string]interface{}{
				"type": "string",
				"enum": []string{"working", "waiting", "finished"},
			},
			"first_seen": map[string]interface{}{
				"type":        "integer",
				"description": "Unix seconds of the first accepted event",
			},
			"updated_at": map[string]interface{}{
				"type": "integer",
			},
			"event_count": map[string]interface{}{
				"type": "integer",
			},
			"last_event": map[string]interface{}{
				"type": "string",
			},
			"last_seq": map[string]interface{}{
				"type": "integer",
			},
		},
		"required": []string{"version", "session_id", "state", "event_count"},
	}
}
