package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hooklog/hooklog/internal/domain"
)

// WhereClause represents a parsed --where condition
type WhereClause struct {
	Field    string
	Operator string
	Value    string
	regex    *regexp.Regexp // Compiled regex for ~ and !~ operators
}

// ParseWhereClause parses a where clause like "event=SessionEnd" or
// "session~^sess_perf". Supported operators: =, !=, ~, !~, >=, <=, ^, $
func ParseWhereClause(clause string) (*WhereClause, error) {
	// Try operators in order of length (longest first to avoid partial matches)
	operators := []string{"!~", ">=", "<=", "!=", "~", "=", "^", "$"}

	for _, op := range operators {
		idx := strings.Index(clause, op)
		if idx > 0 {
			field := strings.TrimSpace(clause[:idx])
			value := strings.TrimSpace(clause[idx+len(op):])

			if field == "" || value == "" {
				return nil, fmt.Errorf("invalid where clause: %s", clause)
			}

			wc := &WhereClause{
				Field:    field,
				Operator: op,
				Value:    value,
			}

			// Pre-compile regex for ~ and !~ operators
			if op == "~" || op == "!~" {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, fmt.Errorf("invalid regex in where clause '%s': %w", clause, err)
				}
				wc.regex = re
			}

			return wc, nil
		}
	}

	return nil, fmt.Errorf("no valid operator found in where clause: %s (use =, !=, ~, !~, >=, <=, ^, $)", clause)
}

// Match checks if a record matches this where clause
func (wc *WhereClause) Match(rec *domain.LogRecord) bool {
	fieldValue := wc.getFieldValue(rec)

	switch wc.Operator {
	case "=":
		return fieldValue == wc.Value
	case "!=":
		return fieldValue != wc.Value
	case "~": // Contains (regex)
		if wc.regex != nil {
			return wc.regex.MatchString(fieldValue)
		}
		return strings.Contains(fieldValue, wc.Value)
	case "!~": // Not contains (regex)
		if wc.regex != nil {
			return !wc.regex.MatchString(fieldValue)
		}
		return !strings.Contains(fieldValue, wc.Value)
	case "^": // Starts with
		return strings.HasPrefix(fieldValue, wc.Value)
	case "$": // Ends with
		return strings.HasSuffix(fieldValue, wc.Value)
	case ">=", "<=": // Numeric, only meaningful for seq
		return wc.compareSeq(rec, wc.Operator == ">=")
	}

	return false
}

// getFieldValue extracts the field value from a record. data.<key> reaches
// into the open payload mapping.
func (wc *WhereClause) getFieldValue(rec *domain.LogRecord) string {
	field := strings.ToLower(wc.Field)
	if key, ok := strings.CutPrefix(field, "data."); ok {
		if rec.Data == nil {
			return ""
		}
		return stringify(rec.Data[key])
	}
	switch field {
	case "event", "hook_event_name":
		return rec.HookEventName
	case "session", "session_id":
		return rec.SessionID
	case "seq":
		return strconv.FormatUint(rec.Seq, 10)
	case "received_at":
		return rec.ReceivedAt
	case "timestamp":
		return rec.Timestamp
	default:
		return ""
	}
}

// compareSeq handles >= and <= comparisons on the sequence number
func (wc *WhereClause) compareSeq(rec *domain.LogRecord, greaterOrEqual bool) bool {
	if strings.ToLower(wc.Field) != "seq" {
		return false
	}
	target, err := strconv.ParseUint(wc.Value, 10, 64)
	if err != nil {
		return false
	}
	if greaterOrEqual {
		return rec.Seq >= target
	}
	return rec.Seq <= target
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// WhereFilter is a filter that applies multiple where clauses (AND logic)
type WhereFilter struct {
	clauses []*WhereClause
}

// NewWhereFilter creates a filter from multiple where clause strings
func NewWhereFilter(whereClauses []string) (*WhereFilter, error) {
	if len(whereClauses) == 0 {
		return nil, nil
	}

	filter := &WhereFilter{}
	for _, clause := range whereClauses {
		wc, err := ParseWhereClause(clause)
		if err != nil {
			return nil, err
		}
		filter.clauses = append(filter.clauses, wc)
	}

	return filter, nil
}

// Match returns true if the record matches ALL where clauses (AND logic)
func (f *WhereFilter) Match(rec *domain.LogRecord) bool {
	if f == nil {
		return true
	}
	for _, clause := range f.clauses {
		if !clause.Match(rec) {
			return false
		}
	}
	return true
}
