package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hooklog/hooklog/internal/domain"
)

// TextWriter renders records for humans, one line each.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter creates a text writer
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// WriteRecord writes one record as a readable line
func (t *TextWriter) WriteRecord(rec *domain.LogRecord) error {
	data := ""
	if len(rec.Data) > 0 {
		keys := make([]string, 0, len(rec.Data))
		for k := range rec.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		data = " data=" + strings.Join(keys, ",")
	}
	_, err := fmt.Fprintf(t.w, "#%d %s %s session=%s%s\n",
		rec.Seq, rec.ReceivedAt, rec.HookEventName, rec.SessionID, data)
	return err
}
