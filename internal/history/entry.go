// internal/history/entry.go
package history

import (
	"time"

	"github.com/goccy/go-json"
)

// Entry is one backend statement issued by a grid
type Entry struct {
	ID           int64     `json:"id"`
	ProfileName  string    `json:"profile"`
	Kind         string    `json:"kind"` // schema, count, rows
	Table        string    `json:"table"`
	Query        string    `json:"query"`
	Args         string    `json:"args,omitempty"` // JSON array
	ExecutedAt   time.Time `json:"executed_at"`
	DurationMs   int64     `json:"duration_ms"`
	RowCount     int       `json:"row_count"`
	Status       string    `json:"status"` // "success", "error"
	ErrorMessage string    `json:"error_message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// QueryPreview returns a truncated version of the query
func (e *Entry) QueryPreview(maxLen int) string {
	q := e.Query
	if len(q) > maxLen {
		return q[:maxLen-3] + "..."
	}
	return q
}

// encodeArgs renders bind arguments for storage. Values the encoder cannot
// handle fall back to null.
func encodeArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "null"
	}
	return string(b)
}
