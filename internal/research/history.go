package research

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultHistoryLimit is how many recent runs the client asks for.
const DefaultHistoryLimit = 15

// EntryID accepts either a JSON number or a JSON string.
type EntryID string

func (id *EntryID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("history id: %w", err)
	}
	*id = EntryID(n.String())
	return nil
}

// HistoryEntry is one past run as reported by the backend.
type HistoryEntry struct {
	ID        EntryID `json:"id"`
	Topic     string  `json:"topic"`
	CreatedAt string  `json:"created_at"`
}

type historyResp struct {
	History []HistoryEntry `json:"history"`
}

// Timestamps from the backend are UTC and usually carry no zone suffix.
var createdAtLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ParseCreatedAt reads a history timestamp, treating zone-less values as UTC.
func ParseCreatedAt(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if parsed, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return parsed, nil
	}
	for _, layout := range createdAtLayouts {
		if parsed, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatAge renders how long before now createdAt was: "just now", "5m ago",
// "3h ago" or "2d ago". Unparsable timestamps render as "".
func FormatAge(createdAt string, now time.Time) string {
	parsed, err := ParseCreatedAt(createdAt)
	if err != nil {
		return ""
	}
	mins := int(now.Sub(parsed) / time.Minute)
	if mins < 1 {
		return "just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm ago", mins)
	}
	hours := mins / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}
