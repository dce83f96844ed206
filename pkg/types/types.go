package types

import "time"

// RawRecord is one event as retrieved from a log source. Field presence is
// source dependent; a nil value means the field was absent. Loosely typed
// fields (timestamps, event id, type, category) carry whatever the source
// produced: time.Time, json.Number, float64, int or string.
type RawRecord struct {
	TimeGenerated any      `json:"TimeGenerated,omitempty"`
	TimeWritten   any      `json:"TimeWritten,omitempty"`
	EventID       any      `json:"EventID,omitempty"`
	SourceName    string   `json:"SourceName,omitempty"`
	EventType     any      `json:"EventType,omitempty"`
	EventCategory any      `json:"EventCategory,omitempty"`
	Message       string   `json:"Message,omitempty"`
	StringInserts []string `json:"StringInserts,omitempty"`
}

// CanonicalRecord is the normalized, validated representation of one log
// entry. Timestamp and Description are always set; everything else is
// optional.
type CanonicalRecord struct {
	Timestamp   time.Time
	EventID     *uint16 // low 16 bits of the raw id; nil if absent or non-numeric
	Source      string
	Severity    string // empty if the source carried no type field
	Category    *string
	Description string
}
