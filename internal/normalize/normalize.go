// Package normalize maps raw, loosely-typed event records into canonical
// records. Malformed records are dropped, never surfaced as errors.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"evreport/pkg/types"
)

// UnknownSource is the placeholder for records without a source name.
const UnknownSource = "<Unknown Source>"

// NoDescription is the final fallback for records without any description.
const NoDescription = "<No Description Available>"

// TimeFormatter is implemented by source timestamp values that render
// themselves as a formatted date/time string.
type TimeFormatter interface {
	FormatTime() string
}

// legacyTimeLayouts are the fixed patterns tried against formatted timestamp
// strings, in order.
var legacyTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
}

// isoTimeLayouts are tried before the legacy patterns for plain string
// timestamps.
var isoTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var errNoMessage = errors.New("record carries no formatted message")

// Normalizer converts raw records into canonical ones.
type Normalizer struct {
	// Codes is the platform severity code table. Nil falls back to the
	// classic code values.
	Codes *SeverityCodes

	// FormatMessage resolves the source-formatted description for a record.
	// Nil uses the record's own Message field. An error (not an empty
	// result) moves resolution on to the string-insert fallback.
	FormatMessage func(types.RawRecord) (string, error)
}

// Normalize maps a raw record to its canonical form. The second return value
// is false when the record must be dropped (no usable timestamp).
func (n *Normalizer) Normalize(raw types.RawRecord) (types.CanonicalRecord, bool) {
	// The primary timestamp field wins outright when present: a primary
	// value that fails to parse drops the record rather than deferring to
	// the secondary field.
	var ts time.Time
	var ok bool
	switch {
	case raw.TimeGenerated != nil:
		ts, ok = CoerceTime(raw.TimeGenerated)
	case raw.TimeWritten != nil:
		ts, ok = CoerceTime(raw.TimeWritten)
	}
	if !ok {
		return types.CanonicalRecord{}, false
	}

	source := raw.SourceName
	if source == "" {
		source = UnknownSource
	}

	var category *string
	if raw.EventCategory != nil {
		s := stringify(raw.EventCategory)
		category = &s
	}

	return types.CanonicalRecord{
		Timestamp:   ts,
		EventID:     NormalizeEventID(raw.EventID),
		Source:      source,
		Severity:    severityLabel(raw.EventType, n.Codes),
		Category:    category,
		Description: n.description(raw),
	}, true
}

// CoerceTime interprets a loosely-typed timestamp value. The chain is: a
// native instant, a value exposing a formatted-string accessor, a numeric
// epoch-seconds reading, and finally a string parsed as ISO-8601 and then
// against the fixed legacy patterns. The local time zone is assumed
// throughout.
func CoerceTime(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}

	if t, ok := v.(time.Time); ok {
		return t, true
	}

	if f, ok := v.(TimeFormatter); ok {
		if t, ok := parseLayouts(f.FormatTime(), legacyTimeLayouts); ok {
			return t, true
		}
	}

	if sec, ok := toFloat(v); ok {
		return epochTime(sec), true
	}

	if s, ok := stringValue(v); ok {
		if t, ok := parseLayouts(s, isoTimeLayouts); ok {
			return t, true
		}
		if t, ok := parseLayouts(s, legacyTimeLayouts); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

// NormalizeEventID masks a raw event identifier to its low 16 bits, the
// platform convention for separating identity from severity/facility bits.
// Absent or non-numeric values yield nil.
func NormalizeEventID(v any) *uint16 {
	var i int64
	switch t := v.(type) {
	case nil:
		return nil
	case int:
		i = int64(t)
	case int32:
		i = int64(t)
	case int64:
		i = t
	case uint32:
		i = int64(t)
	case uint64:
		i = int64(t)
	case float64:
		i = int64(t)
	case float32:
		i = int64(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return nil
			}
			n = int64(f)
		}
		i = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil
		}
		i = n
	default:
		return nil
	}

	id := uint16(i & 0xFFFF)
	return &id
}

func (n *Normalizer) description(raw types.RawRecord) string {
	format := n.FormatMessage
	if format == nil {
		format = defaultFormatMessage
	}

	desc, err := format(raw)
	if err != nil {
		desc = joinInserts(raw.StringInserts)
	} else {
		desc = strings.TrimSpace(desc)
	}

	if desc == "" {
		return NoDescription
	}
	return desc
}

func defaultFormatMessage(raw types.RawRecord) (string, error) {
	if raw.Message == "" {
		return "", errNoMessage
	}
	return raw.Message, nil
}

func joinInserts(inserts []string) string {
	parts := make([]string, 0, len(inserts))
	for _, s := range inserts {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func parseLayouts(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func epochTime(sec float64) time.Time {
	whole := math.Trunc(sec)
	frac := sec - whole
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

// toFloat reports a numeric reading of v. Numeric strings count: the epoch
// interpretation is attempted before any string parsing.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
