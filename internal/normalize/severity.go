package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// SeverityCodes is the injected table of platform event-type code values.
type SeverityCodes struct {
	Error        int64
	Warning      int64
	Information  int64
	AuditSuccess int64
	AuditFailure int64
}

// DefaultSeverityCodes returns the classic platform code values.
func DefaultSeverityCodes() *SeverityCodes {
	return &SeverityCodes{
		Error:        1,
		Warning:      2,
		Information:  4,
		AuditSuccess: 8,
		AuditFailure: 16,
	}
}

// levelLabels is the fixed numeric severity map, consulted first for
// integer-typed values.
var levelLabels = map[int64]string{
	1: "CRITICAL",
	2: "ERROR",
	3: "WARNING",
	4: "INFORMATIONAL",
	5: "VERBOSE",
}

// severityLabel resolves a raw severity/type value to a label.
//
// Integer-typed values go through the fixed level map, then the injected
// platform code table (INFORMATIONAL spelling, audit labels), then their
// decimal form. Non-integer-typed values go through a separate fallback
// table with different default spellings (INFORMATION, not INFORMATIONAL).
// The asymmetry between the two tables is long-standing observable behavior
// and is kept as-is.
func severityLabel(v any, codes *SeverityCodes) string {
	switch t := v.(type) {
	case nil:
		return ""
	case int:
		return integerLabel(int64(t), codes)
	case int32:
		return integerLabel(int64(t), codes)
	case int64:
		return integerLabel(t, codes)
	case uint32:
		return integerLabel(int64(t), codes)
	case uint64:
		return integerLabel(int64(t), codes)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return integerLabel(i, codes)
		}
		if f, err := t.Float64(); err == nil {
			return fallbackLabel(f, codes)
		}
		return t.String()
	case float64:
		return fallbackLabel(t, codes)
	case float32:
		return fallbackLabel(float64(t), codes)
	case string:
		// String values cannot match either code table.
		return t
	default:
		return fmt.Sprint(t)
	}
}

func integerLabel(i int64, codes *SeverityCodes) string {
	if label, ok := levelLabels[i]; ok {
		return label
	}

	if codes == nil {
		codes = DefaultSeverityCodes()
	}
	switch i {
	case codes.Error:
		return "ERROR"
	case codes.Warning:
		return "WARNING"
	case codes.Information:
		return "INFORMATIONAL"
	case codes.AuditSuccess:
		return "AUDIT_SUCCESS"
	case codes.AuditFailure:
		return "AUDIT_FAILURE"
	}

	return strconv.FormatInt(i, 10)
}

func fallbackLabel(f float64, codes *SeverityCodes) string {
	if codes == nil {
		codes = DefaultSeverityCodes()
	}

	if f == math.Trunc(f) {
		switch int64(f) {
		case codes.Error:
			return "ERROR"
		case codes.Warning:
			return "WARNING"
		case codes.Information:
			return "INFORMATION"
		case codes.AuditSuccess:
			return "AUDIT_SUCCESS"
		case codes.AuditFailure:
			return "AUDIT_FAILURE"
		}
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
