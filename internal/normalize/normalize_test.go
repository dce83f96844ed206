package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"evreport/pkg/types"
)

// formattedTime mimics a platform timestamp object that renders itself as a
// formatted string.
type formattedTime string

func (f formattedTime) FormatTime() string { return string(f) }

func TestCoerceTime(t *testing.T) {
	native := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)

	tests := []struct {
		name   string
		input  any
		want   time.Time
		wantOK bool
	}{
		{
			name:   "native instant passes through unchanged",
			input:  native,
			want:   native,
			wantOK: true,
		},
		{
			name:   "formatter object",
			input:  formattedTime("2024-01-15 10:30:00"),
			want:   native,
			wantOK: true,
		},
		{
			name:   "epoch seconds float",
			input:  float64(native.Unix()),
			want:   native,
			wantOK: true,
		},
		{
			name:   "epoch seconds json number",
			input:  json.Number("1705314600"),
			want:   time.Unix(1705314600, 0),
			wantOK: true,
		},
		{
			name:   "numeric string read as epoch",
			input:  "1705314600",
			want:   time.Unix(1705314600, 0),
			wantOK: true,
		},
		{
			name:   "iso string",
			input:  "2024-01-15T10:30:00",
			want:   native,
			wantOK: true,
		},
		{
			name:   "iso date only",
			input:  "2024-01-15",
			want:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local),
			wantOK: true,
		},
		{
			name:   "legacy space-separated string",
			input:  "2024-01-15 10:30:00",
			want:   native,
			wantOK: true,
		},
		{
			name:   "slash-separated string",
			input:  "01/15/2024 10:30:00",
			want:   native,
			wantOK: true,
		},
		{
			name:   "nil",
			input:  nil,
			wantOK: false,
		},
		{
			name:   "unparsable string",
			input:  "last tuesday",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceTime(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("CoerceTime(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("CoerceTime(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEventID(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  *uint16 // nil means "expect nil"
	}{
		{name: "small id unchanged", input: 100, want: u16(100)},
		{name: "high bits masked off", input: 65537, want: u16(1)},
		{name: "max 32-bit unsigned", input: uint32(4294967295), want: u16(65535)},
		{name: "negative masks like unsigned", input: "-1", want: u16(65535)},
		{name: "numeric string", input: " 1074 ", want: u16(1074)},
		{name: "json number", input: json.Number("7036"), want: u16(7036)},
		{name: "float truncates", input: 3.7, want: u16(3)},
		{name: "non-numeric string", input: "abc", want: nil},
		{name: "absent", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEventID(tt.input)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("NormalizeEventID(%v) = %d, want nil", tt.input, *got)
			case tt.want != nil && got == nil:
				t.Errorf("NormalizeEventID(%v) = nil, want %d", tt.input, *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("NormalizeEventID(%v) = %d, want %d", tt.input, *got, *tt.want)
			}
		})
	}
}

func u16(v uint16) *uint16 { return &v }

func TestNormalize(t *testing.T) {
	n := &Normalizer{Codes: DefaultSeverityCodes()}
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)

	t.Run("full record", func(t *testing.T) {
		rec, ok := n.Normalize(types.RawRecord{
			TimeGenerated: "2024-01-15 10:30:00",
			EventID:       json.Number("65537"),
			SourceName:    "Service Control Manager",
			EventType:     json.Number("3"),
			EventCategory: json.Number("0"),
			Message:       "  The service entered the running state.  ",
		})
		if !ok {
			t.Fatal("record was dropped")
		}
		if !rec.Timestamp.Equal(ts) {
			t.Errorf("Timestamp = %v, want %v", rec.Timestamp, ts)
		}
		if rec.EventID == nil || *rec.EventID != 1 {
			t.Errorf("EventID = %v, want 1", rec.EventID)
		}
		if rec.Source != "Service Control Manager" {
			t.Errorf("Source = %q", rec.Source)
		}
		if rec.Severity != "WARNING" {
			t.Errorf("Severity = %q, want WARNING", rec.Severity)
		}
		if rec.Category == nil || *rec.Category != "0" {
			t.Errorf("Category = %v, want \"0\"", rec.Category)
		}
		if rec.Description != "The service entered the running state." {
			t.Errorf("Description = %q", rec.Description)
		}
	})

	t.Run("unparsable timestamp drops the record", func(t *testing.T) {
		_, ok := n.Normalize(types.RawRecord{TimeGenerated: "not a time"})
		if ok {
			t.Error("expected drop")
		}
	})

	t.Run("no timestamp field drops the record", func(t *testing.T) {
		_, ok := n.Normalize(types.RawRecord{SourceName: "X"})
		if ok {
			t.Error("expected drop")
		}
	})

	t.Run("bad primary timestamp does not defer to secondary", func(t *testing.T) {
		_, ok := n.Normalize(types.RawRecord{
			TimeGenerated: "garbage",
			TimeWritten:   "2024-01-15 10:30:00",
		})
		if ok {
			t.Error("expected drop: primary field wins outright when present")
		}
	})

	t.Run("secondary timestamp used when primary absent", func(t *testing.T) {
		rec, ok := n.Normalize(types.RawRecord{TimeWritten: "2024-01-15 10:30:00"})
		if !ok {
			t.Fatal("record was dropped")
		}
		if !rec.Timestamp.Equal(ts) {
			t.Errorf("Timestamp = %v, want %v", rec.Timestamp, ts)
		}
	})

	t.Run("missing source gets placeholder", func(t *testing.T) {
		rec, _ := n.Normalize(types.RawRecord{TimeGenerated: "2024-01-15 10:30:00"})
		if rec.Source != UnknownSource {
			t.Errorf("Source = %q, want %q", rec.Source, UnknownSource)
		}
	})

	t.Run("description falls back to string inserts", func(t *testing.T) {
		rec, _ := n.Normalize(types.RawRecord{
			TimeGenerated: "2024-01-15 10:30:00",
			StringInserts: []string{"disk0", "", "offline"},
		})
		if rec.Description != "disk0 offline" {
			t.Errorf("Description = %q, want %q", rec.Description, "disk0 offline")
		}
	})

	t.Run("description final fallback is placeholder", func(t *testing.T) {
		rec, _ := n.Normalize(types.RawRecord{TimeGenerated: "2024-01-15 10:30:00"})
		if rec.Description != NoDescription {
			t.Errorf("Description = %q, want %q", rec.Description, NoDescription)
		}
	})

	t.Run("absent category stays nil", func(t *testing.T) {
		rec, _ := n.Normalize(types.RawRecord{TimeGenerated: "2024-01-15 10:30:00"})
		if rec.Category != nil {
			t.Errorf("Category = %v, want nil", rec.Category)
		}
	})

	t.Run("custom message formatter is preferred", func(t *testing.T) {
		custom := &Normalizer{
			FormatMessage: func(raw types.RawRecord) (string, error) {
				return "formatted: " + raw.Message, nil
			},
		}
		rec, _ := custom.Normalize(types.RawRecord{
			TimeGenerated: "2024-01-15 10:30:00",
			Message:       "body",
		})
		if rec.Description != "formatted: body" {
			t.Errorf("Description = %q", rec.Description)
		}
	})
}

func TestNormalizeIdempotence(t *testing.T) {
	n := &Normalizer{Codes: DefaultSeverityCodes()}
	first, ok := n.Normalize(types.RawRecord{
		TimeGenerated: "2024-01-15 10:30:00",
		EventID:       json.Number("100"),
		SourceName:    "App",
		EventType:     json.Number("2"),
		Message:       "hello",
	})
	if !ok {
		t.Fatal("record was dropped")
	}

	// Feed canonical values back through: an already-canonical timestamp
	// and severity come out unchanged.
	second, ok := n.Normalize(types.RawRecord{
		TimeGenerated: first.Timestamp,
		EventID:       int(*first.EventID),
		SourceName:    first.Source,
		EventType:     first.Severity,
		Message:       first.Description,
	})
	if !ok {
		t.Fatal("canonical record was dropped")
	}
	if !second.Timestamp.Equal(first.Timestamp) {
		t.Errorf("timestamp changed: %v -> %v", first.Timestamp, second.Timestamp)
	}
	if second.Severity != first.Severity {
		t.Errorf("severity changed: %q -> %q", first.Severity, second.Severity)
	}
	if *second.EventID != *first.EventID {
		t.Errorf("event id changed: %d -> %d", *first.EventID, *second.EventID)
	}
}
