// Package report materializes aggregation results into ordered report rows,
// computes their presentation layout, and renders them through a narrow
// tabular sink interface.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"evreport/internal/aggregate"
)

// Columns is the report header row, in exact output order.
var Columns = []string{
	"SI no",
	"EventID",
	"Source",
	"Level",
	"Task Category",
	"Timestamp (logged)",
	"Description",
	"Frequency",
}

const (
	setSeparator         = " || "
	descriptionSeparator = "\n----------\n"
	timestampLayout      = "2006-01-02 15:04:05"
)

// Row is one rendered line of the report, one per distinct event-id key.
type Row struct {
	Serial      int
	Key         aggregate.Key
	Sources     string
	Levels      string
	Categories  string
	Timestamps  string
	Description string
	Frequency   int
}

// Materialize converts accumulators into a deterministically ordered row
// sequence: ascending event id with the no-id key first, ties broken by
// descending frequency, serials assigned as the 1-based rank.
//
// Set-backed fields render their members lexicographically sorted;
// timestamps and descriptions render in original encounter order.
func Materialize(accs map[aggregate.Key]*aggregate.Accumulator) []Row {
	keys := make([]aggregate.Key, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] != keys[j] {
			return keys[i] < keys[j]
		}
		return accs[keys[i]].Frequency > accs[keys[j]].Frequency
	})

	rows := make([]Row, 0, len(keys))
	for i, key := range keys {
		acc := accs[key]
		rows = append(rows, Row{
			Serial:      i + 1,
			Key:         key,
			Sources:     joinSet(acc.Sources),
			Levels:      joinSet(acc.Severities),
			Categories:  joinSet(acc.Categories),
			Timestamps:  joinTimestamps(acc.Timestamps),
			Description: joinDescriptions(acc.Descriptions),
			Frequency:   acc.Frequency,
		})
	}
	return rows
}

// Cells returns the row rendered as strings, in column order. The no-id key
// renders as an empty cell.
func (r Row) Cells() []string {
	id := ""
	if r.Key.Valid() {
		id = strconv.Itoa(int(r.Key))
	}
	return []string{
		strconv.Itoa(r.Serial),
		id,
		r.Sources,
		r.Levels,
		r.Categories,
		r.Timestamps,
		r.Description,
		strconv.Itoa(r.Frequency),
	}
}

// values returns the row with numeric columns typed, for sinks that
// distinguish numbers from text.
func (r Row) values() []any {
	var id any = ""
	if r.Key.Valid() {
		id = int(r.Key)
	}
	return []any{
		r.Serial,
		id,
		r.Sources,
		r.Levels,
		r.Categories,
		r.Timestamps,
		r.Description,
		r.Frequency,
	}
}

func joinSet(set map[string]struct{}) string {
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return strings.Join(members, setSeparator)
}

func joinTimestamps(ts []time.Time) string {
	rendered := make([]string, len(ts))
	for i, t := range ts {
		rendered[i] = t.Format(timestampLayout)
	}
	return strings.Join(rendered, ", ")
}

func joinDescriptions(descs []string) string {
	return strings.Join(descs, descriptionSeparator)
}
