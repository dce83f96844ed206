package aggregate

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"evreport/internal/evlog"
	"evreport/internal/normalize"
	"evreport/pkg/types"
)

var testWindow = Window{
	Start: time.Date(2024, 9, 1, 0, 0, 0, 0, time.Local),
	End:   time.Date(2024, 9, 30, 23, 59, 59, 0, time.Local),
}

func runEngine(t *testing.T, workers int, records ...types.RawRecord) *Result {
	t.Helper()

	e := &Engine{
		Normalizer: &normalize.Normalizer{Codes: normalize.DefaultSeverityCodes()},
		Window:     testWindow,
		Workers:    workers,
	}
	src := evlog.NewSliceSource(records...).WithBatchSize(4)
	res, err := e.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return res
}

func TestEngineAggregates(t *testing.T) {
	res := runEngine(t, 1,
		types.RawRecord{TimeGenerated: "2024-09-10 08:00:00", EventID: 100, SourceName: "A", Message: "first"},
		types.RawRecord{TimeGenerated: "2024-09-10 09:00:00", EventID: 100, SourceName: "B", Message: "second"},
		types.RawRecord{TimeGenerated: "2024-09-10 10:00:00", EventID: 200, SourceName: "A", Message: "third"},
	)

	if res.Scanned != 3 || res.Matched != 3 {
		t.Fatalf("Scanned/Matched = %d/%d, want 3/3", res.Scanned, res.Matched)
	}
	if res.Unique() != 2 {
		t.Fatalf("Unique = %d, want 2", res.Unique())
	}

	acc := res.Accumulators[Key(100)]
	if acc == nil {
		t.Fatal("no accumulator for id 100")
	}
	if acc.Frequency != 2 {
		t.Errorf("id 100 Frequency = %d, want 2", acc.Frequency)
	}
	wantSources := map[string]struct{}{"A": {}, "B": {}}
	if !reflect.DeepEqual(acc.Sources, wantSources) {
		t.Errorf("id 100 Sources = %v, want %v", acc.Sources, wantSources)
	}
	if !reflect.DeepEqual(acc.Descriptions, []string{"first", "second"}) {
		t.Errorf("id 100 Descriptions = %v", acc.Descriptions)
	}

	acc = res.Accumulators[Key(200)]
	if acc == nil || acc.Frequency != 1 {
		t.Errorf("id 200 accumulator = %+v, want frequency 1", acc)
	}
}

func TestEngineDropDoesNotDoubleCount(t *testing.T) {
	res := runEngine(t, 1,
		types.RawRecord{TimeGenerated: "not a time", EventID: 100, SourceName: "A"},
		types.RawRecord{TimeGenerated: "2024-09-10 08:00:00", EventID: 100, SourceName: "A"},
	)

	// The malformed record is visible to the scan tally only: it neither
	// matches nor reaches an accumulator.
	if res.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", res.Scanned)
	}
	if res.Matched != 1 {
		t.Errorf("Matched = %d, want 1", res.Matched)
	}
	if res.Accumulators[Key(100)].Frequency != 1 {
		t.Errorf("Frequency = %d, want 1", res.Accumulators[Key(100)].Frequency)
	}
}

func TestEngineFiltersWindow(t *testing.T) {
	res := runEngine(t, 1,
		types.RawRecord{TimeGenerated: "2024-08-31 23:59:59", EventID: 1},
		types.RawRecord{TimeGenerated: "2024-09-01 00:00:00", EventID: 1},
		types.RawRecord{TimeGenerated: "2024-09-30 23:59:59", EventID: 1},
		types.RawRecord{TimeGenerated: "2024-10-01 00:00:00", EventID: 1},
	)

	if res.Scanned != 4 {
		t.Errorf("Scanned = %d, want 4", res.Scanned)
	}
	if res.Matched != 2 {
		t.Errorf("Matched = %d, want 2", res.Matched)
	}
}

func TestEngineNilEventIDKey(t *testing.T) {
	res := runEngine(t, 1,
		types.RawRecord{TimeGenerated: "2024-09-10 08:00:00", SourceName: "A"},
		types.RawRecord{TimeGenerated: "2024-09-10 09:00:00", EventID: "junk", SourceName: "B"},
	)

	acc := res.Accumulators[KeyNone]
	if acc == nil {
		t.Fatal("no accumulator under KeyNone")
	}
	if acc.Frequency != 2 {
		t.Errorf("KeyNone Frequency = %d, want 2", acc.Frequency)
	}
}

func TestEngineParallelMatchesSequential(t *testing.T) {
	var records []types.RawRecord
	base := time.Date(2024, 9, 5, 0, 0, 0, 0, time.Local)
	for i := 0; i < 200; i++ {
		records = append(records, types.RawRecord{
			TimeGenerated: base.Add(time.Duration(i) * time.Minute).Format("2006-01-02 15:04:05"),
			EventID:       i % 7,
			SourceName:    fmt.Sprintf("src-%d", i%3),
			EventType:     i%5 + 1,
			Message:       fmt.Sprintf("message %d", i),
		})
	}

	sequential := runEngine(t, 1, records...)
	parallel := runEngine(t, 4, records...)

	if sequential.Scanned != parallel.Scanned || sequential.Matched != parallel.Matched {
		t.Fatalf("counts diverge: sequential %d/%d, parallel %d/%d",
			sequential.Scanned, sequential.Matched, parallel.Scanned, parallel.Matched)
	}
	if !reflect.DeepEqual(sequential.Accumulators, parallel.Accumulators) {
		t.Error("parallel normalization changed the aggregation result")
	}
}

func TestEngineEmptySource(t *testing.T) {
	res := runEngine(t, 1)
	if res.Scanned != 0 || res.Matched != 0 || res.Unique() != 0 {
		t.Errorf("empty source produced %+v", res)
	}
}
