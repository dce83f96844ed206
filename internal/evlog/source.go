// Package evlog provides access to exported system event log records.
//
// The platform reader is abstracted behind Source: a finite, forward-only
// supplier of raw record batches, mirroring the sequential-read shape of the
// native event log API. Exhaustion is signaled by an empty batch, not an
// error.
package evlog

import (
	"context"
	"fmt"
	"strings"

	"evreport/pkg/types"
)

// Source is a sequential reader of raw event records.
type Source interface {
	// Read returns the next batch of records. An empty batch means the
	// source is exhausted. A non-nil error is fatal to the run.
	Read(ctx context.Context) ([]types.RawRecord, error)

	// Close releases the underlying handle.
	Close() error
}

// OpenError is returned when an event log source cannot be opened.
type OpenError struct {
	Log string
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open event log %q: %v (reading protected logs such as Security may require elevated privileges)", e.Log, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Choice is one selectable event log.
type Choice struct {
	Name     string // internal name, used as the key into configured sources
	Friendly string // display name
}

// StandardLogs lists the well-known event logs in menu order.
var StandardLogs = []Choice{
	{Name: "Application", Friendly: "Application"},
	{Name: "Security", Friendly: "Security"},
	{Name: "Setup", Friendly: "Setup"},
	{Name: "System", Friendly: "System"},
	{Name: "ForwardedEvents", Friendly: "Forwarded Events"},
}

// ResolveChoice matches user input against StandardLogs. Input may be a
// 1-based menu number, the internal name, or the friendly name with or
// without spaces, case-insensitively.
func ResolveChoice(input string) (Choice, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Choice{}, false
	}

	for i, c := range StandardLogs {
		if input == fmt.Sprint(i+1) {
			return c, true
		}
	}

	lower := strings.ToLower(input)
	for _, c := range StandardLogs {
		switch lower {
		case strings.ToLower(c.Name),
			strings.ToLower(c.Friendly),
			strings.ToLower(strings.ReplaceAll(c.Friendly, " ", "")):
			return c, true
		}
	}

	return Choice{}, false
}
