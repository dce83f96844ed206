// Package timewindow obtains a validated (start, end) query range, either
// from strings or interactively. The aggregation core assumes the pair it
// receives here is ordered and fully in the past.
package timewindow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Accepted input layouts, tried in order.
const (
	layoutDate   = "2006-01-02"
	layoutMinute = "2006-01-02 15:04"
	layoutSecond = "2006-01-02 15:04:05"
)

var layouts = []string{layoutDate, layoutMinute, layoutSecond}

// ErrQuit is returned when the user quits an interactive prompt.
var ErrQuit = errors.New("user quit")

// ErrStartAfterEnd is returned when the start instant is after the end.
var ErrStartAfterEnd = errors.New("start datetime is after end datetime")

// ErrFutureWindow is returned when either bound lies in the future.
var ErrFutureWindow = errors.New("window must lie fully in the past")

// Parse interprets a datetime string against the accepted layouts, in local
// time. It also reports which layout matched.
func Parse(s string) (time.Time, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", fmt.Errorf("empty datetime")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unrecognized datetime %q", s)
}

// ParseRange parses and validates a start/end pair. A date-only end is
// bumped to 23:59:59 so it covers the whole day.
func ParseRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	start, _, err := Parse(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}

	end, endLayout, err := Parse(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	if endLayout == layoutDate {
		end = endOfDay(end)
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, ErrStartAfterEnd
	}
	if start.After(now) || end.After(now) {
		return time.Time{}, time.Time{}, ErrFutureWindow
	}

	return start, end, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// Prompt interactively collects a validated range. Entering 'q' at any
// prompt returns ErrQuit. Invalid input re-prompts; it never errors out.
func Prompt(in *bufio.Reader, out io.Writer, now time.Time) (time.Time, time.Time, error) {
	fmt.Fprintln(out, "\nEnter start and end datetimes for the query window.")
	fmt.Fprintln(out, "Accepted formats: 'YYYY-MM-DD' or 'YYYY-MM-DD HH:MM' or 'YYYY-MM-DD HH:MM:SS'.")
	fmt.Fprintln(out, "Type 'q' to quit at any prompt.")
	fmt.Fprintln(out)

	for {
		startStr, err := promptLine(in, out, "Start datetime: ")
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		endStr, err := promptLine(in, out, "End datetime: ")
		if err != nil {
			return time.Time{}, time.Time{}, err
		}

		start, end, err := ParseRange(startStr, endStr, now)
		switch {
		case err == nil:
			fmt.Fprintf(out, "Accepted range: %s  ->  %s (system local time assumed)\n",
				start.Format(layoutSecond), end.Format(layoutSecond))
			return start, end, nil
		case errors.Is(err, ErrStartAfterEnd):
			fmt.Fprintln(out, "Error: start datetime is after end datetime. Please re-enter.")
		case errors.Is(err, ErrFutureWindow):
			fmt.Fprintln(out, "Error: the window must lie fully in the past. Please re-enter.")
		default:
			fmt.Fprintln(out, "Could not parse datetime. Please follow the allowed formats.")
		}
	}
}

// promptLine writes a prompt and reads one trimmed line. 'q' and end of
// input both quit.
func promptLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", ErrQuit
	}

	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "q") {
		return "", ErrQuit
	}
	return line, nil
}
