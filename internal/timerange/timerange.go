// Package timerange turns user supplied time bounds into millisecond epoch windows.
package timerange

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrInvalidTimeFormat = errors.New("invalid time format")

// Bound selects which end of a day a bare date resolves to.
type Bound int

const (
	Start Bound = iota
	End
)

const (
	dateLayout = "2006-01-02"

	// Epoch values below this are taken as seconds.
	secondsThreshold = 10_000_000_000

	DefaultSpan = 24 * time.Hour
)

// Window is an inclusive [StartMs, EndMs] range in milliseconds since the epoch.
type Window struct {
	StartMs int64
	EndMs   int64

	// Defaulted is set when the window was not given explicitly.
	Defaulted bool
	// Epoch is set when both bounds were given as epoch timestamps.
	Epoch bool
}

func (w Window) Start() time.Time { return time.UnixMilli(w.StartMs) }

func (w Window) End() time.Time { return time.UnixMilli(w.EndMs) }

func (w Window) Duration() time.Duration {
	return time.Duration(w.EndMs-w.StartMs) * time.Millisecond
}

// Normalize converts a bare epoch (seconds or milliseconds) or a YYYY-MM-DD
// date in the local zone to epoch milliseconds. ok is false for empty input.
func Normalize(input string, bound Bound) (ms int64, ok bool, err error) {
	return NormalizeIn(input, bound, time.Local)
}

func NormalizeIn(input string, bound Bound, loc *time.Location) (ms int64, ok bool, err error) {
	if input == "" {
		return 0, false, nil
	}

	if isDigits(input) {
		n, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q is out of range", ErrInvalidTimeFormat, input)
		}
		if n < secondsThreshold {
			return n * 1000, true, nil
		}
		return n, true, nil
	}

	day, err := time.ParseInLocation(dateLayout, input, loc)
	if err != nil {
		return 0, false, fmt.Errorf("%w: unable to parse %q, use YYYY-MM-DD or a timestamp", ErrInvalidTimeFormat, input)
	}
	if bound == End {
		day = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	}
	return day.UnixMilli(), true, nil
}

// Resolve builds the report window. Unless both bounds are given the window
// defaults to the DefaultSpan ending at now.
func Resolve(startAt, endAt string, now time.Time) (Window, error) {
	if startAt == "" || endAt == "" {
		return Window{
			StartMs:   now.Add(-DefaultSpan).UnixMilli(),
			EndMs:     now.UnixMilli(),
			Defaulted: true,
		}, nil
	}

	start, _, err := Normalize(startAt, Start)
	if err != nil {
		return Window{}, fmt.Errorf("start: %w", err)
	}
	end, _, err := Normalize(endAt, End)
	if err != nil {
		return Window{}, fmt.Errorf("end: %w", err)
	}
	return Window{StartMs: start, EndMs: end, Epoch: isDigits(startAt) && isDigits(endAt)}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
