package calendar

import (
	"fmt"
	"time"
)

// Period is the granularity over which usage accumulates.
type Period string

const (
	// PeriodMonth compares calendar year and month.
	PeriodMonth Period = "month"
	// PeriodHour compares the hour of day only, so a counter recorded at
	// 10:xx is still current at 10:xx the next day. It exists to exercise
	// rollover quickly and is not meant for production.
	PeriodHour Period = "hour"
)

// ParsePeriod accepts "month" or "hour".
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodMonth, PeriodHour:
		return p, nil
	default:
		return "", fmt.Errorf("unknown accounting period %q (want %q or %q)", s, PeriodMonth, PeriodHour)
	}
}

// Compare reports whether t1 and t2 fall in the same period.
// determined is false when either instant could not be decomposed; same is
// then true, so callers fail open.
func Compare(p Period, t1, t2 uint64) (same, determined bool) {
	a, ok := Decompose(t1)
	if !ok {
		return true, false
	}
	b, ok := Decompose(t2)
	if !ok {
		return true, false
	}

	if p == PeriodHour {
		return a.Hour == b.Hour, true
	}
	return a.Year == b.Year && a.Month == b.Month, true
}

// SameAccountingPeriod is Compare without the diagnostics.
func SameAccountingPeriod(p Period, t1, t2 uint64) bool {
	same, _ := Compare(p, t1, t2)
	return same
}

// Seconds converts t to the unsigned counter Decompose expects.
// Instants before 1970 clamp to zero.
func Seconds(t time.Time) uint64 {
	if u := t.Unix(); u > 0 {
		return uint64(u)
	}
	return 0
}
