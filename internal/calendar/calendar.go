// Package calendar turns raw elapsed-seconds counters into civil dates
// without consulting the time package, and decides whether two instants
// share an accounting period.
//
// The decomposition walks 400, 100 and 4 year Gregorian cycles counted from
// 2000-03-01, the day after a 400-year leap day, so the leap day always
// falls at the end of a cycle and no intermediate value needs more than 64
// bits.
package calendar

import "math"

const (
	secsPerDay = 86400

	// leapoch is 2000-03-01T00:00:00Z in Unix seconds.
	leapoch = 946684800 + secsPerDay*(31+29)

	daysPer400Y = 365*400 + 97
	daysPer100Y = 365*100 + 24
	daysPer4Y   = 365*4 + 1
)

// daysInMonth starts at March; February is last so its length never
// matters for the walk.
var daysInMonth = [12]int64{31, 30, 31, 30, 31, 31, 30, 31, 30, 31, 31, 29}

// Tm is a broken-down UTC instant.
type Tm struct {
	Year    int64
	Month   int // 1..12
	Day     int // 1..31
	Hour    int
	Minute  int
	Second  int
	Weekday int // 0 = Sunday
	YearDay int // 0-based
}

// Decompose converts secs since 1970-01-01T00:00:00Z into a Tm.
// It returns false when the year cannot be represented the way a C
// struct tm does (tm_year = year-1900 as a signed 32-bit integer).
func Decompose(secs uint64) (Tm, bool) {
	var days, remsecs int64
	if secs >= leapoch {
		diff := secs - leapoch
		days = int64(diff / secsPerDay)
		remsecs = int64(diff % secsPerDay)
	} else {
		diff := int64(secs) - leapoch
		days = diff / secsPerDay
		remsecs = diff % secsPerDay
		if remsecs < 0 {
			remsecs += secsPerDay
			days--
		}
	}

	wday := (3 + days) % 7
	if wday < 0 {
		wday += 7
	}

	qcCycles := days / daysPer400Y
	remdays := days % daysPer400Y
	if remdays < 0 {
		remdays += daysPer400Y
		qcCycles--
	}

	cCycles := remdays / daysPer100Y
	if cCycles == 4 {
		cCycles--
	}
	remdays -= cCycles * daysPer100Y

	qCycles := remdays / daysPer4Y
	if qCycles == 25 {
		qCycles--
	}
	remdays -= qCycles * daysPer4Y

	remyears := remdays / 365
	if remyears == 4 {
		remyears--
	}
	remdays -= remyears * 365

	var leap int64
	if remyears == 0 && (qCycles != 0 || cCycles == 0) {
		leap = 1
	}
	yday := remdays + 31 + 28 + leap
	if yday >= 365+leap {
		yday -= 365 + leap
	}

	years := remyears + 4*qCycles + 100*cCycles + 400*qcCycles

	months := 0
	for daysInMonth[months] <= remdays {
		remdays -= daysInMonth[months]
		months++
	}
	if months >= 10 {
		months -= 12
		years++
	}

	if years+100 > math.MaxInt32 || years+100 < math.MinInt32 {
		return Tm{}, false
	}

	return Tm{
		Year:    years + 2000,
		Month:   months + 3,
		Day:     int(remdays) + 1,
		Hour:    int(remsecs / 3600),
		Minute:  int(remsecs / 60 % 60),
		Second:  int(remsecs % 60),
		Weekday: int(wday),
		YearDay: int(yday),
	}, true
}
