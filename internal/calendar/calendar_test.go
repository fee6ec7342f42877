package calendar

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatchesTime(t *testing.T, secs uint64) {
	t.Helper()

	got, ok := Decompose(secs)
	require.True(t, ok, "Decompose(%d) failed", secs)

	want := time.Unix(int64(secs), 0).UTC()
	assert.Equal(t, int64(want.Year()), got.Year, "year of %d", secs)
	assert.Equal(t, int(want.Month()), got.Month, "month of %d", secs)
	assert.Equal(t, want.Day(), got.Day, "day of %d", secs)
	assert.Equal(t, want.Hour(), got.Hour, "hour of %d", secs)
	assert.Equal(t, want.Minute(), got.Minute, "minute of %d", secs)
	assert.Equal(t, want.Second(), got.Second, "second of %d", secs)
	assert.Equal(t, int(want.Weekday()), got.Weekday, "weekday of %d", secs)
	assert.Equal(t, want.YearDay()-1, got.YearDay, "yearday of %d", secs)
}

func TestDecompose_Landmarks(t *testing.T) {
	landmarks := []uint64{
		0,            // 1970-01-01 Thursday
		951782399,    // 2000-02-28T23:59:59
		951782400,    // 2000-02-29
		951868799,    // 2000-02-29T23:59:59
		leapoch,      // 2000-03-01
		leapoch - 1,  // one second before the epoch offset
		1700000000,   // 2023-11-14T22:13:20
		1709164800,   // 2024-02-29
		4102444800,   // 2100-01-01
		4107542400,   // 2100-03-01, 2100 is not a leap year
		4294967295,   // uint32 max, 2106-02-07
		13574563200,  // 2400-02-29
		253402300799, // 9999-12-31T23:59:59
	}
	for _, secs := range landmarks {
		assertMatchesTime(t, secs)
	}
}

func TestDecompose_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		assertMatchesTime(t, uint64(rng.Int63n(1<<36)))
	}
}

func TestDecompose_Overflow(t *testing.T) {
	_, ok := Decompose(math.MaxUint64)
	assert.False(t, ok, "year of MaxUint64 seconds does not fit a 32-bit tm_year")

	tm, ok := Decompose(1 << 40)
	require.True(t, ok)
	assert.Greater(t, tm.Year, int64(30000))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	p, err = ParsePeriod("hour")
	require.NoError(t, err)
	assert.Equal(t, PeriodHour, p)

	_, err = ParsePeriod("week")
	assert.Error(t, err)
}

func unix(s string) uint64 {
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return uint64(tm.Unix())
}

func TestSameAccountingPeriod_Month(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same day", "2024-05-01T00:00:00Z", "2024-05-01T12:00:00Z", true},
		{"month start and end", "2024-05-01T00:00:00Z", "2024-05-31T23:59:59Z", true},
		{"month boundary", "2024-05-31T23:59:59Z", "2024-06-01T00:00:00Z", false},
		{"same month next year", "2024-05-10T00:00:00Z", "2025-05-10T00:00:00Z", false},
		{"leap day", "2024-02-01T00:00:00Z", "2024-02-29T23:00:00Z", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameAccountingPeriod(PeriodMonth, unix(tt.a), unix(tt.b)))
		})
	}
}

func TestSameAccountingPeriod_Hour(t *testing.T) {
	a := unix("2024-05-01T10:05:00Z")

	assert.True(t, SameAccountingPeriod(PeriodHour, a, unix("2024-05-01T10:59:59Z")))
	assert.False(t, SameAccountingPeriod(PeriodHour, a, unix("2024-05-01T11:00:00Z")))
	// Only the hour of day is compared.
	assert.True(t, SameAccountingPeriod(PeriodHour, a, unix("2024-07-19T10:30:00Z")))
}

func TestCompare_FailsOpen(t *testing.T) {
	same, determined := Compare(PeriodMonth, unix("2024-05-01T00:00:00Z"), math.MaxUint64)
	assert.True(t, same)
	assert.False(t, determined)

	same, determined = Compare(PeriodMonth, math.MaxUint64, 0)
	assert.True(t, same)
	assert.False(t, determined)

	assert.True(t, SameAccountingPeriod(PeriodHour, math.MaxUint64, unix("2024-05-01T10:00:00Z")))
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, uint64(0), Seconds(time.Unix(-5, 0)))
	assert.Equal(t, uint64(1700000000), Seconds(time.Unix(1700000000, 0)))
}
