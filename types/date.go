package types

import "time"

// Layouts used when dates and times travel as strings.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate returns the date y-m-d in UTC.
func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// String formats the date as 2006-01-02.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Interval is a calendar-aware span of time. Units are kept separately
// because a month or a year has no fixed length.
type Interval struct {
	Years        int
	Months       int
	Days         int
	Hours        int
	Minutes      int
	Seconds      int
	Microseconds int
	// Invert negates the whole interval.
	Invert bool
}

// IntervalFromDuration splits d into hours, minutes, seconds and
// microseconds. Negative durations set Invert.
func IntervalFromDuration(d time.Duration) Interval {
	var iv Interval
	if d < 0 {
		iv.Invert = true
		d = -d
	}
	iv.Hours = int(d / time.Hour)
	d -= time.Duration(iv.Hours) * time.Hour
	iv.Minutes = int(d / time.Minute)
	d -= time.Duration(iv.Minutes) * time.Minute
	iv.Seconds = int(d / time.Second)
	d -= time.Duration(iv.Seconds) * time.Second
	iv.Microseconds = int(d / time.Microsecond)
	return iv
}

// IsZero reports whether every unit of the interval is zero.
func (iv Interval) IsZero() bool {
	return iv.Years == 0 && iv.Months == 0 && iv.Days == 0 &&
		iv.Hours == 0 && iv.Minutes == 0 && iv.Seconds == 0 && iv.Microseconds == 0
}
