package collector

import (
	"sync"
	"time"

	"github.com/scmhub/calendar"
)

var (
	nyOnce sync.Once
	nyLoc  *time.Location
)

func newYork() *time.Location {
	nyOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		nyLoc = loc
	})
	return nyLoc
}

// SessionDay returns the NYSE trading day whose intraday bars are current at now: today when
// it is a business day, otherwise the most recent business day before it. The result is
// midnight in the exchange's time zone.
func SessionDay(now time.Time) time.Time {
	cal := calendar.GetCalendar("xnys")
	loc := newYork()
	if cal != nil && cal.Loc != nil {
		loc = cal.Loc
	}

	d := now.In(loc)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	for i := 0; i < 10 && !isTradingDay(cal, d); i++ {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func isTradingDay(cal *calendar.Calendar, d time.Time) bool {
	if cal == nil {
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return cal.IsBusinessDay(d)
}
