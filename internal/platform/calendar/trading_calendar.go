// Package calendar decides whether an exchange traded on a given day.
package calendar

import (
	"log/slog"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// DefaultMIC is the NYSE market identifier code (ISO 10383).
const DefaultMIC = "xnys"

// TradingCalendar answers trading-day questions for one exchange using scmhub/calendar.
// When the exchange is unknown it treats Monday to Friday as trading days.
type TradingCalendar struct {
	cal      *calendar.Calendar
	loc      *time.Location
	fallback bool
}

// New returns the calendar for mic. An empty mic selects DefaultMIC.
func New(mic string) *TradingCalendar {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		mic = DefaultMIC
	}

	if cal := calendar.GetCalendar(mic); cal != nil {
		return &TradingCalendar{cal: cal, loc: cal.Loc}
	}

	slog.Warn("unknown exchange calendar, falling back to weekdays", "mic", mic)
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &TradingCalendar{loc: loc, fallback: true}
}

// IsTradingDay reports whether t falls on a business day in the exchange's time zone.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	if tc.loc != nil {
		t = t.In(tc.loc)
	}
	if tc.fallback {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(t)
}
