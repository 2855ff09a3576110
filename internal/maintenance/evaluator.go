// Package maintenance evaluates recurring maintenance windows. The
// evaluation is a pure function of (schedule, instant) with no I/O, so
// calendar edge cases can be tested exhaustively.
package maintenance

import (
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

// Active reports whether now falls inside the schedule's current window.
// The window is half-open [start, end). A window whose end is earlier than
// its start wraps past midnight, so a wrapped window that started yesterday
// still covers the early minutes of today.
func Active(s *domain.MaintenanceSchedule, now time.Time) bool {
	if s == nil || !s.Enabled {
		return false
	}

	nowMin := now.Hour()*60 + now.Minute()
	start := s.Start.MinuteOfDay()
	end := s.End.MinuteOfDay()

	if start < end {
		return nowMin >= start && nowMin < end && dayMatches(s, now)
	}

	// Wrapped window: either today's occurrence has started, or
	// yesterday's occurrence is still open.
	if nowMin >= start && dayMatches(s, now) {
		return true
	}
	if nowMin < end && dayMatches(s, now.AddDate(0, 0, -1)) {
		return true
	}
	return false
}

// dayMatches reports whether the schedule has an occurrence on day.
func dayMatches(s *domain.MaintenanceSchedule, day time.Time) bool {
	switch s.Freq {
	case domain.FreqDaily:
		return true
	case domain.FreqWeekly:
		for _, wd := range s.Weekdays {
			if day.Weekday() == wd {
				return true
			}
		}
		return false
	case domain.FreqMonthly:
		eff := s.MonthDay
		if last := daysInMonth(day); eff > last {
			eff = last
		}
		return day.Day() == eff
	}
	return false
}

func daysInMonth(t time.Time) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
