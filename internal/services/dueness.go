package services

import (
	"fmt"
	"time"

	"fondi/internal/core"
)

// DuenessChecker decides whether a recurring income should run again, given
// when it last ran, the current time, and its anchor date.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time, start core.Date) bool
}

// DailyChecker fires once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker fires when at least seven days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun).Hours()/24 >= 7
}

// MonthlyChecker fires once per month on the anchor's day-of-month. An
// anchor day missing from the current month (the 31st in February) clamps
// to the month's last day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time, start core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(start.Day(), now)
}

// YearlyChecker fires once per year on the anchor's month and day, with the
// same month-end clamping as MonthlyChecker.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRun, now time.Time, start core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() {
		return false
	}
	if int(now.Month()) < start.Month() {
		return false
	}
	if int(now.Month()) == start.Month() {
		return now.Day() >= clampDay(start.Day(), now)
	}
	return true
}

// clampDay caps a target day-of-month to the last day of now's month.
func clampDay(day int, now time.Time) int {
	last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// duenessStrategies maps frequencies to their checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(freq core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[freq]
	if !ok {
		return nil, fmt.Errorf("frequency %q: %w", freq, core.ErrInvalidFrequency)
	}
	return checker, nil
}

// RegisterDuenessChecker adds or replaces the checker for a frequency.
func RegisterDuenessChecker(freq core.Frequency, checker DuenessChecker) {
	duenessStrategies[freq] = checker
}
