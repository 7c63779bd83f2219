package services

import (
	"errors"
	"testing"
	"time"

	"fondi/internal/core"
)

func TestDailyCheckerIsDue(t *testing.T) {
	checker := DailyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	start := core.NewDate(2024, 1, 1)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{"never ran", time.Time{}, true},
		{"ran today", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), false},
		{"ran yesterday", time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, now, start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyCheckerIsDue(t *testing.T) {
	checker := WeeklyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	start := core.NewDate(2024, 1, 1)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{"never ran", time.Time{}, true},
		{"ran 3 days ago", time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC), false},
		{"ran 7 days ago", time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), true},
		{"ran 10 days ago", time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, now, start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyCheckerIsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		start   core.Date
		want    bool
	}{
		{
			name:  "never ran",
			now:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			start: core.NewDate(2024, 1, 10),
			want:  true,
		},
		{
			name:    "ran this month",
			lastRun: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 1, 10),
			want:    false,
		},
		{
			name:    "new month before anchor day",
			lastRun: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 1, 15),
			want:    false,
		},
		{
			name:    "new month on anchor day",
			lastRun: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 1, 15),
			want:    true,
		},
		{
			name:    "anchor day 31 clamps in February",
			lastRun: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), // leap year
			start:   core.NewDate(2024, 1, 31),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now, tt.start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyCheckerIsDue(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		start   core.Date
		want    bool
	}{
		{
			name:  "never ran",
			now:   time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			start: core.NewDate(2024, 3, 15),
			want:  true,
		},
		{
			name:    "ran this year",
			lastRun: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 3, 15),
			want:    false,
		},
		{
			name:    "new year before anchor month",
			lastRun: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 6, 15),
			want:    false,
		},
		{
			name:    "new year past anchor month",
			lastRun: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 3, 15),
			want:    true,
		},
		{
			name:    "anchor month before anchor day",
			lastRun: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 6, 15),
			want:    false,
		},
		{
			name:    "anchor month on anchor day",
			lastRun: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			now:     time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			start:   core.NewDate(2024, 6, 15),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastRun, tt.now, tt.start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.Frequency
		wantErr   bool
	}{
		{"daily", core.Daily, false},
		{"weekly", core.Weekly, false},
		{"monthly", core.Monthly, false},
		{"yearly", core.Yearly, false},
		{"unknown", core.Frequency("biweekly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.Is(err, core.ErrInvalidFrequency) {
				t.Errorf("expected ErrInvalidFrequency, got %v", err)
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}

func TestRegisterDuenessChecker(t *testing.T) {
	customFreq := core.Frequency("biweekly")
	RegisterDuenessChecker(customFreq, WeeklyChecker{})
	defer delete(duenessStrategies, customFreq)

	checker, err := GetDuenessChecker(customFreq)
	if err != nil {
		t.Fatalf("GetDuenessChecker() after register: %v", err)
	}
	if checker == nil {
		t.Fatal("GetDuenessChecker() returned nil after registration")
	}
}
