package stats

import (
	"testing"
	"time"
)

func TestBusinessDaysBetween(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, time.January, d, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{"SameInstant", day(3, 9), day(3, 9), 0},
		{"SameDayLater", day(3, 9), day(3, 17), 0},
		{"MondayToNextMonday", day(1, 0), day(8, 0), 5},
		{"TimeOfDayIgnored", day(1, 23), day(8, 1), 5},
		{"FridayToMonday", day(5, 12), day(8, 12), 1},
		{"SaturdayToMonday", day(6, 12), day(8, 12), 0},
		{"Reversed", day(8, 0), day(1, 0), 0},
		{"ZeroStart", time.Time{}, day(8, 0), 0},
		{"ZeroEnd", day(1, 0), time.Time{}, 0},
		{"TwoWeeks", day(1, 0), day(15, 0), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BusinessDaysBetween(tt.start, tt.end); got != tt.expected {
				t.Errorf("BusinessDaysBetween() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBusinessDaysBetween_MixedLocations(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	start := time.Date(2024, time.January, 1, 0, 30, 0, 0, berlin)
	// 23:30 UTC on Sunday the 7th is already Monday the 8th in CET.
	end := time.Date(2024, time.January, 7, 23, 30, 0, 0, time.UTC)

	if got := BusinessDaysBetween(start, end); got != 5 {
		t.Errorf("BusinessDaysBetween() = %v, want 5", got)
	}
}
