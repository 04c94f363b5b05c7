package storage

import (
	"testing"
	"time"
)

func TestScheduleNext(t *testing.T) {
	s := Schedule{Weekday: time.Sunday, Hour: 2, Location: time.UTC}
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		// 2024-03-06 is a Wednesday.
		{"midweek", time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)},
		{"sunday before", time.Date(2024, 3, 10, 1, 59, 0, 0, time.UTC), time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)},
		{"sunday exactly", time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 2, 0, 0, 0, time.UTC)},
		{"sunday after", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 2, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)},
		{"month boundary", time.Date(2024, 3, 31, 3, 0, 0, 0, time.UTC), time.Date(2024, 4, 7, 2, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Next(tt.now); !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestScheduleNextLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	s := Schedule{Weekday: time.Sunday, Hour: 2, Location: loc}
	// Sunday 05:00 UTC is Sunday 00:00 in loc.
	got := s.Next(time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC))
	want := time.Date(2024, 3, 10, 2, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Next() = %v, want %v", got, want)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"sunday", time.Sunday, true},
		{"Sun", time.Sunday, true},
		{" WEDNESDAY ", time.Wednesday, true},
		{"sat", time.Saturday, true},
		{"s", 0, false},
		{"funday", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseWeekday(%q) = %v, %v", tt.in, got, err)
		}
	}
}
