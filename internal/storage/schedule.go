package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Schedule is a weekly wall clock time.
type Schedule struct {
	Weekday time.Weekday
	Hour    int
	// Location defaults to time.Local.
	Location *time.Location
}

// Next returns the first scheduled time strictly after now.
func (s Schedule) Next(now time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	days := (int(s.Weekday) - int(now.Weekday()) + 7) % 7
	t := time.Date(now.Year(), now.Month(), now.Day()+days, s.Hour, 0, 0, 0, loc)
	if !t.After(now) {
		t = time.Date(now.Year(), now.Month(), now.Day()+days+7, s.Hour, 0, 0, 0, loc)
	}
	return t
}

// ParseWeekday parses an English weekday name such as "sunday" or "Sun".
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// RunWeekly runs sw at every scheduled time until ctx is canceled. A failed
// run is logged and the next one is scheduled normally.
func RunWeekly(ctx context.Context, sw *Sweeper, s Schedule) error {
	for {
		next := s.Next(time.Now())
		slog.InfoContext(ctx, "Next orphan sweep scheduled", "at", next)
		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		report, err := sw.Sweep(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Orphan sweep aborted", "err", err)
			continue
		}
		if err := report.Err(); err != nil {
			slog.WarnContext(ctx, "Orphan sweep finished with errors", "err", err)
		}
	}
}
