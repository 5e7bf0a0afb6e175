// Package session keeps the feed handler running only during exchange
// trading hours.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/scmhub/calendar"
	"go.uber.org/zap"
)

// Guard decides whether the market session is open.
type Guard struct {
	open     time.Duration
	close    time.Duration
	location *time.Location
	nyse     *calendar.Calendar
	logger   *zap.Logger
	clock    clockwork.Clock
}

// Opt configures a Guard.
type Opt func(*Guard)

// WithClock replaces the wall clock.
func WithClock(clock clockwork.Clock) Opt {
	return func(g *Guard) {
		g.clock = clock
	}
}

// NewGuard creates a guard for a daily session from open to closeAt, given
// as offsets from midnight in timezone.
func NewGuard(timezone string, open, closeAt time.Duration, logger *zap.Logger, opts ...Opt) (*Guard, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", timezone, err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("session close %s is not after open %s", closeAt, open)
	}
	g := &Guard{
		open:     open,
		close:    closeAt,
		location: loc,
		nyse:     calendar.XNYS(),
		logger:   logger,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// IsMarketDay checks if t falls on a trading day (not weekend/holiday).
// The date is taken in the session timezone.
func (g *Guard) IsMarketDay(t time.Time) bool {
	t = t.In(g.location)
	// Holidays are keyed by midnight in the calendar's own timezone.
	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, g.nyse.Loc)
	return g.nyse.IsBusinessDay(noon)
}

// IsOpen reports whether t is inside the session of a trading day.
func (g *Guard) IsOpen(t time.Time) bool {
	if !g.IsMarketDay(t) {
		return false
	}
	tod := g.timeOfDay(t)
	return tod >= g.open && tod < g.close
}

// NextOpen returns the first session open at or after t.
func (g *Guard) NextOpen(t time.Time) time.Time {
	t = t.In(g.location)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.location)
	// A year bounds the search even with a broken calendar.
	for i := 0; i < 366; i++ {
		if g.IsMarketDay(day) {
			open := day.Add(g.open)
			if !open.Before(t) {
				return open
			}
			if g.IsOpen(t) {
				return t
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return day.Add(g.open)
}

func (g *Guard) timeOfDay(t time.Time) time.Duration {
	t = t.In(g.location)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.location)
	return t.Sub(midnight)
}

// WaitOpen blocks until the session is open, checking every interval.
func (g *Guard) WaitOpen(ctx context.Context, interval time.Duration) error {
	if g.IsOpen(g.clock.Now()) {
		return nil
	}
	g.logger.Info("market closed, waiting for session open",
		zap.Time("next_open", g.NextOpen(g.clock.Now())),
	)
	return g.poll(ctx, interval, true)
}

// WaitClose blocks until the session is closed, checking every interval.
func (g *Guard) WaitClose(ctx context.Context, interval time.Duration) error {
	if err := g.poll(ctx, interval, false); err != nil {
		return err
	}
	g.logger.Info("session closed")
	return nil
}

func (g *Guard) poll(ctx context.Context, interval time.Duration, wantOpen bool) error {
	ticker := g.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if g.IsOpen(g.clock.Now()) == wantOpen {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}
