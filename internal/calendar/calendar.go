// Package calendar decides which calendar dates are trading dates.
//
// The market is closed on weekends and on a configured holiday list.
// The holiday list is supplied by configuration; an empty list means
// weekends are the only closed days.
package calendar

import (
	"time"

	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// Calendar answers trading-date questions for the pipeline.
type Calendar struct {
	holidays map[string]struct{}
	// closeHour is the local hour after which the current date's data is
	// considered final. Before this hour, the latest complete trading
	// date is the previous one.
	closeHour int
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithCloseHour overrides the market close hour (default 15).
func WithCloseHour(hour int) Option {
	return func(c *Calendar) {
		c.closeHour = hour
	}
}

// New creates a Calendar with the given holiday dates.
func New(holidays []types.TradingDate, opts ...Option) *Calendar {
	c := &Calendar{
		holidays:  make(map[string]struct{}, len(holidays)),
		closeHour: 15,
	}

	for _, h := range holidays {
		c.holidays[h.String()] = struct{}{}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// IsTradingDate reports whether the market is open on the given date.
func (c *Calendar) IsTradingDate(d types.TradingDate) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	_, holiday := c.holidays[d.String()]

	return !holiday
}

// PrevTradingDate returns the closest trading date strictly before d.
func (c *Calendar) PrevTradingDate(d types.TradingDate) types.TradingDate {
	for {
		d = d.AddDays(-1)
		if c.IsTradingDate(d) {
			return d
		}
	}
}

// NextTradingDate returns the closest trading date strictly after d.
func (c *Calendar) NextTradingDate(d types.TradingDate) types.TradingDate {
	for {
		d = d.AddDays(1)
		if c.IsTradingDate(d) {
			return d
		}
	}
}

// TradingDatesBetween expands an inclusive date range into the trading
// dates it contains, in ascending order.
func (c *Calendar) TradingDatesBetween(from, to types.TradingDate) ([]types.TradingDate, error) {
	if to.Before(from) {
		return nil, errors.Newf(errors.ErrCodeInvalidDate, "range end %s before start %s", to, from)
	}

	var dates []types.TradingDate

	for d := from; !d.After(to); d = d.AddDays(1) {
		if c.IsTradingDate(d) {
			dates = append(dates, d)
		}
	}

	return dates, nil
}

// LatestTradingDate returns the most recent trading date whose data is
// complete at the given wall-clock time.
func (c *Calendar) LatestTradingDate(now time.Time) types.TradingDate {
	d := types.DateOf(now)
	if c.IsTradingDate(d) && now.Hour() >= c.closeHour {
		return d
	}

	return c.PrevTradingDate(d)
}
