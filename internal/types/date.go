package types

import (
	"time"

	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// DateLayout is the canonical string form of a TradingDate.
const DateLayout = "2006-01-02"

// TradingDate is a calendar date, normalized to midnight UTC. It is the
// pipeline's unit of work: every fetch, computation and commit is keyed
// by one TradingDate.
type TradingDate struct {
	t time.Time
}

// NewTradingDate creates a TradingDate from year, month and day.
func NewTradingDate(year int, month time.Month, day int) TradingDate {
	return TradingDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseTradingDate parses a date in YYYY-MM-DD form.
func ParseTradingDate(s string) (TradingDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TradingDate{}, errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid trading date %q", s)
	}

	return TradingDate{t: t}, nil
}

// DateOf truncates an arbitrary timestamp to its TradingDate.
func DateOf(t time.Time) TradingDate {
	return NewTradingDate(t.Year(), t.Month(), t.Day())
}

// String returns the date in YYYY-MM-DD form.
func (d TradingDate) String() string {
	return d.t.Format(DateLayout)
}

// Time returns the date as midnight UTC.
func (d TradingDate) Time() time.Time {
	return d.t
}

// IsZero reports whether the date is the zero value.
func (d TradingDate) IsZero() bool {
	return d.t.IsZero()
}

// Weekday returns the day of the week.
func (d TradingDate) Weekday() time.Weekday {
	return d.t.Weekday()
}

// AddDays returns the date shifted by n calendar days.
func (d TradingDate) AddDays(n int) TradingDate {
	return TradingDate{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is before other.
func (d TradingDate) Before(other TradingDate) bool {
	return d.t.Before(other.t)
}

// After reports whether d is after other.
func (d TradingDate) After(other TradingDate) bool {
	return d.t.After(other.t)
}

// Equal reports whether d and other are the same date.
func (d TradingDate) Equal(other TradingDate) bool {
	return d.t.Equal(other.t)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d TradingDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *TradingDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	parsed, err := ParseTradingDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}
