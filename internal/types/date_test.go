package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradingDate(t *testing.T) {
	d, err := ParseTradingDate("2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", d.String())
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = ParseTradingDate("09/03/2026")
	assert.Error(t, err)

	_, err = ParseTradingDate("")
	assert.Error(t, err)
}

func TestDateOfNormalizesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	d := DateOf(time.Date(2026, time.March, 9, 16, 30, 0, 0, loc))

	assert.Equal(t, "2026-03-09", d.String())
	assert.Equal(t, time.UTC, d.Time().Location())
	assert.Equal(t, 0, d.Time().Hour())
}

func TestAddDays(t *testing.T) {
	d := NewTradingDate(2026, time.February, 27)

	assert.Equal(t, "2026-03-01", d.AddDays(2).String())
	assert.Equal(t, "2026-02-26", d.AddDays(-1).String())
}

func TestDateOrdering(t *testing.T) {
	a := NewTradingDate(2026, time.March, 9)
	b := NewTradingDate(2026, time.March, 10)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(NewTradingDate(2026, time.March, 9)))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewTradingDate(2026, time.March, 9)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-09"`, string(raw))

	var back TradingDate
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, d.Equal(back))

	assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &back))
}
