package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscan-lab/marketscan/pkg/errors"
)

func TestSecID(t *testing.T) {
	assert.Equal(t, "1.600000", secID("600000"))
	assert.Equal(t, "1.688981", secID("688981"))
	assert.Equal(t, "0.000001", secID("000001"))
	assert.Equal(t, "0.300750", secID("300750"))
}

func TestParseKline(t *testing.T) {
	// date,open,close,high,low,volume,amount,amplitude,change_pct,change,turnover
	line := "2026-03-09,10.00,10.30,10.45,9.95,500000,5150000.0,5.00,3.00,0.30,1.25"

	bar, err := parseKline("600000", line)
	require.NoError(t, err)

	assert.Equal(t, "600000", bar.Code)
	assert.Equal(t, "2026-03-09", bar.Date.String())
	assert.InDelta(t, 10.00, bar.Open, 1e-9)
	assert.InDelta(t, 10.30, bar.Close, 1e-9)
	assert.InDelta(t, 10.45, bar.High, 1e-9)
	assert.InDelta(t, 9.95, bar.Low, 1e-9)
	assert.InDelta(t, 500000, bar.Volume, 1e-9)
	assert.InDelta(t, 5150000.0, bar.Amount, 1e-9)
	assert.InDelta(t, 3.00, bar.ChangePct, 1e-9)
	assert.InDelta(t, 1.25, bar.TurnoverPct, 1e-9)
}

func TestParseKlineMalformed(t *testing.T) {
	cases := []string{
		"2026-03-09,10.00,10.30",                                               // too few fields
		"bogus,10.00,10.30,10.45,9.95,500000,5150000.0,5.00,3.00,0.30,1.25",    // bad date
		"2026-03-09,ten,10.30,10.45,9.95,500000,5150000.0,5.00,3.00,0.30,1.25", // bad number
	}

	for _, line := range cases {
		_, err := parseKline("600000", line)
		require.Error(t, err, "line %q should not parse", line)
		assert.True(t, errors.HasCode(err, errors.ErrCodeFetchMalformedPayload))
	}
}
