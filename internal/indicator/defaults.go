package indicator

// DefaultRegistry returns a registry populated with the stock indicator
// set the daily job computes: moving averages up to the yearly line,
// EMA, RSI, MACD, Bollinger bands, ATR, KDJ and volume statistics.
func DefaultRegistry() (Registry, error) {
	registry := NewRegistry()

	all := []Indicator{
		NewMA(5),
		NewMA(10),
		NewMA(20),
		NewMA(30),
		NewMA(60),
		NewMA(250),
		NewEMA(12),
		NewEMA(26),
		NewRSI(6),
		NewRSI(12),
		NewRSI(24),
		NewMACDDiff(),
		NewMACDDEA(),
		NewMACDHist(),
		NewBollingerUpper(),
		NewBollingerMiddle(),
		NewBollingerLower(),
		NewATR(14),
		NewKDJK(),
		NewKDJD(),
		NewKDJJ(),
		NewVolMA(5),
		NewVolMA(10),
		NewVolumeRatio(5),
		NewChangePct(),
	}

	for _, ind := range all {
		if err := registry.Register(ind); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
