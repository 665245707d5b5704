package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
)

// stubStore serves canned data for the handler tests.
type stubStore struct {
	bars    []types.Bar
	row     types.IndicatorRow
	results []types.StrategyResult
}

func (s *stubStore) CommitDate(context.Context, types.TradingDate, []types.Bar, []types.IndicatorRow, []types.StrategyResult) error {
	return nil
}

func (s *stubStore) GetBars(_ context.Context, code string, from, to types.TradingDate) ([]types.Bar, error) {
	var out []types.Bar

	for _, b := range s.bars {
		if b.Code == code && !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}

	return out, nil
}

func (s *stubStore) GetIndicators(context.Context, string, types.TradingDate) (types.IndicatorRow, error) {
	return s.row, nil
}

func (s *stubStore) GetStrategyResults(_ context.Context, _ types.TradingDate, strategyName string) ([]types.StrategyResult, error) {
	if strategyName == "" {
		return s.results, nil
	}

	var out []types.StrategyResult

	for _, r := range s.results {
		if r.Strategy == strategyName {
			out = append(out, r)
		}
	}

	return out, nil
}

func (s *stubStore) ListMatches(ctx context.Context, date types.TradingDate) ([]types.StrategyResult, error) {
	return s.GetStrategyResults(ctx, date, "")
}

func (s *stubStore) Close() error { return nil }

func newTestServer() (*Server, *stubStore) {
	date := types.NewTradingDate(2026, time.March, 9)

	row := types.NewIndicatorRow("600000", date)
	row.Values["ma5"] = optional.Some(10.5)
	row.Values["ma250"] = optional.None[float64]()

	st := &stubStore{
		bars: []types.Bar{
			{Code: "600000", Date: date, Open: 10, High: 10.5, Low: 9.8, Close: 10.2, Volume: 1000},
		},
		row: row,
		results: []types.StrategyResult{
			{Strategy: "turtle_trade", Code: "600000", Name: "SPD Bank", Date: date, Score: 10.2},
			{Strategy: "volume_surge", Code: "000001", Name: "Ping An Bank", Date: date, Score: 2.5},
		},
	}

	return New(st, ":0", logger.NewNopLogger()), st
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	return rec
}

func TestGetBars(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/api/bars/600000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var bars []types.Bar
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bars))
	require.Len(t, bars, 1)
	assert.Equal(t, "600000", bars[0].Code)
}

func TestGetBarsRange(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/api/bars/600000?from=2026-03-10&to=2026-03-20")
	require.Equal(t, http.StatusOK, rec.Code)

	var bars []types.Bar
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bars))
	assert.Empty(t, bars)

	rec = get(t, srv, "/api/bars/600000?from=not-a-date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetIndicatorsRendersUndefinedAsNull(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/api/indicators/600000/2026-03-09")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Code   string              `json:"code"`
		Date   string              `json:"date"`
		Values map[string]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "600000", resp.Code)
	require.Contains(t, resp.Values, "ma5")
	require.NotNil(t, resp.Values["ma5"])
	assert.InDelta(t, 10.5, *resp.Values["ma5"], 1e-9)

	// Undefined comes through as JSON null, never 0.
	require.Contains(t, resp.Values, "ma250")
	assert.Nil(t, resp.Values["ma250"])
}

func TestGetResults(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/api/results/2026-03-09")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []types.StrategyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 2)

	rec = get(t, srv, "/api/results/2026-03-09?strategy=turtle_trade")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "turtle_trade", results[0].Strategy)

	rec = get(t, srv, "/api/results/bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMatches(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/api/matches/2026-03-09")
	require.Equal(t, http.StatusOK, rec.Code)

	var matches []types.StrategyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	assert.Len(t, matches, 2)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
