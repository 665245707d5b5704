package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

type DuckDBStoreTestSuite struct {
	suite.Suite
	store *DuckDBStore
	ctx   context.Context
}

func TestDuckDBStoreSuite(t *testing.T) {
	suite.Run(t, new(DuckDBStoreTestSuite))
}

func (s *DuckDBStoreTestSuite) SetupTest() {
	st, err := NewDuckDBStore("", logger.NewNopLogger())
	s.Require().NoError(err)

	s.store = st
	s.ctx = context.Background()
}

func (s *DuckDBStoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *DuckDBStoreTestSuite) date(day int) types.TradingDate {
	return types.NewTradingDate(2026, time.March, day)
}

func (s *DuckDBStoreTestSuite) bar(code string, date types.TradingDate, close float64) types.Bar {
	return types.Bar{
		Code: code, Date: date,
		Open: close - 0.1, High: close + 0.2, Low: close - 0.3, Close: close,
		Volume: 1000, Amount: close * 1000, ChangePct: 1.5, TurnoverPct: 0.8,
	}
}

func (s *DuckDBStoreTestSuite) row(code string, date types.TradingDate) types.IndicatorRow {
	row := types.NewIndicatorRow(code, date)
	row.Values["ma5"] = optional.Some(10.5)
	row.Values["ma250"] = optional.None[float64]()

	return row
}

func (s *DuckDBStoreTestSuite) TestCommitAndReadBack() {
	date := s.date(9)

	bars := []types.Bar{s.bar("600000", date, 10.2)}
	rows := []types.IndicatorRow{s.row("600000", date)}
	results := []types.StrategyResult{{
		Strategy: "turtle_trade", Code: "600000", Name: "SPD Bank",
		Date: date, Score: 10.2,
		Params: map[string]float64{"window_high": 10.2},
	}}

	s.Require().NoError(s.store.CommitDate(s.ctx, date, bars, rows, results))

	gotBars, err := s.store.GetBars(s.ctx, "600000", date, date)
	s.Require().NoError(err)
	s.Require().Len(gotBars, 1)
	s.Equal(bars[0], gotBars[0])

	gotRow, err := s.store.GetIndicators(s.ctx, "600000", date)
	s.Require().NoError(err)
	s.True(gotRow.Defined("ma5"))
	s.InDelta(10.5, gotRow.Value("ma5").Unwrap(), 1e-9)
	// Undefined survives the round trip as undefined, not zero.
	s.True(gotRow.Value("ma250").IsNone())

	gotResults, err := s.store.GetStrategyResults(s.ctx, date, "")
	s.Require().NoError(err)
	s.Require().Len(gotResults, 1)
	s.Equal("turtle_trade", gotResults[0].Strategy)
	s.InDelta(10.2, gotResults[0].Params["window_high"], 1e-9)
}

func (s *DuckDBStoreTestSuite) TestRecommitOverwrites() {
	date := s.date(9)

	first := []types.Bar{s.bar("600000", date, 10.0)}
	s.Require().NoError(s.store.CommitDate(s.ctx, date, first, nil, nil))

	second := []types.Bar{s.bar("600000", date, 11.0)}
	s.Require().NoError(s.store.CommitDate(s.ctx, date, second, nil, nil))

	// Exactly one bar per (code, date), holding the latest commit.
	gotBars, err := s.store.GetBars(s.ctx, "600000", date, date)
	s.Require().NoError(err)
	s.Require().Len(gotBars, 1)
	s.InDelta(11.0, gotBars[0].Close, 1e-9)
}

func (s *DuckDBStoreTestSuite) TestRecommitIsIdempotent() {
	date := s.date(9)

	bars := []types.Bar{s.bar("600000", date, 10.0)}
	rows := []types.IndicatorRow{s.row("600000", date)}

	s.Require().NoError(s.store.CommitDate(s.ctx, date, bars, rows, nil))

	before, err := s.store.GetBars(s.ctx, "600000", date, date)
	s.Require().NoError(err)

	s.Require().NoError(s.store.CommitDate(s.ctx, date, bars, rows, nil))

	after, err := s.store.GetBars(s.ctx, "600000", date, date)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *DuckDBStoreTestSuite) TestCommitsForDifferentDatesAreIndependent() {
	d1, d2 := s.date(9), s.date(10)

	s.Require().NoError(s.store.CommitDate(s.ctx, d1, []types.Bar{s.bar("600000", d1, 10)}, nil, nil))
	s.Require().NoError(s.store.CommitDate(s.ctx, d2, []types.Bar{s.bar("600000", d2, 11)}, nil, nil))

	// Rewriting d2 leaves d1 untouched.
	s.Require().NoError(s.store.CommitDate(s.ctx, d2, []types.Bar{s.bar("600000", d2, 12)}, nil, nil))

	bars, err := s.store.GetBars(s.ctx, "600000", d1, d2)
	s.Require().NoError(err)
	s.Require().Len(bars, 2)
	s.InDelta(10, bars[0].Close, 1e-9)
	s.InDelta(12, bars[1].Close, 1e-9)
}

func (s *DuckDBStoreTestSuite) TestCommitRejectsForeignDate() {
	date := s.date(9)
	stray := s.bar("600000", s.date(10), 10)

	err := s.store.CommitDate(s.ctx, date, []types.Bar{stray}, nil, nil)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStoreConstraintViolation))
}

func (s *DuckDBStoreTestSuite) TestListMatchesOrdering() {
	date := s.date(9)

	results := []types.StrategyResult{
		{Strategy: "volume_surge", Code: "600000", Date: date, Params: map[string]float64{}},
		{Strategy: "keep_increasing", Code: "600000", Date: date, Params: map[string]float64{}},
		{Strategy: "volume_surge", Code: "000001", Date: date, Params: map[string]float64{}},
	}

	s.Require().NoError(s.store.CommitDate(s.ctx, date, nil, nil, results))

	matches, err := s.store.ListMatches(s.ctx, date)
	s.Require().NoError(err)
	s.Require().Len(matches, 3)

	s.Equal("keep_increasing", matches[0].Strategy)
	s.Equal("000001", matches[1].Code)
	s.Equal("600000", matches[2].Code)

	filtered, err := s.store.GetStrategyResults(s.ctx, date, "volume_surge")
	s.Require().NoError(err)
	s.Len(filtered, 2)
}

func (s *DuckDBStoreTestSuite) TestEmptyDateReadsBack() {
	date := s.date(9)

	bars, err := s.store.GetBars(s.ctx, "600000", date, date)
	s.Require().NoError(err)
	s.Empty(bars)

	matches, err := s.store.ListMatches(s.ctx, date)
	s.Require().NoError(err)
	s.Empty(matches)
}

func TestSchemaVersionCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.duckdb")

	st, err := NewDuckDBStore(path, logger.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening a compatible store works.
	st, err = NewDuckDBStore(path, logger.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}

	// Bumping the major version makes the next open refuse.
	if _, err := st.db.Exec(`UPDATE schema_info SET version = '2.0.0'`); err != nil {
		t.Fatal(err)
	}

	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = NewDuckDBStore(path, logger.NewNopLogger())
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}

	if !errors.HasCode(err, errors.ErrCodeStoreSchemaMismatch) {
		t.Fatalf("expected schema mismatch code, got %v", err)
	}
}
