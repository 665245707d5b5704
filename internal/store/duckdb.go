package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// schemaVersion is persisted in schema_info at creation time. Opening a
// store written by an incompatible major version fails rather than
// silently misreading the tables.
const schemaVersion = "1.0.0"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_info (
		version VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bars (
		code VARCHAR NOT NULL,
		date VARCHAR NOT NULL,
		open DOUBLE NOT NULL,
		high DOUBLE NOT NULL,
		low DOUBLE NOT NULL,
		close DOUBLE NOT NULL,
		volume DOUBLE NOT NULL,
		amount DOUBLE NOT NULL,
		change_pct DOUBLE NOT NULL,
		turnover_pct DOUBLE NOT NULL,
		PRIMARY KEY (code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS indicator_values (
		code VARCHAR NOT NULL,
		date VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		value DOUBLE,
		PRIMARY KEY (code, date, name)
	)`,
	`CREATE TABLE IF NOT EXISTS strategy_results (
		strategy VARCHAR NOT NULL,
		code VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		date VARCHAR NOT NULL,
		score DOUBLE NOT NULL,
		params VARCHAR NOT NULL,
		PRIMARY KEY (strategy, code, date)
	)`,
}

// DuckDBStore keeps everything in a single DuckDB file. Undefined
// indicator values are stored as SQL NULL so they survive a round trip
// without being confused with zero.
type DuckDBStore struct {
	db        *sql.DB
	sq        squirrel.StatementBuilderType
	logger    *logger.Logger
	dateLocks sync.Map // date string -> *sync.Mutex
}

var _ Store = (*DuckDBStore)(nil)

// NewDuckDBStore opens (or creates) the store at path. An empty path
// opens an in-memory database, which is what the tests use.
func NewDuckDBStore(path string, log *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open duckdb store", err)
	}
	s := &DuckDBStore{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: log,
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DuckDBStore) initialize() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create schema", err)
		}
	}
	return s.checkSchemaVersion()
}

func (s *DuckDBStore) checkSchemaVersion() error {
	var stored string
	err := s.db.QueryRow(`SELECT version FROM schema_info LIMIT 1`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(`INSERT INTO schema_info (version) VALUES (?)`, schemaVersion)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to record schema version", err)
		}
		return nil
	case err != nil:
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to read schema version", err)
	}

	have, err := semver.NewVersion(stored)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreSchemaMismatch, err, "invalid stored schema version %q", stored)
	}
	want := semver.MustParse(schemaVersion)
	if have.Major() != want.Major() {
		return errors.Newf(errors.ErrCodeStoreSchemaMismatch,
			"store schema version %s is incompatible with %s", stored, schemaVersion)
	}
	return nil
}

func (s *DuckDBStore) dateLock(date types.TradingDate) *sync.Mutex {
	mu, _ := s.dateLocks.LoadOrStore(date.String(), &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CommitDate replaces all three layers for the date inside one
// transaction. Delete-then-insert makes re-commits idempotent.
func (s *DuckDBStore) CommitDate(ctx context.Context, date types.TradingDate, bars []types.Bar, rows []types.IndicatorRow, results []types.StrategyResult) error {
	mu := s.dateLock(date)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to begin commit transaction", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"bars", "indicator_values", "strategy_results"} {
		query, args, err := s.sq.Delete(table).Where(squirrel.Eq{"date": date.String()}).ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to build delete query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return classifyExecError(err, "failed to clear "+table)
		}
	}

	if err := s.insertBars(ctx, tx, date, bars); err != nil {
		return err
	}
	if err := s.insertIndicatorRows(ctx, tx, date, rows); err != nil {
		return err
	}
	if err := s.insertResults(ctx, tx, date, results); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to commit date transaction", err)
	}
	if s.logger != nil {
		s.logger.Debug("committed date",
			zap.String("date", date.String()),
			zap.Int("bars", len(bars)),
			zap.Int("indicatorRows", len(rows)),
			zap.Int("results", len(results)))
	}
	return nil
}

func (s *DuckDBStore) insertBars(ctx context.Context, tx *sql.Tx, date types.TradingDate, bars []types.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	builder := s.sq.Insert("bars").
		Columns("code", "date", "open", "high", "low", "close", "volume", "amount", "change_pct", "turnover_pct")
	for _, b := range bars {
		if !b.Date.Equal(date) {
			return errors.Newf(errors.ErrCodeStoreConstraintViolation,
				"bar for %s dated %s does not belong to commit date %s", b.Code, b.Date, date)
		}
		builder = builder.Values(b.Code, b.Date.String(), b.Open, b.High, b.Low, b.Close, b.Volume, b.Amount, b.ChangePct, b.TurnoverPct)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to build bars insert", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classifyExecError(err, "failed to insert bars")
	}
	return nil
}

func (s *DuckDBStore) insertIndicatorRows(ctx context.Context, tx *sql.Tx, date types.TradingDate, rows []types.IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}
	builder := s.sq.Insert("indicator_values").Columns("code", "date", "name", "value")
	count := 0
	for _, row := range rows {
		if !row.Date.Equal(date) {
			return errors.Newf(errors.ErrCodeStoreConstraintViolation,
				"indicator row for %s dated %s does not belong to commit date %s", row.Code, row.Date, date)
		}
		for _, name := range row.Names() {
			var value any
			if v, err := row.Values[name].Take(); err == nil {
				value = v
			}
			builder = builder.Values(row.Code, row.Date.String(), name, value)
			count++
		}
	}
	if count == 0 {
		return nil
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to build indicator insert", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classifyExecError(err, "failed to insert indicator values")
	}
	return nil
}

func (s *DuckDBStore) insertResults(ctx context.Context, tx *sql.Tx, date types.TradingDate, results []types.StrategyResult) error {
	if len(results) == 0 {
		return nil
	}
	builder := s.sq.Insert("strategy_results").
		Columns("strategy", "code", "name", "date", "score", "params")
	for _, r := range results {
		if !r.Date.Equal(date) {
			return errors.Newf(errors.ErrCodeStoreConstraintViolation,
				"result %s/%s dated %s does not belong to commit date %s", r.Strategy, r.Code, r.Date, date)
		}
		params, err := json.Marshal(r.Params)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStoreQueryFailed, err, "failed to encode params for %s/%s", r.Strategy, r.Code)
		}
		builder = builder.Values(r.Strategy, r.Code, r.Name, r.Date.String(), r.Score, string(params))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to build results insert", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classifyExecError(err, "failed to insert strategy results")
	}
	return nil
}

// GetBars returns the instrument's bars between from and to inclusive,
// ascending by date.
func (s *DuckDBStore) GetBars(ctx context.Context, code string, from, to types.TradingDate) ([]types.Bar, error) {
	query, args, err := s.sq.Select("code", "date", "open", "high", "low", "close", "volume", "amount", "change_pct", "turnover_pct").
		From("bars").
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.GtOrEq{"date": from.String()}).
		Where(squirrel.LtOrEq{"date": to.String()}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to build bars query", err)
	}
	dbRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to query bars", err)
	}
	defer dbRows.Close()

	var bars []types.Bar
	for dbRows.Next() {
		var b types.Bar
		var dateStr string
		if err := dbRows.Scan(&b.Code, &dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Amount, &b.ChangePct, &b.TurnoverPct); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to scan bar", err)
		}
		b.Date, err = types.ParseTradingDate(dateStr)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStoreQueryFailed, err, "invalid stored date %q", dateStr)
		}
		bars = append(bars, b)
	}
	if err := dbRows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to iterate bars", err)
	}
	return bars, nil
}

// GetIndicators reassembles one (instrument, date) indicator row. NULL
// values come back as undefined.
func (s *DuckDBStore) GetIndicators(ctx context.Context, code string, date types.TradingDate) (types.IndicatorRow, error) {
	query, args, err := s.sq.Select("name", "value").
		From("indicator_values").
		Where(squirrel.Eq{"code": code, "date": date.String()}).
		ToSql()
	if err != nil {
		return types.IndicatorRow{}, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to build indicators query", err)
	}
	dbRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.IndicatorRow{}, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to query indicators", err)
	}
	defer dbRows.Close()

	row := types.NewIndicatorRow(code, date)
	for dbRows.Next() {
		var name string
		var value sql.NullFloat64
		if err := dbRows.Scan(&name, &value); err != nil {
			return types.IndicatorRow{}, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to scan indicator value", err)
		}
		if value.Valid {
			row.Values[name] = optional.Some(value.Float64)
		} else {
			row.Values[name] = optional.None[float64]()
		}
	}
	if err := dbRows.Err(); err != nil {
		return types.IndicatorRow{}, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to iterate indicators", err)
	}
	return row, nil
}

// GetStrategyResults returns the date's results, optionally filtered by
// strategy name, sorted by strategy then code.
func (s *DuckDBStore) GetStrategyResults(ctx context.Context, date types.TradingDate, strategyName string) ([]types.StrategyResult, error) {
	builder := s.sq.Select("strategy", "code", "name", "date", "score", "params").
		From("strategy_results").
		Where(squirrel.Eq{"date": date.String()}).
		OrderBy("strategy ASC", "code ASC")
	if strategyName != "" {
		builder = builder.Where(squirrel.Eq{"strategy": strategyName})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to build results query", err)
	}
	dbRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to query strategy results", err)
	}
	defer dbRows.Close()

	var results []types.StrategyResult
	for dbRows.Next() {
		var r types.StrategyResult
		var dateStr, params string
		if err := dbRows.Scan(&r.Strategy, &r.Code, &r.Name, &dateStr, &r.Score, &params); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to scan strategy result", err)
		}
		r.Date, err = types.ParseTradingDate(dateStr)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStoreQueryFailed, err, "invalid stored date %q", dateStr)
		}
		if params != "" {
			if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
				return nil, errors.Wrapf(errors.ErrCodeStoreQueryFailed, err, "invalid stored params for %s/%s", r.Strategy, r.Code)
			}
		}
		results = append(results, r)
	}
	if err := dbRows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to iterate strategy results", err)
	}
	return results, nil
}

// ListMatches returns all matches for the date in deterministic order.
func (s *DuckDBStore) ListMatches(ctx context.Context, date types.TradingDate) ([]types.StrategyResult, error) {
	return s.GetStrategyResults(ctx, date, "")
}

func (s *DuckDBStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to close store", err)
	}
	return nil
}

func classifyExecError(err error, msg string) error {
	if strings.Contains(err.Error(), "Constraint") {
		return errors.Wrap(errors.ErrCodeStoreConstraintViolation, msg, err)
	}
	return errors.Wrap(errors.ErrCodeStoreUnavailable, msg, err)
}
