package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/datasource"
	"github.com/pavel-sokol/quantsim/pkg/datasource/historical"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const readerComponentName = "data.duckdb"

// Reader loads candle archives from a duckdb database. Each symbol lives in
// its own <symbol>_bars table with one row per closed bar.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open %q: %w", r.dataSourceName, err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

// LoadBars streams rows in [from, to] ordered by close time into the handler.
func (r *Reader) LoadBars(ctx context.Context, symbol string, period time.Duration, from, to time.Time, handler func(bar common.Bar) error) error {
	query := fmt.Sprintf(
		`SELECT open_time, close_time, open, high, low, close, volume FROM %s_bars WHERE close_time BETWEEN ? AND ? ORDER BY close_time`,
		symbol)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("query failed: %w", datasource.ErrDataUnavailable)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var openTime, closeTime time.Time
		var open, high, low, cls, volume float64
		if err := rows.Scan(&openTime, &closeTime, &open, &high, &low, &cls, &volume); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		bar := common.Bar{
			Source:    readerComponentName,
			Symbol:    symbol,
			Period:    period,
			OpenTime:  openTime.UTC(),
			CloseTime: closeTime.UTC(),
			Open:      fixed.FromFloat64(open),
			High:      fixed.FromFloat64(high),
			Low:       fixed.FromFloat64(low),
			Close:     fixed.FromFloat64(cls),
			Volume:    fixed.FromFloat64(volume),
		}
		if err := handler(bar); err != nil {
			return fmt.Errorf("error processing bar: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}
	return nil
}

// LoadSeries collects the window into an immutable series.
func (r *Reader) LoadSeries(ctx context.Context, symbol string, period time.Duration, from, to time.Time) (*historical.Series, error) {
	var bars []common.Bar
	err := r.LoadBars(ctx, symbol, period, from, to, func(bar common.Bar) error {
		bars = append(bars, bar)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return historical.NewSeries(symbol, period, bars)
}
