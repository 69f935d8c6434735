package historical

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// csvBar mirrors one exported candle row. Timestamps are unix milliseconds;
// close_time may be omitted and is then derived from open_time plus period.
type csvBar struct {
	OpenTime  int64       `csv:"open_time"`
	CloseTime int64       `csv:"close_time,omitempty"`
	Open      fixed.Point `csv:"open"`
	High      fixed.Point `csv:"high"`
	Low       fixed.Point `csv:"low"`
	Close     fixed.Point `csv:"close"`
	Volume    fixed.Point `csv:"volume"`
}

// LoadCSV reads candles from a headered CSV file into a Series.
func LoadCSV(path, symbol string, period time.Duration) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var rows []*csvBar
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}

	bars := make([]common.Bar, 0, len(rows))
	for _, row := range rows {
		openTime := time.UnixMilli(row.OpenTime).UTC()
		closeTime := openTime.Add(period)
		if row.CloseTime > 0 {
			closeTime = time.UnixMilli(row.CloseTime).UTC()
		}
		bars = append(bars, common.Bar{
			Source:    path,
			Symbol:    symbol,
			Period:    period,
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return NewSeries(symbol, period, bars)
}
