package synthetic

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/datasource"
	"github.com/pavel-sokol/quantsim/pkg/datasource/historical"
	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const barGeneratorComponentName = "datasource.synthetic.generator"

// BarGenerator produces geometric brownian motion candles from a seeded rng.
// The same seed always yields the same bars.
type BarGenerator struct {
	symbol string
	rng    *rand.Rand

	period     time.Duration
	openTime   time.Time
	lastClose  float64
	mu         float64
	sigma      float64
	deltaT     float64
	avgVolume  float64
	steps      int64
	t          int64
	priceScale int
}

// NewBarGenerator creates a generator starting at startPrice. mu and sigma
// are annualized drift and volatility, deltaT is derived from the bar period.
func NewBarGenerator(seed int64, symbol string, period time.Duration, startTime time.Time, startPrice, mu, sigma float64, avgVolume float64, steps int64) *BarGenerator {
	return &BarGenerator{
		symbol:     symbol,
		rng:        rand.New(rand.NewSource(seed)),
		period:     period,
		openTime:   startTime,
		lastClose:  startPrice,
		mu:         mu,
		sigma:      sigma,
		deltaT:     float64(period) / float64(365*24*time.Hour),
		avgVolume:  avgVolume,
		steps:      steps,
		priceScale: 2,
	}
}

// Next implements datasource.BarStream.
func (g *BarGenerator) Next(ctx context.Context) (common.Bar, error) {
	if err := ctx.Err(); err != nil {
		return common.Bar{}, err
	}
	if g.t >= g.steps {
		return common.Bar{}, datasource.ErrEndOfStream
	}
	bar := g.generate()
	g.t++
	return bar, nil
}

// Series materializes the remaining steps into an immutable series. Useful
// for parameter sweeps where runs share one data set.
func (g *BarGenerator) Series() (*historical.Series, error) {
	bars := make([]common.Bar, 0, g.steps-g.t)
	for g.t < g.steps {
		bars = append(bars, g.generate())
		g.t++
	}
	return historical.NewSeries(g.symbol, g.period, bars)
}

func (g *BarGenerator) generate() common.Bar {
	open := g.lastClose

	// Four intra-bar GBM sub-steps give a plausible high/low range.
	price := open
	high := open
	low := open
	subDt := g.deltaT / 4
	for i := 0; i < 4; i++ {
		z := g.rng.NormFloat64()
		price *= math.Exp((g.mu-0.5*g.sigma*g.sigma)*subDt + g.sigma*math.Sqrt(subDt)*z)
		high = math.Max(high, price)
		low = math.Min(low, price)
	}
	g.lastClose = price

	volume := g.avgVolume * (0.5 + g.rng.Float64())

	bar := common.Bar{
		Source:      barGeneratorComponentName,
		Symbol:      g.symbol,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		Period:      g.period,
		OpenTime:    g.openTime,
		CloseTime:   g.openTime.Add(g.period),
		Open:        round(open, g.priceScale),
		High:        round(high, g.priceScale),
		Low:         round(low, g.priceScale),
		Close:       round(price, g.priceScale),
		Volume:      round(volume, 0),
	}
	g.openTime = bar.CloseTime
	return bar
}

func round(v float64, scale int) fixed.Point {
	return fixed.FromFloat64(v).Rescale(scale)
}
