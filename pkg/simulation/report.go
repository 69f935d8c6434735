package simulation

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Report aggregates the equity path and trade history of one run into the
// usual performance metrics. Ratios that need return dispersion are
// undefined on a flat equity path; their Defined flag separates "no risk
// observed" from an actual zero.
type Report struct {
	StartDate time.Time
	EndDate   time.Time
	BarCount  int64

	InitialEquity     fixed.Point
	FinalEquity       fixed.Point
	TotalReturn       fixed.Point
	AnnualizedReturn  fixed.Point
	AnnualizedDefined bool
	MaxDrawdown       fixed.Point

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       fixed.Point
	Expectancy    fixed.Point
	ProfitFactor  fixed.Point
	AverageWin    fixed.Point
	AverageLoss   fixed.Point
	TotalFees     fixed.Point

	SharpeRatio    fixed.Point
	SharpeDefined  bool
	SortinoRatio   fixed.Point
	SortinoDefined bool
	RecoveryFactor fixed.Point
}

// NewReport is a pure function of the run history, so the same inputs always
// produce the same report.
func NewReport(initialEquity fixed.Point, snapshots []common.Snapshot, trades []common.Trade, barsPerYear int64) Report {
	report := Report{BarCount: int64(len(snapshots)), InitialEquity: initialEquity}
	if len(snapshots) == 0 || !initialEquity.IsPos() {
		return report
	}

	first := snapshots[0]
	last := snapshots[len(snapshots)-1]

	report.StartDate = first.TimeStamp
	report.EndDate = last.TimeStamp
	report.FinalEquity = last.Equity

	report.TotalReturn = report.FinalEquity.Div(report.InitialEquity).Sub(fixed.One).MulInt64(100).Rescale(4)
	if report.FinalEquity.IsPos() && report.BarCount > 0 && barsPerYear > 0 {
		// Compounding a short run to a full year needs exponents far beyond
		// what decimal arithmetic can carry, so this one metric is computed
		// in float64 and left undefined when it leaves representable range.
		ratio, _ := report.FinalEquity.Div(report.InitialEquity).Float64()
		exponent := float64(barsPerYear) / float64(report.BarCount)
		annualized := (math.Pow(ratio, exponent) - 1) * 100
		if !math.IsNaN(annualized) && !math.IsInf(annualized, 0) && math.Abs(annualized) < 1e15 {
			report.AnnualizedReturn = fixed.FromFloat64(annualized).Rescale(4)
			report.AnnualizedDefined = true
		}
	}

	maxEquity := report.InitialEquity
	maxDrawdown := fixed.Zero
	for _, snapshot := range snapshots {
		if snapshot.Equity.Gt(maxEquity) {
			maxEquity = snapshot.Equity
		}
		if maxEquity.IsPos() {
			drawdown := maxEquity.Sub(snapshot.Equity).Div(maxEquity)
			if drawdown.Gt(maxDrawdown) {
				maxDrawdown = drawdown
			}
		}
	}

	var totalProfit, totalLoss fixed.Point
	for _, trade := range trades {
		report.TotalTrades++
		report.TotalFees = report.TotalFees.Add(trade.Fees)
		net := trade.RealizedPnL.Sub(trade.Fees)
		if net.IsPos() {
			totalProfit = totalProfit.Add(net)
			report.WinningTrades++
		} else {
			totalLoss = totalLoss.Add(net.Neg())
			report.LosingTrades++
		}
	}
	if report.WinningTrades > 0 {
		report.AverageWin = totalProfit.DivInt64(int64(report.WinningTrades))
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = totalLoss.DivInt64(int64(report.LosingTrades))
	}
	if totalLoss.IsPos() {
		report.ProfitFactor = totalProfit.Div(totalLoss).Rescale(4)
	}
	if report.TotalTrades > 0 {
		report.Expectancy = totalProfit.Sub(totalLoss).DivInt64(int64(report.TotalTrades)).Rescale(4)
		report.WinRate = fixed.FromInt64(int64(report.WinningTrades), 0).
			DivInt64(int64(report.TotalTrades)).MulInt64(100).Rescale(2)
	}

	returns := barReturns(snapshots, report.InitialEquity)
	annualize := fixed.FromInt64(barsPerYear, 0).Sqrt()
	if sharpe, ok := fixed.SharpeRatio(returns, fixed.Zero); ok {
		report.SharpeRatio = sharpe.Mul(annualize).Rescale(5)
		report.SharpeDefined = true
	}
	if sortino, ok := fixed.SortinoRatio(returns, fixed.Zero); ok {
		report.SortinoRatio = sortino.Mul(annualize).Rescale(5)
		report.SortinoDefined = true
	}

	if maxDrawdown.IsPos() {
		report.RecoveryFactor = report.TotalReturn.Div(maxDrawdown.MulInt64(100)).Rescale(4)
	}
	report.MaxDrawdown = maxDrawdown.MulInt64(100).Rescale(4)

	return report
}

func barReturns(snapshots []common.Snapshot, initial fixed.Point) []fixed.Point {
	returns := make([]fixed.Point, 0, len(snapshots))
	prev := initial
	for _, snapshot := range snapshots {
		if prev.IsPos() {
			returns = append(returns, snapshot.Equity.Div(prev).Sub(fixed.One))
		}
		prev = snapshot.Equity
	}
	return returns
}

func (r Report) Print() {
	annualized := "undefined"
	if r.AnnualizedDefined {
		annualized = fmt.Sprintf("%s%%", r.AnnualizedReturn)
	}
	slog.Info("performance report",
		"start", r.StartDate.Format(time.RFC3339),
		"end", r.EndDate.Format(time.RFC3339),
		"bars", r.BarCount,
		"initial_equity", r.InitialEquity,
		"final_equity", r.FinalEquity,
		"total_return", fmt.Sprintf("%s%%", r.TotalReturn),
		"annualized_return", annualized,
		"max_drawdown", fmt.Sprintf("%s%%", r.MaxDrawdown),
		"recovery_factor", r.RecoveryFactor)

	slog.Info("trade statistics",
		"total_trades", r.TotalTrades,
		"winning_trades", r.WinningTrades,
		"losing_trades", r.LosingTrades,
		"win_rate", fmt.Sprintf("%s%%", r.WinRate),
		"expectancy", r.Expectancy,
		"profit_factor", r.ProfitFactor,
		"average_win", r.AverageWin,
		"average_loss", r.AverageLoss,
		"total_fees", r.TotalFees)

	sharpe := "undefined"
	if r.SharpeDefined {
		sharpe = r.SharpeRatio.String()
	}
	sortino := "undefined"
	if r.SortinoDefined {
		sortino = r.SortinoRatio.String()
	}
	slog.Info("risk metrics",
		"sharpe_ratio", sharpe,
		"sortino_ratio", sortino)
}
