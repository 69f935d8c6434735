package sweep

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"

	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// RenderTable writes the ranked results as an aligned text table, best run
// first.
func RenderTable(w io.Writer, results []Result, paramNames []string, objective Objective) {
	table := tablewriter.NewWriter(w)

	header := []string{"#", "state"}
	header = append(header, paramNames...)
	header = append(header, string(objective), "return %", "max dd %", "trades", "sharpe")
	table.SetHeader(header)

	for i, result := range results {
		row := []string{fmt.Sprintf("%d", i+1), result.State.String()}
		for _, name := range paramNames {
			row = append(row, result.Params.Point(name, fixed.Zero).String())
		}

		objectiveCell := "n/a"
		if v, ok := objective.Value(result.Report); ok && result.State == simulation.StateCompleted {
			objectiveCell = v.String()
		}
		sharpeCell := "n/a"
		if result.Report.SharpeDefined {
			sharpeCell = result.Report.SharpeRatio.String()
		}
		row = append(row,
			objectiveCell,
			result.Report.TotalReturn.String(),
			result.Report.MaxDrawdown.String(),
			fmt.Sprintf("%d", result.Report.TotalTrades),
			sharpeCell)
		table.Append(row)
	}
	table.Render()
}

// Summary describes the distribution of the objective across completed runs.
type Summary struct {
	Count  int
	Best   float64
	Worst  float64
	Mean   float64
	Median float64
	StdDev float64
}

// Summarize computes distribution statistics over runs where the objective
// is defined.
func Summarize(results []Result, objective Objective) (Summary, error) {
	var values []float64
	for _, result := range results {
		if result.State == simulation.StateCompleted && result.Err == nil {
			if v, ok := objective.Value(result.Report); ok {
				f, _ := v.Float64()
				values = append(values, f)
			}
		}
	}
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("no completed runs with a defined %s", objective)
	}

	max, err := stats.Max(values)
	if err != nil {
		return Summary{}, err
	}
	min, err := stats.Min(values)
	if err != nil {
		return Summary{}, err
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return Summary{}, err
	}
	median, err := stats.Median(values)
	if err != nil {
		return Summary{}, err
	}
	stdDev, err := stats.StandardDeviation(values)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Count:  len(values),
		Best:   max,
		Worst:  min,
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
	}
	if objective == ObjectiveMaxDrawdown {
		summary.Best, summary.Worst = min, max
	}
	return summary, nil
}
