package sweep

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

func completedResult(size int, totalReturn string) Result {
	return Result{
		Params: strategy.ParameterSet{"size": fixed.FromInt(size, 0)},
		State:  simulation.StateCompleted,
		Report: simulation.Report{TotalReturn: fixed.MustFromString(totalReturn)},
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		completedResult(1, "2"),
		completedResult(2, "4"),
		completedResult(3, "6"),
		{State: simulation.StateFailed, Err: errors.New("boom")},
	}

	summary, err := Summarize(results, ObjectiveTotalReturn)
	require.NoError(t, err)

	// The failed run is excluded from the distribution.
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 6, summary.Best, 1e-9)
	assert.InDelta(t, 2, summary.Worst, 1e-9)
	assert.InDelta(t, 4, summary.Mean, 1e-9)
	assert.InDelta(t, 4, summary.Median, 1e-9)
}

func TestSummarize_DrawdownBestIsSmallest(t *testing.T) {
	results := []Result{
		{State: simulation.StateCompleted, Report: simulation.Report{MaxDrawdown: fixed.FromInt(8, 0)}},
		{State: simulation.StateCompleted, Report: simulation.Report{MaxDrawdown: fixed.FromInt(3, 0)}},
	}

	summary, err := Summarize(results, ObjectiveMaxDrawdown)
	require.NoError(t, err)
	assert.InDelta(t, 3, summary.Best, 1e-9)
	assert.InDelta(t, 8, summary.Worst, 1e-9)
}

func TestSummarize_NoUsableRuns(t *testing.T) {
	results := []Result{
		{State: simulation.StateFailed, Err: errors.New("boom")},
	}

	_, err := Summarize(results, ObjectiveTotalReturn)
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	results := []Result{completedResult(2, "4")}

	var buf bytes.Buffer
	RenderTable(&buf, results, []string{"size"}, ObjectiveTotalReturn)

	out := buf.String()
	assert.Contains(t, out, "SIZE")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "4")
}
