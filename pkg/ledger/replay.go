package ledger

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Replay rebuilds the snapshot sequence from a recorded fill log and the
// bars it was produced against. An audit that replays the fills of a run
// must land on the exact same equity path; any divergence points at
// non-deterministic accounting.
func Replay(symbol string, initialCash fixed.Point, fills []common.Fill, bars []common.Bar, opts ...Option) ([]common.Snapshot, error) {
	l := New(symbol, initialCash, opts...)

	next := 0
	snapshots := make([]common.Snapshot, 0, len(bars))
	for i, bar := range bars {
		for next < len(fills) && fills[next].BarIndex == int64(i) {
			if _, err := l.Apply(fills[next]); err != nil {
				return nil, fmt.Errorf("replaying fill %d: %w", next, err)
			}
			next++
		}
		snapshot, err := l.Mark(bar)
		if err != nil {
			return nil, fmt.Errorf("replaying bar %d: %w", i, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if next != len(fills) {
		return nil, fmt.Errorf("%d fills reference bars beyond the replayed range", len(fills)-next)
	}
	return snapshots, nil
}
