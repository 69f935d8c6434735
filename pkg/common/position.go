package common

import (
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

type PositionSide int

const (
	PositionSideLong PositionSide = iota
	PositionSideShort
)

func (s PositionSide) String() string {
	if s == PositionSideLong {
		return "long"
	}
	return "short"
}

// Position is the net exposure of a run. Quantity is signed, negative for
// short. Mutated only by fills applied through the ledger.
type Position struct {
	Quantity      fixed.Point `json:"quantity"`
	AvgEntryPrice fixed.Point `json:"avg_entry_price"`
}

func (p Position) IsFlat() bool  { return p.Quantity.IsZero() }
func (p Position) IsLong() bool  { return p.Quantity.IsPos() }
func (p Position) IsShort() bool { return p.Quantity.IsNeg() }

func (p Position) Side() PositionSide {
	if p.IsShort() {
		return PositionSideShort
	}
	return PositionSideLong
}
