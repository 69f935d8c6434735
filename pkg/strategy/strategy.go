package strategy

import (
	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Strategy turns indicator readings into at most one signal per bar.
// Evaluate must be a pure function of its inputs: no stored bar state, no
// clock, no randomness. The evaluator enforces this by re-running Evaluate
// and comparing results when contract checks are on.
type Strategy interface {
	Name() string
	Required() []indicators.Key
	Evaluate(view indicators.View, position common.Position, bar common.Bar) common.Signal
}

// Hold is the no-action signal strategies return when nothing lines up.
func Hold() common.Signal {
	return common.Signal{Action: common.SignalHold}
}

// EnterLong opens or reverses into a long position of the given size.
func EnterLong(size fixed.Point, comment string) common.Signal {
	return common.Signal{Action: common.SignalEnterLong, Size: size, Comment: comment}
}

// EnterShort opens or reverses into a short position of the given size.
func EnterShort(size fixed.Point, comment string) common.Signal {
	return common.Signal{Action: common.SignalEnterShort, Size: size, Comment: comment}
}

// Exit closes size units of the open position; zero size closes all of it.
func Exit(size fixed.Point, comment string) common.Signal {
	return common.Signal{Action: common.SignalExit, Size: size, Comment: comment}
}

// Adjust grows or shrinks the open position by the signed size.
func Adjust(size fixed.Point, comment string) common.Signal {
	return common.Signal{Action: common.SignalAdjust, Size: size, Comment: comment}
}
