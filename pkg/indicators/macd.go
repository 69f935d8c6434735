package indicators

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Macd publishes three series from one computation: the macd line (fast ema
// minus slow ema), its signal ema and the histogram.
type Macd struct {
	lineKey   Key
	signalKey Key
	histKey   Key

	fast   *Ema
	slow   *Ema
	signal *Ema

	line        fixed.Point
	lineDefined bool
}

func NewMacd(fastPeriod, slowPeriod, signalPeriod int) (*Macd, error) {
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("macd fast period %d must be below slow period %d", fastPeriod, slowPeriod)
	}
	fast, err := NewEma(fastPeriod)
	if err != nil {
		return nil, err
	}
	slow, err := NewEma(slowPeriod)
	if err != nil {
		return nil, err
	}
	signal, err := NewEma(signalPeriod)
	if err != nil {
		return nil, err
	}
	return &Macd{
		lineKey:   MacdKey(fastPeriod, slowPeriod, signalPeriod),
		signalKey: MacdSignalKey(fastPeriod, slowPeriod, signalPeriod),
		histKey:   MacdHistKey(fastPeriod, slowPeriod, signalPeriod),
		fast:      fast,
		slow:      slow,
		signal:    signal,
	}, nil
}

func (m *Macd) OnBar(bar common.Bar) {
	m.fast.OnBar(bar)
	m.slow.OnBar(bar)

	fastValue, fastOk := m.fast.Value(m.fast.key)
	slowValue, slowOk := m.slow.Value(m.slow.key)
	if !fastOk || !slowOk {
		return
	}
	m.line = fastValue.Sub(slowValue)
	m.lineDefined = true
	m.signal.update(m.line)
}

func (m *Macd) Outputs() []Key {
	return []Key{m.lineKey, m.signalKey, m.histKey}
}

func (m *Macd) Value(key Key) (fixed.Point, bool) {
	if !m.lineDefined {
		return fixed.Zero, false
	}
	switch key {
	case m.lineKey:
		return m.line, true
	case m.signalKey:
		return m.signal.Value(m.signal.key)
	case m.histKey:
		signalValue, ok := m.signal.Value(m.signal.key)
		if !ok {
			return fixed.Zero, false
		}
		return m.line.Sub(signalValue), true
	default:
		return fixed.Zero, false
	}
}

func (m *Macd) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
	m.line = fixed.Zero
	m.lineDefined = false
}
