package indicators

import (
	"fmt"
)

// Key identifies one indicator output series. Name is the indicator family,
// P1..P3 are its periods; unused slots stay zero. Keys are comparable and
// usable as map keys.
type Key struct {
	Name string
	P1   int
	P2   int
	P3   int
}

func (k Key) String() string {
	switch {
	case k.P3 != 0:
		return fmt.Sprintf("%s(%d,%d,%d)", k.Name, k.P1, k.P2, k.P3)
	case k.P2 != 0:
		return fmt.Sprintf("%s(%d,%d)", k.Name, k.P1, k.P2)
	default:
		return fmt.Sprintf("%s(%d)", k.Name, k.P1)
	}
}

func SmaKey(period int) Key { return Key{Name: "sma", P1: period} }
func EmaKey(period int) Key { return Key{Name: "ema", P1: period} }
func RsiKey(period int) Key { return Key{Name: "rsi", P1: period} }
func AtrKey(period int) Key { return Key{Name: "atr", P1: period} }

func MacdKey(fast, slow, signal int) Key {
	return Key{Name: "macd", P1: fast, P2: slow, P3: signal}
}

func MacdSignalKey(fast, slow, signal int) Key {
	return Key{Name: "macd_signal", P1: fast, P2: slow, P3: signal}
}

func MacdHistKey(fast, slow, signal int) Key {
	return Key{Name: "macd_hist", P1: fast, P2: slow, P3: signal}
}

// Bollinger width is expressed in tenths of a standard deviation so the key
// stays integral; width 20 means two standard deviations.
func BollingerUpperKey(period, widthTenths int) Key {
	return Key{Name: "bollinger_upper", P1: period, P2: widthTenths}
}

func BollingerMiddleKey(period, widthTenths int) Key {
	return Key{Name: "bollinger_middle", P1: period, P2: widthTenths}
}

func BollingerLowerKey(period, widthTenths int) Key {
	return Key{Name: "bollinger_lower", P1: period, P2: widthTenths}
}

func StdDevKey(period int) Key { return Key{Name: "stddev", P1: period} }
func ZScoreKey(period int) Key { return Key{Name: "zscore", P1: period} }
