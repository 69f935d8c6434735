package indicators

import (
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

var testBarStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func closeBar(i int, close fixed.Point) common.Bar {
	closeTime := testBarStart.Add(time.Duration(i+1) * time.Minute)
	return common.Bar{
		Symbol:    "EURUSD",
		Period:    time.Minute,
		OpenTime:  closeTime.Add(-time.Minute),
		CloseTime: closeTime,
		Open:      close,
		High:      close,
		Low:       close,
		Close:     close,
		Volume:    fixed.FromInt(100, 0),
	}
}

func closeBars(values ...string) []common.Bar {
	bars := make([]common.Bar, len(values))
	for i, v := range values {
		bars[i] = closeBar(i, fixed.MustFromString(v))
	}
	return bars
}
