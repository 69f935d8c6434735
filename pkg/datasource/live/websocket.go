package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/datasource"
	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const websocketComponentName = "datasource.live.websocket"

// candleMessage is the JSON frame pushed by the upstream candle socket.
// Prices arrive as strings to avoid float rounding on the wire.
type candleMessage struct {
	Symbol    string `json:"symbol"`
	OpenTime  int64  `json:"open_time"`
	CloseTime int64  `json:"close_time"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
	Final     bool   `json:"final"`
}

// WebsocketProvider subscribes to a candle socket and pushes only finished
// candles into the feed.
type WebsocketProvider struct {
	url    string
	symbol string
	period time.Duration
	feed   *Feed
}

func NewWebsocketProvider(url, symbol string, period time.Duration, feed *Feed) *WebsocketProvider {
	return &WebsocketProvider{
		url:    url,
		symbol: symbol,
		period: period,
		feed:   feed,
	}
}

// Run connects and pumps candles until the context ends or the connection
// drops. The feed is closed on return so the consumer sees a clean end of
// stream.
func (p *WebsocketProvider) Run(ctx context.Context) error {
	defer p.feed.Close()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return fmt.Errorf("unable to dial %s: %w", p.url, datasource.ErrDataUnavailable)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var msg candleMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read failed: %w", datasource.ErrDataUnavailable)
		}
		if !msg.Final {
			continue
		}
		bar, err := p.toBar(msg)
		if err != nil {
			slog.Warn("dropping malformed candle", "error", err)
			continue
		}
		if err := p.feed.Push(bar); err != nil {
			return err
		}
	}
}

func (p *WebsocketProvider) toBar(msg candleMessage) (common.Bar, error) {
	open, err := fixed.FromString(msg.Open)
	if err != nil {
		return common.Bar{}, fmt.Errorf("open: %w", err)
	}
	high, err := fixed.FromString(msg.High)
	if err != nil {
		return common.Bar{}, fmt.Errorf("high: %w", err)
	}
	low, err := fixed.FromString(msg.Low)
	if err != nil {
		return common.Bar{}, fmt.Errorf("low: %w", err)
	}
	cls, err := fixed.FromString(msg.Close)
	if err != nil {
		return common.Bar{}, fmt.Errorf("close: %w", err)
	}
	volume, err := fixed.FromString(msg.Volume)
	if err != nil {
		return common.Bar{}, fmt.Errorf("volume: %w", err)
	}
	symbol := msg.Symbol
	if symbol == "" {
		symbol = p.symbol
	}
	return common.Bar{
		Source:      websocketComponentName,
		Symbol:      symbol,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		Period:      p.period,
		OpenTime:    time.UnixMilli(msg.OpenTime).UTC(),
		CloseTime:   time.UnixMilli(msg.CloseTime).UTC(),
		Open:        open,
		High:        high,
		Low:         low,
		Close:       cls,
		Volume:      volume,
	}, nil
}
