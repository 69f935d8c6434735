package bus

type EventId uint8

const (
	BarEvent EventId = iota
	SignalEvent
	SignalRejectionEvent
	OrderEvent
	OrderRejectionEvent
	FillEvent
	PositionOpenEvent
	PositionCloseEvent
	SnapshotEvent
	TradeEvent
	DataGapEvent
)

func (id EventId) String() string {
	switch id {
	case BarEvent:
		return "bar"
	case SignalEvent:
		return "signal"
	case SignalRejectionEvent:
		return "signal-rejected"
	case OrderEvent:
		return "order"
	case OrderRejectionEvent:
		return "order-rejected"
	case FillEvent:
		return "fill"
	case PositionOpenEvent:
		return "position-open"
	case PositionCloseEvent:
		return "position-close"
	case SnapshotEvent:
		return "snapshot"
	case TradeEvent:
		return "trade"
	case DataGapEvent:
		return "data-gap"
	default:
		return "unknown"
	}
}
