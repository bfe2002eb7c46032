package event

import "time"

// Kind names the fixed set of event types the dispatcher and its
// subscribers exchange, per spec.md §3.
type Kind int

const (
	DispatcherStart Kind = iota
	DispatcherIdle
	DispatcherTimeElapsed
	NewBar
	OrderUpdate
	NewReturns
	NewTradingDay
	DataSeriesNewValue
)

func (k Kind) String() string {
	switch k {
	case DispatcherStart:
		return "DispatcherStart"
	case DispatcherIdle:
		return "DispatcherIdle"
	case DispatcherTimeElapsed:
		return "DispatcherTimeElapsed"
	case NewBar:
		return "NewBar"
	case OrderUpdate:
		return "OrderUpdate"
	case NewReturns:
		return "NewReturns"
	case NewTradingDay:
		return "NewTradingDay"
	case DataSeriesNewValue:
		return "DataSeriesNewValue"
	default:
		return "Unknown"
	}
}

// TimeElapsed is the payload of a DispatcherTimeElapsed emission.
type TimeElapsed struct {
	Prev time.Time
	Curr time.Time
}

// TradingDay is the payload of a NewTradingDay emission.
type TradingDay struct {
	Prev time.Time
	Curr time.Time
}
