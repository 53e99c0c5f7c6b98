package domain

// Side represents the direction of an order or position.
type Side int

// Side constants.
const (
	SideLong Side = iota + 1
	SideShort
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// String returns the exchange-style side label.
func (s Side) String() string {
	if s == SideLong {
		return "BUY"
	}
	return "SELL"
}

// OrderKind classifies a simulated order by its trigger mechanics.
type OrderKind int

// Order kinds.
const (
	KindMarket OrderKind = iota
	KindLimit
	KindStop
	KindStopLimit
)

// String returns the kind label.
func (k OrderKind) String() string {
	switch k {
	case KindLimit:
		return "limit"
	case KindStop:
		return "stop"
	case KindStopLimit:
		return "stop-limit"
	default:
		return "market"
	}
}

// Order is a simulated order resting in the order book.
// Limit and Stop of zero mean "unset"; the kind is derived from which
// prices are set, mirroring how the live order-entry APIs work.
type Order struct {
	ID         string
	Side       Side
	Qty        float64
	Limit      float64
	Stop       float64
	PostOnly   bool
	ReduceOnly bool
	// Reason tags orders issued by exit policies (e.g. "take_profit")
	// so the resulting fill can be attributed without callbacks.
	Reason string
}

// Kind derives the order kind from the set prices.
func (o *Order) Kind() OrderKind {
	switch {
	case o.Limit > 0 && o.Stop > 0:
		return KindStopLimit
	case o.Limit > 0:
		return KindLimit
	case o.Stop > 0:
		return KindStop
	default:
		return KindMarket
	}
}

// Fill is the result of an order triggering against a bar.
type Fill struct {
	ID         string
	Side       Side
	Qty        float64
	Price      float64
	ReduceOnly bool
	Reason     string
}
