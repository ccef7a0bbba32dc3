package models

// MarketSnapshot читается один раз за цикл. Bid/Offer бывают null при закрытом рынке.
type MarketSnapshot struct {
	MarketID        string
	Currency        string
	MarginFactor    float64
	MinStopDistance float64
	MarketStatus    string
	Bid             *float64
	Offer           *float64
}

// ReferencePrice: offer для покупки, bid для продажи.
func (m MarketSnapshot) ReferencePrice(d Direction) (float64, bool) {
	p := m.Bid
	if d == DirectionBuy {
		p = m.Offer
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (m MarketSnapshot) Mid() (float64, bool) {
	if m.Bid == nil || m.Offer == nil {
		return 0, false
	}
	return (*m.Bid + *m.Offer) / 2, true
}

type AccountState struct {
	AccountID string
	Balance   float64
	Available float64
}
