package balance

import (
	"math/big"
	"time"
)

// Holding is the balance of one asset.
type Holding struct {
	Symbol   string   `json:"symbol"`
	Token    string   `json:"token,omitempty"` // empty for the native asset
	Decimals int      `json:"decimals"`
	Balance  string   `json:"balance"` // decimal, whole units
	Raw      *big.Int `json:"-"`

	// USDPrice and USDValue are nil when no quote was available.
	USDPrice *float64 `json:"usd_price,omitempty"`
	USDValue *float64 `json:"usd_value,omitempty"`
}

// Snapshot is a point-in-time view of an address's holdings. It is never
// persisted.
type Snapshot struct {
	Address   string    `json:"address"`
	Native    Holding   `json:"native"`
	Tokens    []Holding `json:"tokens"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Holdings returns the native holding followed by the tokens.
func (s *Snapshot) Holdings() []Holding {
	out := make([]Holding, 0, 1+len(s.Tokens))
	out = append(out, s.Native)
	return append(out, s.Tokens...)
}

// TotalUSD sums the quoted holdings. ok is false when no holding was quoted.
func (s *Snapshot) TotalUSD() (total float64, ok bool) {
	for _, h := range s.Holdings() {
		if h.USDValue != nil {
			total += *h.USDValue
			ok = true
		}
	}
	return total, ok
}
