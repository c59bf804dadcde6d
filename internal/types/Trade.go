package types

import (
	sdkmath "cosmossdk.io/math"
)

// TradeEvent is one executed trade as seen from the pool's post-trade
// perspective. It is immutable input to the fee policy: the engine never
// mutates it and never holds a reference past the call.
type TradeEvent struct {
	// PoolBuysRisky is true when the pool acquired the risky asset (X).
	PoolBuysRisky bool `json:"pool_buys_risky"`

	// AmountX and AmountY are the traded amounts of both assets, WAD scaled.
	AmountX sdkmath.Int `json:"amount_x"`
	AmountY sdkmath.Int `json:"amount_y"`

	// Step is the simulated time step the trade occurred in. Non-decreasing
	// across the event sequence one policy instance observes; several trades
	// may share one step.
	Step uint64 `json:"step"`

	// ReserveX and ReserveY are the pool balances after the trade settled.
	// Strictly positive for any valid trade.
	ReserveX sdkmath.Int `json:"reserve_x"`
	ReserveY sdkmath.Int `json:"reserve_y"`
}

// FeePair is a policy decision: the two independent fee fractions (WAD
// scaled) the pool charges depending on trade direction. Bid applies when
// the pool buys X, ask when it sells X.
type FeePair struct {
	Bid sdkmath.Int `json:"bid"`
	Ask sdkmath.Int `json:"ask"`
}

// Regime is the binary volatility regime classification.
type Regime int

const (
	// RegimeFalling means the short-horizon variance estimate does not
	// exceed the long-horizon one.
	RegimeFalling Regime = iota
	// RegimeRising means short-horizon variance exceeds long-horizon.
	RegimeRising
)

func (r Regime) String() string {
	if r == RegimeRising {
		return "rising"
	}
	return "falling"
}
