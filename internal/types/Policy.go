package types

import (
	sdkmath "cosmossdk.io/math"
)

// PolicyParameters is the full configuration record for the fee policy
// engine. The source experiments spawned one near-identical strategy file per
// constant tweak; here the whole design space is four orthogonal knobs on a
// single tested core (base fee, EWMA decays, regime shift, directional
// shift), plus enable flags and the fee band.
type PolicyParameters struct {
	// BaseFeeBps is the symmetric starting fee, in basis points.
	BaseFeeBps uint64 `json:"base_fee_bps"`

	// MinFeeBps and MaxFeeBps bound every returned fee, inclusive.
	MinFeeBps uint64 `json:"min_fee_bps"`
	MaxFeeBps uint64 `json:"max_fee_bps"`

	// FastDecay and SlowDecay are the EWMA decay factors (WAD scaled,
	// strictly inside (0, 1)). Fast must be the smaller of the two: it
	// weights the newest squared return harder and forgets faster.
	FastDecay sdkmath.Int `json:"fast_decay"`
	SlowDecay sdkmath.Int `json:"slow_decay"`

	// VarianceSeed is the value (WAD scaled) both EWMAs start from, so the
	// volatility ratio opens at exactly 1.
	VarianceSeed sdkmath.Int `json:"variance_seed"`

	// RegimeEnabled applies RegimeAdjustBps on top of the volatility
	// multiplier: added while variance is rising, subtracted while falling.
	RegimeEnabled   bool   `json:"regime_enabled"`
	RegimeAdjustBps uint64 `json:"regime_adjust_bps"`

	// DirectionalEnabled shifts bid/ask asymmetrically with the trade's own
	// direction. Off by default: in the calibration runs this consistently
	// lost money once the volatility and regime layers were active, because
	// the discounted side is exactly the one informed flow takes.
	DirectionalEnabled   bool   `json:"directional_enabled"`
	DirectionalAdjustBps uint64 `json:"directional_adjust_bps"`
}
