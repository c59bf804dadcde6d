/*

This file contains the two-horizon volatility estimator. It maintains
exponentially-weighted moving averages of the squared relative price return
at a fast and a slow decay, persisted entirely in the policy instance's
register file so the whole estimate survives across calls with no state of
its own.

*/

package analyzer

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/openamm/dynfee/internal/registers"
	"github.com/openamm/dynfee/internal/wadmath"
)

var ErrInvalidDecay = errors.New("analyzer: decay must lie strictly inside (0, 1)")

// Slots assigns the registers the estimator owns inside the policy's file.
type Slots struct {
	PrevPrice int // last observed trade-implied price (WAD)
	PriceSeen int // 0 until the first step-transition price is recorded
	FastVar   int // fast-horizon EWMA of squared return (WAD)
	SlowVar   int // slow-horizon EWMA of squared return (WAD)
}

// VolatilityEstimator updates the variance pair once per step transition.
// Within-step trades must never reach it: the estimate tracks the exogenous
// price process between steps, not intra-step trade noise.
type VolatilityEstimator struct {
	regs          *registers.File
	slots         Slots
	fastDecay     sdkmath.Int
	slowDecay     sdkmath.Int
	oneMinusFast  sdkmath.Int
	oneMinusSlow  sdkmath.Int
}

// NewVolatilityEstimator validates the decays and binds the estimator to its
// registers. fastDecay must be strictly below slowDecay so the fast horizon
// really is the shorter memory.
func NewVolatilityEstimator(regs *registers.File, slots Slots, fastDecay, slowDecay sdkmath.Int) (*VolatilityEstimator, error) {
	one := wadmath.Wad()
	for _, d := range []sdkmath.Int{fastDecay, slowDecay} {
		if d.IsNil() || !d.IsPositive() || d.GTE(one) {
			return nil, ErrInvalidDecay
		}
	}
	if fastDecay.GTE(slowDecay) {
		return nil, fmt.Errorf("%w: fast decay %s must be below slow decay %s",
			ErrInvalidDecay, fastDecay, slowDecay)
	}
	return &VolatilityEstimator{
		regs:         regs,
		slots:        slots,
		fastDecay:    fastDecay,
		slowDecay:    slowDecay,
		oneMinusFast: one.Sub(fastDecay),
		oneMinusSlow: one.Sub(slowDecay),
	}, nil
}

// Seed initializes the estimator state: the reference price from the pool's
// starting reserve ratio and an identical variance seed on both horizons, so
// the ratio opens at exactly 1 (neutral).
func (e *VolatilityEstimator) Seed(referencePrice, varianceSeed sdkmath.Int) error {
	if err := e.regs.Write(e.slots.PrevPrice, referencePrice); err != nil {
		return err
	}
	if err := e.regs.Write(e.slots.PriceSeen, sdkmath.ZeroInt()); err != nil {
		return err
	}
	if err := e.regs.Write(e.slots.FastVar, varianceSeed); err != nil {
		return err
	}
	return e.regs.Write(e.slots.SlowVar, varianceSeed)
}

// Update feeds one step-transition price into both EWMAs and returns the
// refreshed (fast, slow) variance pair.
//
// The very first observed transition only records the price: the seeded
// reference came from the raw reserve ratio and carries no trade impact,
// while every later price does, so computing a return across that boundary
// would inject a spurious jump into the estimate.
func (e *VolatilityEstimator) Update(price sdkmath.Int) (fast, slow sdkmath.Int, err error) {
	seen, err := e.regs.Read(e.slots.PriceSeen)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	fast, err = e.regs.Read(e.slots.FastVar)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	slow, err = e.regs.Read(e.slots.SlowVar)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	if seen.IsZero() {
		if err := e.regs.Write(e.slots.PrevPrice, price); err != nil {
			return sdkmath.Int{}, sdkmath.Int{}, err
		}
		if err := e.regs.Write(e.slots.PriceSeen, sdkmath.OneInt()); err != nil {
			return sdkmath.Int{}, sdkmath.Int{}, err
		}
		return fast, slow, nil
	}

	prev, err := e.regs.Read(e.slots.PrevPrice)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	sqReturn, err := squaredReturn(price, prev)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	fast, err = decayInto(e.fastDecay, e.oneMinusFast, fast, sqReturn)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	slow, err = decayInto(e.slowDecay, e.oneMinusSlow, slow, sqReturn)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	if err := e.regs.Write(e.slots.FastVar, fast); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if err := e.regs.Write(e.slots.SlowVar, slow); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if err := e.regs.Write(e.slots.PrevPrice, price); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return fast, slow, nil
}

// Variances returns the current (fast, slow) pair without updating anything.
func (e *VolatilityEstimator) Variances() (fast, slow sdkmath.Int, err error) {
	fast, err = e.regs.Read(e.slots.FastVar)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	slow, err = e.regs.Read(e.slots.SlowVar)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return fast, slow, nil
}

// squaredReturn computes (|price - prev| / prev)^2 in WAD as
// (delta*delta) / (prev*prev), matching the fixed-point evaluation order the
// calibrated constants were derived under.
func squaredReturn(price, prev sdkmath.Int) (sdkmath.Int, error) {
	delta := wadmath.AbsDiff(price, prev)
	num, err := wadmath.Mul(delta, delta)
	if err != nil {
		return sdkmath.Int{}, err
	}
	den, err := wadmath.Mul(prev, prev)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return wadmath.Div(num, den)
}

// decayInto applies one EWMA step: decay*current + (1-decay)*observation.
func decayInto(decay, oneMinusDecay, current, observation sdkmath.Int) (sdkmath.Int, error) {
	kept, err := wadmath.Mul(decay, current)
	if err != nil {
		return sdkmath.Int{}, err
	}
	added, err := wadmath.Mul(oneMinusDecay, observation)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return kept.Add(added), nil
}
