/*

This file contains the fee policy engine: the composition of the register
file, the step-boundary detector and the volatility estimator into the
per-trade fee decision. One engine, parameterized by PolicyParameters,
replaces the source experiments' family of near-duplicate strategy variants.

*/

package policy

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/openamm/dynfee/internal/analyzer"
	"github.com/openamm/dynfee/internal/logger"
	"github.com/openamm/dynfee/internal/registers"
	"github.com/openamm/dynfee/internal/types"
	"github.com/openamm/dynfee/internal/wadmath"
)

var (
	ErrConfiguration      = errors.New("policy: configuration error")
	ErrAlreadyInitialized = errors.New("policy: instance already initialized")
	ErrNotInitialized     = errors.New("policy: trade before initialization")
	ErrInvalidParameters  = errors.New("policy: invalid parameters")
)

// Register layout. 7 of the 32 slots are in use; the capacity ceiling is
// enforced by the registers package.
const (
	slotInitialized = 0 // 1 once OnInitialize has run
	slotLastStep    = 1 // last-seen step index
	slotTradeSeen   = 2 // 1 once any trade has been observed
	slotPrevPrice   = 3 // estimator reference price (WAD)
	slotPriceSeen   = 4 // 1 once a step-transition price has been recorded
	slotFastVar     = 5 // fast-horizon EWMA variance (WAD)
	slotSlowVar     = 6 // slow-horizon EWMA variance (WAD)
)

// hardMaxFeeBps is the domain ceiling (10%) the external validator enforces;
// no parameter set may configure past it.
const hardMaxFeeBps = 1_000

// Engine implements Strategy over an exclusively-owned register file.
type Engine struct {
	logger zerolog.Logger
	params types.PolicyParameters
	regs   *registers.File
	vol    *analyzer.VolatilityEstimator
	clock  *stepClock
	name   string

	// Precomputed WAD constants for the per-trade path.
	baseFee      sdkmath.Int
	minFee       sdkmath.Int
	maxFee       sdkmath.Int
	regimeAdjust sdkmath.Int
	dirAdjust    sdkmath.Int
	twoWad       sdkmath.Int
}

// NewEngine validates the parameters and allocates a fresh instance with a
// zeroed register file. One engine serves exactly one simulated market run.
func NewEngine(params types.PolicyParameters) (*Engine, error) {
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}

	regs := registers.New()
	vol, err := analyzer.NewVolatilityEstimator(regs, analyzer.Slots{
		PrevPrice: slotPrevPrice,
		PriceSeen: slotPriceSeen,
		FastVar:   slotFastVar,
		SlowVar:   slotSlowVar,
	}, params.FastDecay, params.SlowDecay)
	if err != nil {
		return nil, errors.Join(ErrInvalidParameters, err)
	}

	return &Engine{
		logger: logger.GetForComponent("fee_policy"),
		params: params,
		regs:   regs,
		vol:    vol,
		clock: &stepClock{
			regs:          regs,
			slotLastStep:  slotLastStep,
			slotTradeSeen: slotTradeSeen,
		},
		name: fmt.Sprintf("vol_regime_%d_%d_%d",
			params.BaseFeeBps, enabledBps(params.RegimeEnabled, params.RegimeAdjustBps),
			enabledBps(params.DirectionalEnabled, params.DirectionalAdjustBps)),
		baseFee:      wadmath.BpsToWad(params.BaseFeeBps),
		minFee:       wadmath.BpsToWad(params.MinFeeBps),
		maxFee:       wadmath.BpsToWad(params.MaxFeeBps),
		regimeAdjust: wadmath.BpsToWad(params.RegimeAdjustBps),
		dirAdjust:    wadmath.BpsToWad(params.DirectionalAdjustBps),
		twoWad:       wadmath.Wad().MulRaw(2),
	}, nil
}

// ValidateParameters rejects parameter sets the engine cannot run safely.
// Decay validation lives with the estimator; everything fee-shaped is
// checked here.
func ValidateParameters(params types.PolicyParameters) error {
	if params.MaxFeeBps > hardMaxFeeBps {
		return fmt.Errorf("%w: max fee %d bps exceeds the %d bps domain ceiling",
			ErrInvalidParameters, params.MaxFeeBps, hardMaxFeeBps)
	}
	if params.MinFeeBps > params.MaxFeeBps {
		return fmt.Errorf("%w: min fee %d bps above max fee %d bps",
			ErrInvalidParameters, params.MinFeeBps, params.MaxFeeBps)
	}
	if params.BaseFeeBps < params.MinFeeBps || params.BaseFeeBps > params.MaxFeeBps {
		return fmt.Errorf("%w: base fee %d bps outside [%d, %d] bps",
			ErrInvalidParameters, params.BaseFeeBps, params.MinFeeBps, params.MaxFeeBps)
	}
	if params.VarianceSeed.IsNil() || params.VarianceSeed.IsNegative() {
		return fmt.Errorf("%w: variance seed must be a non-negative value", ErrInvalidParameters)
	}
	if params.RegimeEnabled && params.RegimeAdjustBps == 0 {
		return fmt.Errorf("%w: regime layer enabled with zero magnitude", ErrInvalidParameters)
	}
	if params.DirectionalEnabled && params.DirectionalAdjustBps == 0 {
		return fmt.Errorf("%w: directional layer enabled with zero magnitude", ErrInvalidParameters)
	}
	return nil
}

// OnInitialize seeds every register the policy depends on and returns the
// opening symmetric fee pair. A degenerate reserve pair is a fatal
// configuration error: the instance cannot start and must not be retried.
func (e *Engine) OnInitialize(reserveX, reserveY sdkmath.Int) (types.FeePair, error) {
	initialized, err := e.regs.Read(slotInitialized)
	if err != nil {
		return types.FeePair{}, err
	}
	if !initialized.IsZero() {
		return types.FeePair{}, ErrAlreadyInitialized
	}
	if reserveX.IsNil() || reserveY.IsNil() || !reserveX.IsPositive() || !reserveY.IsPositive() {
		return types.FeePair{}, fmt.Errorf("%w: reserves must be strictly positive", ErrConfiguration)
	}

	referencePrice, err := wadmath.Div(reserveY, reserveX)
	if err != nil {
		return types.FeePair{}, errors.Join(ErrConfiguration, err)
	}
	if err := e.vol.Seed(referencePrice, e.params.VarianceSeed); err != nil {
		return types.FeePair{}, err
	}
	if err := e.regs.Write(slotInitialized, sdkmath.OneInt()); err != nil {
		return types.FeePair{}, err
	}

	fee := e.clampFee(e.baseFee)
	e.logger.Debug().
		Str("reference_price", referencePrice.String()).
		Str("fee", fee.String()).
		Msg("Policy instance initialized")
	return types.FeePair{Bid: fee, Ask: fee}, nil
}

// OnTrade recomputes the fee pair after one executed trade. Every arithmetic
// or register fault aborts the call; no default fee is ever substituted,
// because a silent fallback would mask a configuration bug while quietly
// corrupting the policy's economics.
func (e *Engine) OnTrade(event types.TradeEvent) (types.FeePair, error) {
	initialized, err := e.regs.Read(slotInitialized)
	if err != nil {
		return types.FeePair{}, err
	}
	if initialized.IsZero() {
		return types.FeePair{}, ErrNotInitialized
	}

	transition, err := e.clock.classify(event.Step)
	if err != nil {
		return types.FeePair{}, err
	}

	// Only the informed (step-opening) trade moves the estimator; retail
	// continuation must not perturb it.
	if transition {
		price, err := wadmath.Div(event.ReserveY, event.ReserveX)
		if err != nil {
			return types.FeePair{}, err
		}
		if _, _, err := e.vol.Update(price); err != nil {
			return types.FeePair{}, err
		}
	}

	fee, err := e.volAdjustedFee()
	if err != nil {
		return types.FeePair{}, err
	}
	fee, err = e.regimeAdjustedFee(fee)
	if err != nil {
		return types.FeePair{}, err
	}

	bid, ask := e.directionalFees(fee, event.PoolBuysRisky)
	pair := types.FeePair{Bid: e.clampFee(bid), Ask: e.clampFee(ask)}
	e.logger.Debug().
		Uint64("step", event.Step).
		Bool("transition", transition).
		Str("bid", pair.Bid.String()).
		Str("ask", pair.Ask.String()).
		Msg("Fee decision")
	return pair, nil
}

// PolicyName returns the static identifier. No register access.
func (e *Engine) PolicyName() string {
	return e.name
}

// Variances exposes the current estimator pair for run reporting.
func (e *Engine) Variances() (fast, slow sdkmath.Int, err error) {
	return e.vol.Variances()
}

// Regime exposes the current regime signal for run reporting.
func (e *Engine) Regime() (types.Regime, error) {
	return e.vol.Regime()
}

// RegisterSnapshot copies the register contents, for the determinism checks.
func (e *Engine) RegisterSnapshot() [registers.Count]sdkmath.Int {
	return e.regs.Snapshot()
}

// volAdjustedFee scales the base fee by clamp(0.5 + 0.5*ratio, 0.5, 2.0).
// The bound caps the dynamic range at 4x so a degenerate ratio can never
// produce a runaway fee.
func (e *Engine) volAdjustedFee() (sdkmath.Int, error) {
	ratio, err := e.vol.Ratio()
	if err != nil {
		return sdkmath.Int{}, err
	}
	scaled, err := wadmath.Mul(wadmath.HalfWad(), ratio)
	if err != nil {
		return sdkmath.Int{}, err
	}
	multiplier := wadmath.Clamp(wadmath.HalfWad().Add(scaled), wadmath.HalfWad(), e.twoWad)
	return wadmath.Mul(e.baseFee, multiplier)
}

// regimeAdjustedFee shifts the fee by the configured increment: up while
// variance is rising, down while falling, floored at zero ahead of the final
// clamp. Equal estimates are neutral and shift nothing, which keeps the cold
// start (both horizons on the same seed) at exactly the base fee.
func (e *Engine) regimeAdjustedFee(fee sdkmath.Int) (sdkmath.Int, error) {
	if !e.params.RegimeEnabled {
		return fee, nil
	}
	fast, slow, err := e.vol.Variances()
	if err != nil {
		return sdkmath.Int{}, err
	}
	switch {
	case fast.GT(slow):
		return fee.Add(e.regimeAdjust), nil
	case fast.LT(slow):
		if fee.GT(e.regimeAdjust) {
			return fee.Sub(e.regimeAdjust), nil
		}
		return sdkmath.ZeroInt(), nil
	default:
		return fee, nil
	}
}

// directionalFees optionally penalizes continuation flow and discounts
// rebalancing flow. Dormant with the shipped defaults.
func (e *Engine) directionalFees(fee sdkmath.Int, poolBuysRisky bool) (bid, ask sdkmath.Int) {
	if !e.params.DirectionalEnabled {
		return fee, fee
	}
	penalized := fee.Add(e.dirAdjust)
	discounted := sdkmath.ZeroInt()
	if fee.GT(e.dirAdjust) {
		discounted = fee.Sub(e.dirAdjust)
	}
	if poolBuysRisky {
		return penalized, discounted
	}
	return discounted, penalized
}

func (e *Engine) clampFee(fee sdkmath.Int) sdkmath.Int {
	return wadmath.Clamp(fee, e.minFee, e.maxFee)
}

func enabledBps(enabled bool, bps uint64) uint64 {
	if enabled {
		return bps
	}
	return 0
}
