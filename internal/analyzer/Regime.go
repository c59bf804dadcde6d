/*

This file contains the quantities derived from the variance pair: the
self-calibrating volatility ratio and the binary regime signal. Both are pure
functions of current estimator state, recomputed on demand and never
persisted separately.

*/

package analyzer

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/dynfee/internal/types"
	"github.com/openamm/dynfee/internal/wadmath"
)

// Ratio returns fastVariance / slowVariance in WAD. Before any variance has
// accumulated the slow estimate can be zero; the ratio is then 1 (neutral)
// rather than a division fault.
func (e *VolatilityEstimator) Ratio() (sdkmath.Int, error) {
	fast, slow, err := e.Variances()
	if err != nil {
		return sdkmath.Int{}, err
	}
	if slow.IsZero() {
		return wadmath.Wad(), nil
	}
	return wadmath.Div(fast, slow)
}

// Regime classifies the current state: Rising when the fast estimate exceeds
// the slow one, Falling otherwise.
func (e *VolatilityEstimator) Regime() (types.Regime, error) {
	fast, slow, err := e.Variances()
	if err != nil {
		return types.RegimeFalling, err
	}
	if fast.GT(slow) {
		return types.RegimeRising, nil
	}
	return types.RegimeFalling, nil
}

// RealizedVolatility converts a WAD-scaled variance into the WAD-scaled
// standard deviation.
func RealizedVolatility(variance sdkmath.Int) (sdkmath.Int, error) {
	return wadmath.SqrtWad(variance)
}
