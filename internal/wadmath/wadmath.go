/*

This file contains the checked WAD fixed-point arithmetic used by the fee
policy engine. All quantities are sdkmath.Int values scaled by 1e18, bounded
to 256 bits like the uint256 domain they model. Faulting operations return
errors instead of panicking so a failing call can be aborted cleanly.

*/

package wadmath

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrOverflow        = errors.New("wadmath: 256-bit overflow")
	ErrDivisionByZero  = errors.New("wadmath: division by zero")
	ErrNegativeOperand = errors.New("wadmath: operand is negative")
)

const (
	// maxBitLen mirrors the 256-bit ceiling of sdkmath.Int.
	maxBitLen = 256

	// sqrtIterationCap bounds Newton's method regardless of input magnitude.
	// Seeded from the bit length it converges far earlier; the cap exists so
	// the worst case is fixed, not data-dependent.
	sqrtIterationCap = 256

	// BpsPerUnit is the number of basis points in 1.0.
	BpsPerUnit = 10_000
)

var (
	wadBig     = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	halfWadBig = new(big.Int).Rsh(new(big.Int).Set(wadBig), 1)
	bpsBig     = new(big.Int).Exp(big.NewInt(10), big.NewInt(14), nil)
)

// Wad returns 1.0 in WAD scale.
func Wad() sdkmath.Int {
	return sdkmath.NewIntFromBigInt(new(big.Int).Set(wadBig))
}

// HalfWad returns 0.5 in WAD scale.
func HalfWad() sdkmath.Int {
	return sdkmath.NewIntFromBigInt(new(big.Int).Set(halfWadBig))
}

// Mul computes a*b/1e18, rounding toward zero. The unscaled product must
// itself fit in 256 bits, matching the uint256 domain where a*b overflows
// before the downscale ever happens.
func Mul(a, b sdkmath.Int) (sdkmath.Int, error) {
	raw := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if raw.BitLen() > maxBitLen {
		return sdkmath.Int{}, ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(raw.Quo(raw, wadBig)), nil
}

// Div computes a*1e18/b, rounding toward zero. The upscaled numerator must
// fit in 256 bits before the division, for the same reason as Mul.
func Div(a, b sdkmath.Int) (sdkmath.Int, error) {
	if b.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}
	raw := new(big.Int).Mul(a.BigInt(), wadBig)
	if raw.BitLen() > maxBitLen {
		return sdkmath.Int{}, ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(raw.Quo(raw, b.BigInt())), nil
}

// Sqrt returns the largest r with r*r <= x, via Newton's method seeded from
// the bit length. Deterministic, integer-only, iteration count fixed by
// sqrtIterationCap.
func Sqrt(x sdkmath.Int) (sdkmath.Int, error) {
	if x.IsNegative() {
		return sdkmath.Int{}, ErrNegativeOperand
	}
	if x.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return sdkmath.NewIntFromBigInt(sqrtBig(x.BigInt())), nil
}

// SqrtWad returns the WAD-scaled square root of a WAD-scaled value:
// sqrt(x/1e18) in WAD equals isqrt(x*1e18). The upscaled argument must fit
// in 256 bits, like every other intermediate in this package.
func SqrtWad(x sdkmath.Int) (sdkmath.Int, error) {
	if x.IsNegative() {
		return sdkmath.Int{}, ErrNegativeOperand
	}
	if x.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	raw := new(big.Int).Mul(x.BigInt(), wadBig)
	if raw.BitLen() > maxBitLen {
		return sdkmath.Int{}, ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(sqrtBig(raw)), nil
}

// sqrtBig runs the Newton iteration on a strictly positive value.
// 2^ceil(bitLen/2) is always >= isqrt(v), so the iteration decreases
// monotonically onto the floor square root.
func sqrtBig(v *big.Int) *big.Int {
	r := new(big.Int).Lsh(big.NewInt(1), uint(v.BitLen()+1)/2)
	for i := 0; i < sqrtIterationCap; i++ {
		next := new(big.Int).Quo(v, r)
		next.Add(next, r)
		next.Rsh(next, 1)
		if next.Cmp(r) >= 0 {
			break
		}
		r = next
	}
	return r
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b sdkmath.Int) sdkmath.Int {
	if a.GTE(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

// Clamp bounds v to [lo, hi]. lo <= hi is the caller's precondition.
func Clamp(v, lo, hi sdkmath.Int) sdkmath.Int {
	if v.LT(lo) {
		return lo
	}
	if v.GT(hi) {
		return hi
	}
	return v
}

// BpsToWad converts basis points to WAD scale exactly: bps * 1e18 / 10000.
func BpsToWad(bps uint64) sdkmath.Int {
	raw := new(big.Int).Mul(new(big.Int).SetUint64(bps), bpsBig)
	return sdkmath.NewIntFromBigInt(raw)
}
