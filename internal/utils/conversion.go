/*
This file contains conversion helpers between WAD-scaled sdkmath values and
float64, used only at the reporting and configuration boundaries. The engine
itself never touches floating point.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// WadToFloat64 converts a WAD-scaled (1e18) value to float64.
func WadToFloat64(amount sdkmath.Int) (float64, error) {
	if amount.IsNil() {
		return 0, ErrAmountNil
	}

	decAmount := sdkmath.LegacyNewDecFromInt(amount)
	factor := sdkmath.LegacyNewDec(10).Power(18)

	result, err := decAmount.Quo(factor).Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, result)
	}
	return result, nil
}

// WadToBpsFloat64 converts a WAD-scaled fee fraction to basis points.
func WadToBpsFloat64(amount sdkmath.Int) (float64, error) {
	v, err := WadToFloat64(amount)
	if err != nil {
		return 0, err
	}
	return v * 10_000, nil
}

// Float64ToWad converts a non-negative float64 to a WAD-scaled Int. It goes
// through a fixed-precision string to avoid binary floating point artifacts.
func Float64ToWad(amount float64) (sdkmath.Int, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount is %f", ErrNotFinite, amount)
	}
	if amount < 0 {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if amount == 0 {
		return sdkmath.ZeroInt(), nil
	}

	// Shortest round-trip formatting, so 0.85 stays "0.85" instead of its
	// binary expansion; anything past 18 fractional digits is truncated to
	// what LegacyDec can carry.
	amountStr := strconv.FormatFloat(amount, 'f', -1, 64)
	if dot := strings.IndexByte(amountStr, '.'); dot >= 0 && len(amountStr)-dot-1 > 18 {
		amountStr = amountStr[:dot+19]
	}
	decAmount, err := sdkmath.LegacyNewDecFromStr(amountStr)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: failed to create decimal from string: %w", ErrConversionFailed, err)
	}

	factor := sdkmath.LegacyNewDec(10).Power(18)
	result := decAmount.Mul(factor).TruncateInt()
	if result.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	return result, nil
}
