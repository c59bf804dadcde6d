package wadmath_test

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openamm/dynfee/internal/wadmath"
)

func wadOf(units int64) sdkmath.Int {
	return sdkmath.NewInt(units).Mul(wadmath.Wad())
}

func TestMul(t *testing.T) {
	// 1.5 * 2 = 3
	oneAndHalf := wadmath.Wad().Add(wadmath.HalfWad())
	got, err := wadmath.Mul(oneAndHalf, wadOf(2))
	require.NoError(t, err)
	require.True(t, got.Equal(wadOf(3)), "got %s", got)

	// Rounds toward zero: 1 wei * 1 wei underflows to 0.
	got, err = wadmath.Mul(sdkmath.OneInt(), sdkmath.OneInt())
	require.NoError(t, err)
	require.True(t, got.IsZero())

	// Sign handling.
	got, err = wadmath.Mul(wadOf(-3), wadmath.HalfWad())
	require.NoError(t, err)
	require.True(t, got.Equal(wadOf(-3).QuoRaw(2)))
}

func TestMulOverflow(t *testing.T) {
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 255))
	_, err := wadmath.Mul(huge, huge)
	require.ErrorIs(t, err, wadmath.ErrOverflow)

	// The unscaled product overflows even when the downscaled quotient would
	// fit: 2^255 * 4 is 2^257 before the divide.
	_, err = wadmath.Mul(huge, sdkmath.NewInt(4))
	require.ErrorIs(t, err, wadmath.ErrOverflow)
}

func TestDiv(t *testing.T) {
	got, err := wadmath.Div(wadOf(10050), wadOf(100))
	require.NoError(t, err)
	require.True(t, got.Equal(wadOf(100).Add(wadmath.HalfWad())), "got %s", got)

	_, err = wadmath.Div(wadOf(1), sdkmath.ZeroInt())
	require.ErrorIs(t, err, wadmath.ErrDivisionByZero)
}

func TestDivOverflow(t *testing.T) {
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 250))
	_, err := wadmath.Div(huge, sdkmath.OneInt())
	require.ErrorIs(t, err, wadmath.ErrOverflow)

	// The upscaled numerator overflows even when a big divisor would bring
	// the quotient back into range: 2^250 * 1e18 is about 2^310.
	divisor := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 62))
	_, err = wadmath.Div(huge, divisor)
	require.ErrorIs(t, err, wadmath.ErrOverflow)
}

func TestSqrt(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{15, 3},
		{16, 4},
		{17, 4},
		{1_000_000, 1000},
		{999_999, 999},
	}
	for _, tc := range cases {
		got, err := wadmath.Sqrt(sdkmath.NewInt(tc.in))
		require.NoError(t, err)
		require.True(t, got.Equal(sdkmath.NewInt(tc.want)), "sqrt(%d) = %s, want %d", tc.in, got, tc.want)
	}

	_, err := wadmath.Sqrt(sdkmath.NewInt(-1))
	require.ErrorIs(t, err, wadmath.ErrNegativeOperand)
}

func TestSqrtLarge(t *testing.T) {
	// Floor property holds at word-boundary magnitudes: r*r <= x < (r+1)^2.
	x := sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 200), big.NewInt(12345)))
	r, err := wadmath.Sqrt(x)
	require.NoError(t, err)
	require.True(t, r.Mul(r).LTE(x))
	next := r.Add(sdkmath.OneInt())
	require.True(t, next.Mul(next).GT(x))
}

func TestSqrtWad(t *testing.T) {
	// sqrt(0.04) = 0.2, sqrt(1) = 1, both exact in WAD.
	got, err := wadmath.SqrtWad(sdkmath.NewInt(40_000_000_000_000_000))
	require.NoError(t, err)
	require.True(t, got.Equal(sdkmath.NewInt(200_000_000_000_000_000)), "got %s", got)

	got, err = wadmath.SqrtWad(wadmath.Wad())
	require.NoError(t, err)
	require.True(t, got.Equal(wadmath.Wad()))

	got, err = wadmath.SqrtWad(sdkmath.ZeroInt())
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = wadmath.SqrtWad(sdkmath.NewInt(-1))
	require.ErrorIs(t, err, wadmath.ErrNegativeOperand)

	// The upscaled argument must stay within 256 bits.
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 240))
	_, err = wadmath.SqrtWad(huge)
	require.ErrorIs(t, err, wadmath.ErrOverflow)
}

func TestAbsDiff(t *testing.T) {
	require.True(t, wadmath.AbsDiff(wadOf(3), wadOf(5)).Equal(wadOf(2)))
	require.True(t, wadmath.AbsDiff(wadOf(5), wadOf(3)).Equal(wadOf(2)))
	require.True(t, wadmath.AbsDiff(wadOf(4), wadOf(4)).IsZero())
}

func TestClamp(t *testing.T) {
	lo, hi := wadOf(1), wadOf(2)
	require.True(t, wadmath.Clamp(wadOf(0), lo, hi).Equal(lo))
	require.True(t, wadmath.Clamp(wadOf(3), lo, hi).Equal(hi))
	mid := wadOf(1).Add(wadmath.HalfWad())
	require.True(t, wadmath.Clamp(mid, lo, hi).Equal(mid))
}

func TestBpsToWad(t *testing.T) {
	// 10000 bps is exactly 1.0; 80 bps is exactly 0.008.
	require.True(t, wadmath.BpsToWad(10_000).Equal(wadmath.Wad()))
	require.True(t, wadmath.BpsToWad(80).Equal(sdkmath.NewInt(8_000_000_000_000_000)))
	require.True(t, wadmath.BpsToWad(0).IsZero())
}
