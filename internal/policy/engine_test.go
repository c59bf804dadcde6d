package policy_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openamm/dynfee/internal/config"
	"github.com/openamm/dynfee/internal/policy"
	"github.com/openamm/dynfee/internal/types"
	"github.com/openamm/dynfee/internal/wadmath"
)

func wadUnits(n int64) sdkmath.Int {
	return sdkmath.NewInt(n).Mul(wadmath.Wad())
}

func newDefaultEngine(t *testing.T) *policy.Engine {
	t.Helper()
	engine, err := policy.NewEngine(config.DefaultPolicyParameters)
	require.NoError(t, err)
	return engine
}

// initScenarioEngine starts an engine on the reference pool: 100 risky units
// against 10000 numeraire units, an opening price of 100.
func initScenarioEngine(t *testing.T) *policy.Engine {
	t.Helper()
	engine := newDefaultEngine(t)
	pair, err := engine.OnInitialize(wadUnits(100), wadUnits(10000))
	require.NoError(t, err)
	require.True(t, pair.Bid.Equal(wadmath.BpsToWad(80)))
	require.True(t, pair.Ask.Equal(wadmath.BpsToWad(80)))
	return engine
}

func stepTrade(step uint64, reserveY sdkmath.Int) types.TradeEvent {
	return types.TradeEvent{
		PoolBuysRisky: false,
		AmountX:       sdkmath.ZeroInt(),
		AmountY:       wadUnits(50),
		Step:          step,
		ReserveX:      wadUnits(100),
		ReserveY:      reserveY,
	}
}

func TestFirstTransitionHoldsBaseFee(t *testing.T) {
	engine := initScenarioEngine(t)

	// The opening trade of step 1 moves the price to 100.5, but the first
	// observed transition only arms the estimator: no return is computed
	// against the seeded reference, so the fee stays at the base.
	pair, err := engine.OnTrade(stepTrade(1, wadmath.Wad().MulRaw(10050)))
	require.NoError(t, err)
	require.True(t, pair.Bid.Equal(wadmath.BpsToWad(80)), "got %s", pair.Bid)
	require.True(t, pair.Ask.Equal(wadmath.BpsToWad(80)), "got %s", pair.Ask)
}

func TestSecondTransitionRaisesFee(t *testing.T) {
	engine := initScenarioEngine(t)

	_, err := engine.OnTrade(stepTrade(1, wadmath.Wad().MulRaw(10050)))
	require.NoError(t, err)

	// Step 2 opens at price 101: the first genuine return enters the
	// estimator, the fast horizon jumps above the slow one and the fee
	// rises above base while staying inside the 4x dynamic range.
	pair, err := engine.OnTrade(stepTrade(2, wadmath.Wad().MulRaw(10100)))
	require.NoError(t, err)
	require.True(t, pair.Bid.Equal(pair.Ask), "directional layer is off by default")
	require.True(t, pair.Bid.GT(wadmath.BpsToWad(80)), "got %s", pair.Bid)
	require.True(t, pair.Bid.LTE(wadmath.BpsToWad(160)), "got %s", pair.Bid)

	regime, err := engine.Regime()
	require.NoError(t, err)
	require.Equal(t, types.RegimeRising, regime)

	fast, slow, err := engine.Variances()
	require.NoError(t, err)
	require.True(t, fast.GT(config.DefaultPolicyParameters.VarianceSeed))
	require.True(t, slow.GT(config.DefaultPolicyParameters.VarianceSeed))
}

func TestWithinStepTradesRepeatTheFee(t *testing.T) {
	engine := initScenarioEngine(t)

	_, err := engine.OnTrade(stepTrade(1, wadmath.Wad().MulRaw(10050)))
	require.NoError(t, err)
	first, err := engine.OnTrade(stepTrade(2, wadmath.Wad().MulRaw(10100)))
	require.NoError(t, err)

	// Retail continuation inside step 2 must not move the estimator even
	// when the reserves keep drifting.
	for _, reserveY := range []int64{10130, 10160, 10090} {
		pair, err := engine.OnTrade(stepTrade(2, wadmath.Wad().MulRaw(reserveY)))
		require.NoError(t, err)
		require.True(t, pair.Bid.Equal(first.Bid))
		require.True(t, pair.Ask.Equal(first.Ask))
	}
}

func TestStaleStepIsNotATransition(t *testing.T) {
	engine := initScenarioEngine(t)

	_, err := engine.OnTrade(stepTrade(1, wadmath.Wad().MulRaw(10050)))
	require.NoError(t, err)
	_, err = engine.OnTrade(stepTrade(5, wadmath.Wad().MulRaw(10100)))
	require.NoError(t, err)
	fastBefore, slowBefore, err := engine.Variances()
	require.NoError(t, err)

	// A lower step after a skip is continuation, never a rewind.
	_, err = engine.OnTrade(stepTrade(3, wadmath.Wad().MulRaw(10500)))
	require.NoError(t, err)
	fastAfter, slowAfter, err := engine.Variances()
	require.NoError(t, err)
	require.True(t, fastAfter.Equal(fastBefore))
	require.True(t, slowAfter.Equal(slowBefore))
}

func TestDeterministicReplay(t *testing.T) {
	run := func() (*policy.Engine, []types.FeePair) {
		engine := initScenarioEngine(t)
		var pairs []types.FeePair
		for _, ev := range []types.TradeEvent{
			stepTrade(1, wadmath.Wad().MulRaw(10050)),
			stepTrade(2, wadmath.Wad().MulRaw(10100)),
			stepTrade(2, wadmath.Wad().MulRaw(10140)),
			stepTrade(3, wadmath.Wad().MulRaw(9980)),
		} {
			pair, err := engine.OnTrade(ev)
			require.NoError(t, err)
			pairs = append(pairs, pair)
		}
		return engine, pairs
	}

	engineA, pairsA := run()
	engineB, pairsB := run()

	require.Len(t, pairsB, len(pairsA))
	for i := range pairsA {
		require.True(t, pairsA[i].Bid.Equal(pairsB[i].Bid), "decision %d bid diverged", i)
		require.True(t, pairsA[i].Ask.Equal(pairsB[i].Ask), "decision %d ask diverged", i)
	}

	snapA := engineA.RegisterSnapshot()
	snapB := engineB.RegisterSnapshot()
	for i := range snapA {
		require.True(t, snapA[i].Equal(snapB[i]), "register %d diverged", i)
	}
}

func TestOnlyDocumentedRegistersAreWritten(t *testing.T) {
	engine := initScenarioEngine(t)

	events := []types.TradeEvent{
		stepTrade(1, wadmath.Wad().MulRaw(10050)),
		stepTrade(2, wadmath.Wad().MulRaw(10100)),
	}
	events[1].PoolBuysRisky = true
	for _, ev := range events {
		_, err := engine.OnTrade(ev)
		require.NoError(t, err)
	}

	// Slots 0-6 hold the whole policy state; everything above must stay at
	// its zero value no matter what the trade flow looks like.
	snapshot := engine.RegisterSnapshot()
	for i := 7; i < len(snapshot); i++ {
		require.True(t, snapshot[i].IsZero(), "register %d written unexpectedly", i)
	}
}

func TestDirectionalLayerSplitsTheFeePair(t *testing.T) {
	params := config.DefaultPolicyParameters
	params.RegimeEnabled = false
	params.RegimeAdjustBps = 0
	params.DirectionalEnabled = true
	params.DirectionalAdjustBps = 5

	engine, err := policy.NewEngine(params)
	require.NoError(t, err)
	_, err = engine.OnInitialize(wadUnits(100), wadUnits(10000))
	require.NoError(t, err)

	event := stepTrade(1, wadmath.Wad().MulRaw(10050))
	event.PoolBuysRisky = true
	pair, err := engine.OnTrade(event)
	require.NoError(t, err)
	require.True(t, pair.Bid.Equal(wadmath.BpsToWad(85)), "continuation side got %s", pair.Bid)
	require.True(t, pair.Ask.Equal(wadmath.BpsToWad(75)), "rebalancing side got %s", pair.Ask)

	// Same trade in the opposite direction mirrors the split.
	event.PoolBuysRisky = false
	pair, err = engine.OnTrade(event)
	require.NoError(t, err)
	require.True(t, pair.Bid.Equal(wadmath.BpsToWad(75)))
	require.True(t, pair.Ask.Equal(wadmath.BpsToWad(85)))
}

func TestFeesRespectTheConfiguredBand(t *testing.T) {
	params := config.DefaultPolicyParameters
	params.MinFeeBps = 60
	params.MaxFeeBps = 90

	engine, err := policy.NewEngine(params)
	require.NoError(t, err)
	_, err = engine.OnInitialize(wadUnits(100), wadUnits(10000))
	require.NoError(t, err)

	reserves := []int64{10050, 10100, 11500, 8000, 13000, 9000}
	for i, reserveY := range reserves {
		pair, err := engine.OnTrade(stepTrade(uint64(i+1), wadmath.Wad().MulRaw(reserveY)))
		require.NoError(t, err)
		require.True(t, pair.Bid.GTE(wadmath.BpsToWad(60)))
		require.True(t, pair.Bid.LTE(wadmath.BpsToWad(90)))
		require.True(t, pair.Ask.GTE(wadmath.BpsToWad(60)))
		require.True(t, pair.Ask.LTE(wadmath.BpsToWad(90)))
	}
}

func TestLifecycleGuards(t *testing.T) {
	engine := newDefaultEngine(t)

	_, err := engine.OnTrade(stepTrade(1, wadUnits(10000)))
	require.ErrorIs(t, err, policy.ErrNotInitialized)

	_, err = engine.OnInitialize(wadUnits(100), wadUnits(10000))
	require.NoError(t, err)
	_, err = engine.OnInitialize(wadUnits(100), wadUnits(10000))
	require.ErrorIs(t, err, policy.ErrAlreadyInitialized)
}

func TestInitializeRejectsDegenerateReserves(t *testing.T) {
	for _, reserves := range [][2]sdkmath.Int{
		{sdkmath.ZeroInt(), wadUnits(10000)},
		{wadUnits(100), sdkmath.ZeroInt()},
		{sdkmath.NewInt(-1), wadUnits(10000)},
	} {
		engine := newDefaultEngine(t)
		_, err := engine.OnInitialize(reserves[0], reserves[1])
		require.ErrorIs(t, err, policy.ErrConfiguration)
	}
}

func TestValidateParameters(t *testing.T) {
	base := config.DefaultPolicyParameters

	cases := []struct {
		name   string
		mutate func(*types.PolicyParameters)
	}{
		{"max above domain ceiling", func(p *types.PolicyParameters) { p.MaxFeeBps = 1001 }},
		{"min above max", func(p *types.PolicyParameters) { p.MinFeeBps = 200; p.MaxFeeBps = 100 }},
		{"base below min", func(p *types.PolicyParameters) { p.MinFeeBps = 90 }},
		{"base above max", func(p *types.PolicyParameters) { p.MaxFeeBps = 70 }},
		{"nil variance seed", func(p *types.PolicyParameters) { p.VarianceSeed = sdkmath.Int{} }},
		{"negative variance seed", func(p *types.PolicyParameters) { p.VarianceSeed = sdkmath.NewInt(-1) }},
		{"regime enabled with zero bps", func(p *types.PolicyParameters) { p.RegimeAdjustBps = 0 }},
		{"directional enabled with zero bps", func(p *types.PolicyParameters) {
			p.DirectionalEnabled = true
			p.DirectionalAdjustBps = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := base
			tc.mutate(&params)
			require.ErrorIs(t, policy.ValidateParameters(params), policy.ErrInvalidParameters)
		})
	}

	require.NoError(t, policy.ValidateParameters(base))
}

func TestNewEngineRejectsBadDecays(t *testing.T) {
	params := config.DefaultPolicyParameters
	params.FastDecay = wadmath.Wad()
	_, err := policy.NewEngine(params)
	require.ErrorIs(t, err, policy.ErrInvalidParameters)
}

func TestPolicyNameEncodesTheLayers(t *testing.T) {
	engine := newDefaultEngine(t)
	require.Equal(t, "vol_regime_80_3_0", engine.PolicyName())
}
