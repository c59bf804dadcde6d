/*

This file contains the replay runner: it owns one policy instance, feeds it a
recorded trade tape in order, captures every fee decision and aggregates the
run summary the scoring side consumes. A policy fault anywhere in the run
disqualifies it; the partial results are kept for diagnosis but the run
scores nothing.

*/

package replay

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openamm/dynfee/internal/analyzer"
	"github.com/openamm/dynfee/internal/config"
	"github.com/openamm/dynfee/internal/logger"
	"github.com/openamm/dynfee/internal/policy"
	"github.com/openamm/dynfee/internal/types"
	"github.com/openamm/dynfee/internal/utils"
)

var ErrEmptyTape = errors.New("replay: tape has no events")

// Runner drives one policy instance through one scenario.
type Runner struct {
	logger   zerolog.Logger
	engine   *policy.Engine
	scenario config.Scenario
	reserveX sdkmath.Int
	reserveY sdkmath.Int
}

// NewRunner resolves the scenario against the given base parameters and
// builds a fresh policy instance for it.
func NewRunner(scenario config.Scenario, base types.PolicyParameters) (*Runner, error) {
	params, err := scenario.ResolveParameters(base)
	if err != nil {
		return nil, err
	}
	reserveX, reserveY, err := scenario.InitialReserves()
	if err != nil {
		return nil, err
	}
	engine, err := policy.NewEngine(params)
	if err != nil {
		return nil, err
	}
	return &Runner{
		logger:   logger.GetForComponent("replay_runner"),
		engine:   engine,
		scenario: scenario,
		reserveX: reserveX,
		reserveY: reserveY,
	}, nil
}

// PolicyName exposes the engine identifier for persistence and the API.
func (r *Runner) PolicyName() string {
	return r.engine.PolicyName()
}

// Run replays the tape. The returned error covers harness-level problems
// only (an empty tape, a broken conversion); policy faults are reported
// through the Disqualified fields of the summary.
func (r *Runner) Run(events []TapeEvent) (types.ReplayRun, []types.FeeDecision, error) {
	if len(events) == 0 {
		return types.ReplayRun{}, nil, ErrEmptyTape
	}

	run := types.ReplayRun{
		ID:         uuid.New(),
		Scenario:   r.scenario.Name,
		PolicyName: r.engine.PolicyName(),
		StartedAt:  time.Now().UTC(),
	}
	stats := newFeeStats()
	decisions := make([]types.FeeDecision, 0, len(events)+1)

	opening, err := r.engine.OnInitialize(r.reserveX, r.reserveY)
	if err != nil {
		r.logger.Error().Err(err).Str("scenario", run.Scenario).
			Msg("Policy initialization failed, run disqualified")
		return r.finish(run, stats, decisions, err)
	}
	if err := stats.observe(opening); err != nil {
		return types.ReplayRun{}, nil, err
	}
	decisions = append(decisions, types.FeeDecision{Ordinal: -1, Fees: opening, Transition: true})

	var lastStep uint64
	var markout float64
	for i, event := range events {
		fees, err := r.engine.OnTrade(event.Trade)
		if err != nil {
			r.logger.Error().Err(err).Int("ordinal", i).Uint64("step", event.Trade.Step).
				Msg("Policy call faulted, run disqualified")
			return r.finish(run, stats, decisions, err)
		}

		transition := i == 0 || event.Trade.Step > lastStep
		lastStep = event.Trade.Step
		if transition {
			run.Transitions++
		}
		run.Events++

		if err := stats.observe(fees); err != nil {
			return types.ReplayRun{}, nil, err
		}
		decisions = append(decisions, types.FeeDecision{
			Ordinal:    i,
			Step:       event.Trade.Step,
			Transition: transition,
			Fees:       fees,
			FairPrice:  event.FairPrice,
		})

		if event.FairPrice != nil {
			m, err := tradeMarkout(event.Trade, *event.FairPrice)
			if err != nil {
				return types.ReplayRun{}, nil, err
			}
			markout += m
		}
	}

	run.MarkoutY = markout
	return r.finish(run, stats, decisions, nil)
}

// finish stamps the summary with the aggregate statistics and final
// estimator state, marking the run disqualified when a policy fault ended
// it early.
func (r *Runner) finish(run types.ReplayRun, stats *feeStats, decisions []types.FeeDecision, policyErr error) (types.ReplayRun, []types.FeeDecision, error) {
	if policyErr != nil {
		run.Disqualified = true
		run.DisqualifiedReason = policyErr.Error()
		run.MarkoutY = 0
	}
	run.FinishedAt = time.Now().UTC()
	run.MinFeeBps, run.MeanFeeBps, run.MaxFeeBps = stats.summary()

	fast, slow, err := r.engine.Variances()
	if err != nil {
		return types.ReplayRun{}, nil, err
	}
	run.FinalFastVariance = fast
	run.FinalSlowVariance = slow

	vol, err := analyzer.RealizedVolatility(fast)
	if err != nil {
		return types.ReplayRun{}, nil, err
	}
	run.RealizedVolatility, err = utils.WadToFloat64(vol)
	if err != nil {
		return types.ReplayRun{}, nil, err
	}

	r.logger.Info().
		Str("run_id", run.ID.String()).
		Str("scenario", run.Scenario).
		Int("events", run.Events).
		Int("transitions", run.Transitions).
		Bool("disqualified", run.Disqualified).
		Float64("mean_fee_bps", run.MeanFeeBps).
		Float64("markout_y", run.MarkoutY).
		Msg("Replay run finished")
	return run, decisions, nil
}

// tradeMarkout values one trade against the fair price, in Y terms from the
// pool's perspective: what the pool received minus what it gave up.
func tradeMarkout(trade types.TradeEvent, fairPrice sdkmath.Int) (float64, error) {
	amountX, err := utils.WadToFloat64(trade.AmountX)
	if err != nil {
		return 0, err
	}
	amountY, err := utils.WadToFloat64(trade.AmountY)
	if err != nil {
		return 0, err
	}
	fair, err := utils.WadToFloat64(fairPrice)
	if err != nil {
		return 0, err
	}
	if trade.PoolBuysRisky {
		return amountX*fair - amountY, nil
	}
	return amountY - amountX*fair, nil
}

// feeStats accumulates bid and ask observations in basis points.
type feeStats struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func newFeeStats() *feeStats {
	return &feeStats{}
}

func (s *feeStats) observe(fees types.FeePair) error {
	for _, fee := range []sdkmath.Int{fees.Bid, fees.Ask} {
		bps, err := utils.WadToBpsFloat64(fee)
		if err != nil {
			return fmt.Errorf("replay: fee conversion: %w", err)
		}
		if s.count == 0 || bps < s.min {
			s.min = bps
		}
		if s.count == 0 || bps > s.max {
			s.max = bps
		}
		s.sum += bps
		s.count++
	}
	return nil
}

func (s *feeStats) summary() (min, mean, max float64) {
	if s.count == 0 {
		return 0, 0, 0
	}
	return s.min, s.sum / float64(s.count), s.max
}
