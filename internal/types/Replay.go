package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

// FeeDecision is one captured policy output during a replay run.
type FeeDecision struct {
	// Ordinal is the zero-based position of the event in the tape; the
	// opening (initialization) decision carries -1.
	Ordinal int `json:"ordinal"`
	// Step is the simulated time step the event carried.
	Step uint64 `json:"step"`
	// Transition is true when the event opened a new step.
	Transition bool `json:"transition"`

	Fees FeePair `json:"fees"`

	// FairPrice is the exogenous reference price from the tape, WAD scaled;
	// nil when the tape does not carry one.
	FairPrice *sdkmath.Int `json:"fair_price,omitempty"`
}

// ReplayRun is the aggregate summary of feeding one recorded trade tape
// through one policy instance. This is what gets logged, persisted and
// served by the status API.
type ReplayRun struct {
	ID         uuid.UUID `json:"id"`
	Scenario   string    `json:"scenario"`
	PolicyName string    `json:"policy_name"`

	Events      int `json:"events"`
	Transitions int `json:"transitions"`

	// Disqualified is set when a policy call faulted. The partial results up
	// to the fault are kept for diagnosis; the run scores zero.
	Disqualified       bool   `json:"disqualified"`
	DisqualifiedReason string `json:"disqualified_reason,omitempty"`

	// Fee statistics over both sides of every decision, in basis points.
	MinFeeBps  float64 `json:"min_fee_bps"`
	MeanFeeBps float64 `json:"mean_fee_bps"`
	MaxFeeBps  float64 `json:"max_fee_bps"`

	// Final estimator state and the realized (fast-horizon) volatility
	// derived from it.
	FinalFastVariance  sdkmath.Int `json:"final_fast_variance"`
	FinalSlowVariance  sdkmath.Int `json:"final_slow_variance"`
	RealizedVolatility float64     `json:"realized_volatility"`

	// MarkoutY is the cumulative markout in Y terms against the tape's fair
	// prices, zero when the tape carries none. Positive means the pool
	// traded at prices better than fair.
	MarkoutY float64 `json:"markout_y"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
