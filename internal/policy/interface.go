package policy

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/dynfee/internal/types"
)

// Strategy is the contract the simulation harness drives. OnInitialize is
// called exactly once per instance and happens-before every OnTrade call;
// OnTrade calls arrive strictly in event order, never concurrently. Any
// returned error is fatal to the instance: the harness scores the run as
// disqualified and never retries.
type Strategy interface {
	// OnInitialize seeds all registers the policy depends on from the
	// pool's starting reserves and returns the opening fee pair.
	OnInitialize(reserveX, reserveY sdkmath.Int) (types.FeePair, error)

	// OnTrade consumes one executed trade and returns the fee pair that
	// applies from the next trade on.
	OnTrade(event types.TradeEvent) (types.FeePair, error)

	// PolicyName is a static diagnostic identifier. It must not touch the
	// register file.
	PolicyName() string
}
