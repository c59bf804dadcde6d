/*

This file contains the step-boundary detector. The first trade observed at a
new step value is the price-correcting (informed) event; every later trade in
the same step is uninformed retail flow. The classification is derived per
call from two registers, never stored as an explicit state.

*/

package policy

import (
	sdkmath "cosmossdk.io/math"

	"github.com/openamm/dynfee/internal/registers"
)

// stepClock tracks the last-seen step index in the register file.
type stepClock struct {
	regs          *registers.File
	slotLastStep  int
	slotTradeSeen int
}

// classify reports whether the event opens a new step. The very first trade
// of an instance is always a transition, decided by the trade-seen flag
// rather than the numeric compare, so a domain whose step indices start at 0
// is handled correctly. The last-seen step register is updated
// unconditionally on every call.
func (c *stepClock) classify(step uint64) (bool, error) {
	seen, err := c.regs.Read(c.slotTradeSeen)
	if err != nil {
		return false, err
	}

	transition := true
	if !seen.IsZero() {
		last, err := c.regs.Read(c.slotLastStep)
		if err != nil {
			return false, err
		}
		transition = sdkmath.NewIntFromUint64(step).GT(last)
	}

	if err := c.regs.Write(c.slotLastStep, sdkmath.NewIntFromUint64(step)); err != nil {
		return false, err
	}
	if err := c.regs.Write(c.slotTradeSeen, sdkmath.OneInt()); err != nil {
		return false, err
	}
	return transition, nil
}
