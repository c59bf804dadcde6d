package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openamm/dynfee/internal/registers"
)

func newTestClock() *stepClock {
	return &stepClock{
		regs:          registers.New(),
		slotLastStep:  slotLastStep,
		slotTradeSeen: slotTradeSeen,
	}
}

func TestFirstTradeAtStepZeroIsATransition(t *testing.T) {
	clock := newTestClock()

	// Step 0 equals the zero value of the last-step register; the trade-seen
	// flag is what makes the very first classification a transition.
	transition, err := clock.classify(0)
	require.NoError(t, err)
	require.True(t, transition)

	transition, err = clock.classify(0)
	require.NoError(t, err)
	require.False(t, transition)
}

func TestAtMostOneTransitionPerStep(t *testing.T) {
	clock := newTestClock()

	steps := []uint64{0, 0, 1, 1, 1, 2, 5, 5, 9}
	transitions := 0
	for _, step := range steps {
		transition, err := clock.classify(step)
		require.NoError(t, err)
		if transition {
			transitions++
		}
	}
	// Distinct forward steps: 0, 1, 2, 5, 9.
	require.Equal(t, 5, transitions)
}

func TestBackwardStepIsContinuation(t *testing.T) {
	clock := newTestClock()

	_, err := clock.classify(4)
	require.NoError(t, err)

	transition, err := clock.classify(2)
	require.NoError(t, err)
	require.False(t, transition)

	// The last-seen register moved to 2, so step 3 counts as forward again.
	transition, err = clock.classify(3)
	require.NoError(t, err)
	require.True(t, transition)
}
