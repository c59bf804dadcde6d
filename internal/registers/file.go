/*

This file contains the bounded register file that backs one policy instance.
It models the fixed on-chain storage the source strategies wrote to: exactly
32 numeric slots, zero-initialized, owned exclusively by one instance for the
lifetime of one simulated market run.

*/

package registers

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Count is the hard register capacity. A policy that needs more state must
// pack fields or recompute; there is no growth path.
const Count = 32

// ErrIndexOutOfRange indicates a register access beyond [0, Count). It is a
// policy logic defect, fatal to the enclosing call.
var ErrIndexOutOfRange = errors.New("registers: index out of range")

// File is a fixed-capacity register file. The zero value is not usable;
// construct with New so every slot reads back as a proper zero Int.
type File struct {
	slots [Count]sdkmath.Int
}

// New allocates a register file with all slots set to zero. A never-written
// slot reads back as zero, which callers must treat as the "uninitialized"
// sentinel (see the initialized-flag convention in the policy package).
func New() *File {
	f := &File{}
	for i := range f.slots {
		f.slots[i] = sdkmath.ZeroInt()
	}
	return f
}

// Read returns the value held in the given register.
func (f *File) Read(index int) (sdkmath.Int, error) {
	if index < 0 || index >= Count {
		return sdkmath.Int{}, fmt.Errorf("%w: read %d", ErrIndexOutOfRange, index)
	}
	return f.slots[index], nil
}

// Write stores value into the given register.
func (f *File) Write(index int, value sdkmath.Int) error {
	if index < 0 || index >= Count {
		return fmt.Errorf("%w: write %d", ErrIndexOutOfRange, index)
	}
	if value.IsNil() {
		return fmt.Errorf("registers: write %d: value is nil", index)
	}
	f.slots[index] = value
	return nil
}

// Snapshot copies the current register contents, for diagnostics and for the
// determinism checks in tests. The engine itself never needs it.
func (f *File) Snapshot() [Count]sdkmath.Int {
	return f.slots
}
