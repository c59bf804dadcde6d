/*

This file contains the YAML replay-scenario definition: which trade tape to
feed the policy and which parameter knobs to override relative to the shipped
defaults. Scenarios exist so an experiment is one small file, not one more
divergent strategy implementation.

*/

package config

import (
	"errors"
	"fmt"
	"os"

	sdkmath "cosmossdk.io/math"
	"gopkg.in/yaml.v3"

	"github.com/openamm/dynfee/internal/types"
	"github.com/openamm/dynfee/internal/utils"
)

var ErrInvalidScenario = errors.New("config: invalid scenario")

// Scenario describes one replay run.
type Scenario struct {
	// Name labels the run in logs, persistence and the status API.
	Name string `yaml:"name"`
	// TapePath is the CSV trade tape to replay, relative to the scenario
	// file's directory unless absolute.
	TapePath string `yaml:"tape"`
	// InitialReserveX and InitialReserveY seed the policy instance, plain
	// decimals converted to WAD. Both must be strictly positive.
	InitialReserveX float64 `yaml:"initial_reserve_x"`
	InitialReserveY float64 `yaml:"initial_reserve_y"`
	// Parameters optionally overrides individual policy knobs.
	Parameters *ParameterOverrides `yaml:"parameters,omitempty"`
}

// ParameterOverrides is a sparse overlay on DefaultPolicyParameters. Decay
// and seed values are given as plain decimals (e.g. 0.90) and converted to
// WAD at load time; the engine itself only ever sees fixed point.
type ParameterOverrides struct {
	BaseFeeBps *uint64 `yaml:"base_fee_bps,omitempty"`
	MinFeeBps  *uint64 `yaml:"min_fee_bps,omitempty"`
	MaxFeeBps  *uint64 `yaml:"max_fee_bps,omitempty"`

	FastDecay    *float64 `yaml:"fast_decay,omitempty"`
	SlowDecay    *float64 `yaml:"slow_decay,omitempty"`
	VarianceSeed *float64 `yaml:"variance_seed,omitempty"`

	RegimeEnabled   *bool   `yaml:"regime_enabled,omitempty"`
	RegimeAdjustBps *uint64 `yaml:"regime_adjust_bps,omitempty"`

	DirectionalEnabled   *bool   `yaml:"directional_enabled,omitempty"`
	DirectionalAdjustBps *uint64 `yaml:"directional_adjust_bps,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}

	if s.Name == "" {
		return Scenario{}, fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if s.TapePath == "" {
		return Scenario{}, fmt.Errorf("%w: tape is required", ErrInvalidScenario)
	}
	if s.InitialReserveX <= 0 || s.InitialReserveY <= 0 {
		return Scenario{}, fmt.Errorf("%w: initial reserves must be strictly positive", ErrInvalidScenario)
	}
	return s, nil
}

// InitialReserves converts the scenario's reserve pair to WAD.
func (s Scenario) InitialReserves() (reserveX, reserveY sdkmath.Int, err error) {
	reserveX, err = utils.Float64ToWad(s.InitialReserveX)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: initial_reserve_x: %w", ErrInvalidScenario, err)
	}
	reserveY, err = utils.Float64ToWad(s.InitialReserveY)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, fmt.Errorf("%w: initial_reserve_y: %w", ErrInvalidScenario, err)
	}
	return reserveX, reserveY, nil
}

// ResolveParameters applies the scenario's overrides on top of base.
func (s Scenario) ResolveParameters(base types.PolicyParameters) (types.PolicyParameters, error) {
	params := base
	o := s.Parameters
	if o == nil {
		return params, nil
	}

	if o.BaseFeeBps != nil {
		params.BaseFeeBps = *o.BaseFeeBps
	}
	if o.MinFeeBps != nil {
		params.MinFeeBps = *o.MinFeeBps
	}
	if o.MaxFeeBps != nil {
		params.MaxFeeBps = *o.MaxFeeBps
	}

	if o.FastDecay != nil {
		v, err := utils.Float64ToWad(*o.FastDecay)
		if err != nil {
			return types.PolicyParameters{}, fmt.Errorf("%w: fast_decay: %w", ErrInvalidScenario, err)
		}
		params.FastDecay = v
	}
	if o.SlowDecay != nil {
		v, err := utils.Float64ToWad(*o.SlowDecay)
		if err != nil {
			return types.PolicyParameters{}, fmt.Errorf("%w: slow_decay: %w", ErrInvalidScenario, err)
		}
		params.SlowDecay = v
	}
	if o.VarianceSeed != nil {
		v, err := utils.Float64ToWad(*o.VarianceSeed)
		if err != nil {
			return types.PolicyParameters{}, fmt.Errorf("%w: variance_seed: %w", ErrInvalidScenario, err)
		}
		params.VarianceSeed = v
	}

	if o.RegimeEnabled != nil {
		params.RegimeEnabled = *o.RegimeEnabled
	}
	if o.RegimeAdjustBps != nil {
		params.RegimeAdjustBps = *o.RegimeAdjustBps
	}
	if o.DirectionalEnabled != nil {
		params.DirectionalEnabled = *o.DirectionalEnabled
	}
	if o.DirectionalAdjustBps != nil {
		params.DirectionalAdjustBps = *o.DirectionalAdjustBps
	}

	return params, nil
}
