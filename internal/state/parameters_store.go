// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/openamm/dynfee/internal/types"
)

// SavePolicyParameters saves a new version of policy parameters. WAD values
// are stored as their raw integer representation so nothing is lost to
// decimal rounding on the way through the database.
func SavePolicyParameters(params types.PolicyParameters, configName string, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE policy_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate, configName)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
        INSERT INTO policy_parameters (
            version, config_name, is_active, activated_at, created_at,
            base_fee_bps, min_fee_bps, max_fee_bps,
            fast_decay, slow_decay, variance_seed,
            regime_enabled, regime_adjust_bps,
            directional_enabled, directional_adjust_bps
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8,
            $9, $10, $11,
            $12, $13,
            $14, $15
        ) RETURNING params_id;`

	var paramsID int64
	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime,
		params.BaseFeeBps, params.MinFeeBps, params.MaxFeeBps,
		params.FastDecay.String(), params.SlowDecay.String(), params.VarianceSeed.String(),
		params.RegimeEnabled, params.RegimeAdjustBps,
		params.DirectionalEnabled, params.DirectionalAdjustBps,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert policy parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int64("paramsID", paramsID).
		Str("configName", configName).
		Int("version", version).
		Bool("active", makeActive).
		Msg("Policy parameters saved")
	return paramsID, nil
}

// LoadActivePolicyParameters loads the currently active parameter set for
// the given config name. Returns sql.ErrNoRows wrapped when none is active.
func LoadActivePolicyParameters(configName string) (*types.PolicyParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	stmt := `
        SELECT base_fee_bps, min_fee_bps, max_fee_bps,
               fast_decay, slow_decay, variance_seed,
               regime_enabled, regime_adjust_bps,
               directional_enabled, directional_adjust_bps
        FROM policy_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var params types.PolicyParameters
	var fastDecay, slowDecay, varianceSeed string
	err := DB.QueryRow(stmt, configName).Scan(
		&params.BaseFeeBps, &params.MinFeeBps, &params.MaxFeeBps,
		&fastDecay, &slowDecay, &varianceSeed,
		&params.RegimeEnabled, &params.RegimeAdjustBps,
		&params.DirectionalEnabled, &params.DirectionalAdjustBps,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no active policy parameters for %s: %w", configName, err)
		}
		return nil, fmt.Errorf("failed to load active policy parameters: %w", err)
	}

	if params.FastDecay, err = parseStoredWad("fast_decay", fastDecay); err != nil {
		return nil, err
	}
	if params.SlowDecay, err = parseStoredWad("slow_decay", slowDecay); err != nil {
		return nil, err
	}
	if params.VarianceSeed, err = parseStoredWad("variance_seed", varianceSeed); err != nil {
		return nil, err
	}
	return &params, nil
}

func parseStoredWad(column, raw string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("stored %s %q is not a valid integer", column, raw)
	}
	return v, nil
}
