// ./internal/state/run_store.go
package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/openamm/dynfee/internal/types"
)

// SaveReplayRun persists one finished run summary.
func SaveReplayRun(run types.ReplayRun) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	stmt := `
        INSERT INTO replay_runs (
            run_uuid, scenario, policy_name,
            events, transitions,
            disqualified, disqualified_reason,
            min_fee_bps, mean_fee_bps, max_fee_bps,
            final_fast_variance, final_slow_variance,
            realized_volatility, markout_y,
            started_at, finished_at
        ) VALUES (
            $1, $2, $3,
            $4, $5,
            $6, $7,
            $8, $9, $10,
            $11, $12,
            $13, $14,
            $15, $16
        ) RETURNING run_id;`

	var runID int64
	err := DB.QueryRow(
		stmt,
		run.ID.String(), run.Scenario, run.PolicyName,
		run.Events, run.Transitions,
		run.Disqualified, run.DisqualifiedReason,
		run.MinFeeBps, run.MeanFeeBps, run.MaxFeeBps,
		run.FinalFastVariance.String(), run.FinalSlowVariance.String(),
		run.RealizedVolatility, run.MarkoutY,
		run.StartedAt, run.FinishedAt,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert replay run: %w", err)
	}

	log.Info().
		Int64("runID", runID).
		Str("runUUID", run.ID.String()).
		Str("scenario", run.Scenario).
		Msg("Replay run saved")
	return runID, nil
}

// LatestReplayRun returns the most recently recorded run summary, or nil
// when the table is empty.
func LatestReplayRun() (*types.ReplayRun, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	stmt := `
        SELECT run_uuid, scenario, policy_name,
               events, transitions,
               disqualified, disqualified_reason,
               min_fee_bps, mean_fee_bps, max_fee_bps,
               final_fast_variance, final_slow_variance,
               realized_volatility, markout_y,
               started_at, finished_at
        FROM replay_runs
        ORDER BY created_at DESC
        LIMIT 1;`

	var run types.ReplayRun
	var uuidStr, fastVar, slowVar string
	err := DB.QueryRow(stmt).Scan(
		&uuidStr, &run.Scenario, &run.PolicyName,
		&run.Events, &run.Transitions,
		&run.Disqualified, &run.DisqualifiedReason,
		&run.MinFeeBps, &run.MeanFeeBps, &run.MaxFeeBps,
		&fastVar, &slowVar,
		&run.RealizedVolatility, &run.MarkoutY,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest replay run: %w", err)
	}

	if err := run.ID.UnmarshalText([]byte(uuidStr)); err != nil {
		return nil, fmt.Errorf("stored run uuid %q is invalid: %w", uuidStr, err)
	}
	if run.FinalFastVariance, err = parseStoredWad("final_fast_variance", fastVar); err != nil {
		return nil, err
	}
	if run.FinalSlowVariance, err = parseStoredWad("final_slow_variance", slowVar); err != nil {
		return nil, err
	}
	return &run, nil
}
