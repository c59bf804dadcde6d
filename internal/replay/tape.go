/*

This file contains the trade-tape loader. A tape is a CSV recording of the
trade flow one simulated market produced, one executed trade per row in event
order:

	step,pool_buys_risky,amount_x,amount_y,reserve_x,reserve_y,fair_price

Amounts, reserves and the optional fair price are plain decimals and are
converted to WAD on load. The fair price column may be empty; it only feeds
the markout statistic, never the policy.

*/

package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/openamm/dynfee/internal/types"
)

var ErrInvalidTape = errors.New("replay: invalid tape")

var tapeColumns = []string{
	"step", "pool_buys_risky", "amount_x", "amount_y", "reserve_x", "reserve_y", "fair_price",
}

// TapeEvent is one row of the tape: the trade the policy sees plus the
// harness-only fair price.
type TapeEvent struct {
	Trade     types.TradeEvent
	FairPrice *sdkmath.Int
}

// LoadTape reads and parses a full tape file.
func LoadTape(path string) ([]TapeEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tape %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(tapeColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header: %w", ErrInvalidTape, err)
	}
	for i, want := range tapeColumns {
		if strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("%w: header column %d is %q, want %q",
				ErrInvalidTape, i, header[i], want)
		}
	}

	var events []TapeEvent
	var lastStep uint64
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidTape, line+1, err)
		}
		line++

		event, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidTape, line, err)
		}
		if len(events) > 0 && event.Trade.Step < lastStep {
			return nil, fmt.Errorf("%w: line %d: step %d decreases below %d",
				ErrInvalidTape, line, event.Trade.Step, lastStep)
		}
		lastStep = event.Trade.Step
		events = append(events, event)
	}
	return events, nil
}

func parseRow(row []string) (TapeEvent, error) {
	step, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return TapeEvent{}, fmt.Errorf("step: %w", err)
	}
	buysRisky, err := strconv.ParseBool(strings.TrimSpace(row[1]))
	if err != nil {
		return TapeEvent{}, fmt.Errorf("pool_buys_risky: %w", err)
	}

	amountX, err := parseWad(row[2])
	if err != nil {
		return TapeEvent{}, fmt.Errorf("amount_x: %w", err)
	}
	amountY, err := parseWad(row[3])
	if err != nil {
		return TapeEvent{}, fmt.Errorf("amount_y: %w", err)
	}
	reserveX, err := parseWad(row[4])
	if err != nil {
		return TapeEvent{}, fmt.Errorf("reserve_x: %w", err)
	}
	reserveY, err := parseWad(row[5])
	if err != nil {
		return TapeEvent{}, fmt.Errorf("reserve_y: %w", err)
	}
	if !reserveX.IsPositive() || !reserveY.IsPositive() {
		return TapeEvent{}, errors.New("post-trade reserves must be strictly positive")
	}

	event := TapeEvent{
		Trade: types.TradeEvent{
			PoolBuysRisky: buysRisky,
			AmountX:       amountX,
			AmountY:       amountY,
			Step:          step,
			ReserveX:      reserveX,
			ReserveY:      reserveY,
		},
	}

	if fair := strings.TrimSpace(row[6]); fair != "" {
		price, err := parseWad(fair)
		if err != nil {
			return TapeEvent{}, fmt.Errorf("fair_price: %w", err)
		}
		event.FairPrice = &price
	}
	return event, nil
}

// parseWad converts a decimal string to a WAD-scaled Int through LegacyDec,
// which already carries exactly 18 fractional digits.
func parseWad(s string) (sdkmath.Int, error) {
	dec, err := sdkmath.LegacyNewDecFromStr(strings.TrimSpace(s))
	if err != nil {
		return sdkmath.Int{}, err
	}
	if dec.IsNegative() {
		return sdkmath.Int{}, errors.New("value must not be negative")
	}
	return sdkmath.NewIntFromBigInt(dec.BigInt()), nil
}
