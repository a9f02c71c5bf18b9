package domain

import "errors"

// Precondition violations signal caller bugs, not runtime conditions to
// recover from. They abort the entire simulation; no partial ledger is
// returned. Oracle transport failures are surfaced wrapped but otherwise
// unmodified, and mismatches are values, never errors.
var (
	ErrLedgerKeyMissing  = errors.New("ledger key missing")
	ErrZeroDenominator   = errors.New("zero fill denominator")
	ErrInvalidTimeWindow = errors.New("invalid time window")
	ErrInvalidFill       = errors.New("invalid fill parameters")
	ErrNotFound          = errors.New("not found")
)
