package price

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidPeriodData = errors.New("invalid period data")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrEmptySeries       = errors.New("empty series")
	ErrStaleResult       = errors.New("stale result discarded")
)

// InvalidPeriodDataError is returned when a sample inside the local day carries the invalid sentinel.
// Callers retry the whole fetch later.
type InvalidPeriodDataError struct {
	Area  string
	Start time.Time
	Value float64
}

func (e *InvalidPeriodDataError) Error() string {
	return fmt.Sprintf("invalid value %v at %s for area '%s'", e.Value, e.Start.Format(time.RFC3339), e.Area)
}

func (e *InvalidPeriodDataError) Is(target error) bool {
	return target == ErrInvalidPeriodData
}
