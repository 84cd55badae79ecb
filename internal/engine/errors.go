package engine

import (
	"errors"
	"fmt"
)

var (
	ErrDataIntegrity    = errors.New("data integrity violation")
	ErrAlignment        = errors.New("signal not aligned with series")
	ErrNumericOverflow  = errors.New("non-finite value in trajectory")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrSignalPanic      = errors.New("signal source panicked")
)

// Stage names the step of a strategy run that failed.
type Stage string

const (
	StageSignal   Stage = "signal"
	StageSimulate Stage = "simulate"
	StageMetrics  Stage = "metrics"
)

// StrategyError reports the failure of a single strategy inside a batch.
type StrategyError struct {
	ID    string
	Stage Stage
	Err   error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %s: %v", e.ID, e.Stage, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}
