package process

import (
	"errors"
	"fmt"
)

// Domain errors for identification, tuning and simulation.
var (
	// ErrInvalidSeries indicates a malformed experiment (length mismatch, non-increasing time).
	ErrInvalidSeries = errors.New("process: invalid time series")

	// ErrInsufficientData indicates a series too short to smooth.
	ErrInsufficientData = errors.New("process: insufficient data")

	// ErrLevelNotReached indicates the response never crossed an identification threshold.
	ErrLevelNotReached = errors.New("process: identification level not reached")

	// ErrInvertedCrossing indicates t1 >= t2, an unreliable identification.
	ErrInvertedCrossing = errors.New("process: inverted threshold crossing")

	// ErrZeroExcitation indicates an input signal with zero range.
	ErrZeroExcitation = errors.New("process: input has zero excitation")

	// ErrInvalidModel indicates a model violating the tuning preconditions.
	ErrInvalidModel = errors.New("process: invalid model")

	// ErrUnstableModel indicates the closed loop could not be realized numerically.
	ErrUnstableModel = errors.New("process: closed loop not computable")
)

type SeriesError struct {
	Index  int
	Reason string
}

func (e *SeriesError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidSeries, e.Reason)
	}
	return fmt.Sprintf("%s: %s at sample %d", ErrInvalidSeries, e.Reason, e.Index)
}

func (e *SeriesError) Unwrap() error { return ErrInvalidSeries }

type InsufficientDataError struct {
	Len int
	Min int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: got %d samples, need at least %d", ErrInsufficientData, e.Len, e.Min)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// LevelNotReachedError names the threshold (y1 or y2) that was never crossed
// after the search offset.
type LevelNotReachedError struct {
	Name   string
	Level  float64
	Offset int
}

func (e *LevelNotReachedError) Error() string {
	return fmt.Sprintf("%s: %s=%.6g never reached after sample %d; adjust smoothing or offset",
		ErrLevelNotReached, e.Name, e.Level, e.Offset)
}

func (e *LevelNotReachedError) Unwrap() error { return ErrLevelNotReached }

type InvertedCrossingError struct {
	T1 float64
	T2 float64
}

func (e *InvertedCrossingError) Error() string {
	return fmt.Sprintf("%s: t1 (%.6g) is not less than t2 (%.6g); adjust smoothing parameters",
		ErrInvertedCrossing, e.T1, e.T2)
}

func (e *InvertedCrossingError) Unwrap() error { return ErrInvertedCrossing }

type ZeroExcitationError struct {
	Value float64
}

func (e *ZeroExcitationError) Error() string {
	return fmt.Sprintf("%s: input is constant at %.6g", ErrZeroExcitation, e.Value)
}

func (e *ZeroExcitationError) Unwrap() error { return ErrZeroExcitation }

// InvalidModelError reports the first parameter that violates a tuning
// precondition.
type InvalidModelError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("%s: %s=%.6g %s", ErrInvalidModel, e.Param, e.Value, e.Reason)
}

func (e *InvalidModelError) Unwrap() error { return ErrInvalidModel }

type UnstableModelError struct {
	Reason string
}

func (e *UnstableModelError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnstableModel, e.Reason)
}

func (e *UnstableModelError) Unwrap() error { return ErrUnstableModel }
