// Package turnaround computes per-sample turnaround times between
// consecutive pipeline stages.
//
// Transition i covers stage i to stage i+1. Element j of a transition is
// the timestamp of sample j at stage i+1 minus its timestamp at stage i.
// Samples are matched by their order of appearance in the log, so every
// stage must carry the same number of samples as stage 0.
package turnaround

import (
	"errors"
	"fmt"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/elapsedlog"
)

var (
	// ErrNoStages is returned for a log without any records.
	ErrNoStages = errors.New("log has no stages")

	// ErrNoTransitions is returned when only stage 0 was recorded.
	ErrNoTransitions = errors.New("log has a single stage, no transitions to compute")
)

// GapError reports a stage index missing between 0 and the highest stage.
type GapError struct {
	Missing  int
	MaxStage int
}

func (e *GapError) Error() string {
	return fmt.Sprintf("stage %d missing (stages must be contiguous from 0 to %d)", e.Missing, e.MaxStage)
}

// SampleCountError reports a stage whose sample count differs from stage 0.
type SampleCountError struct {
	Stage int
	Got   int
	Want  int
}

func (e *SampleCountError) Error() string {
	return fmt.Sprintf("stage %d has %d samples, stage 0 has %d", e.Stage, e.Got, e.Want)
}

// Series holds one turnaround sequence per transition.
type Series [][]int64

// Transitions returns the number of transitions.
func (s Series) Transitions() int {
	return len(s)
}

// Validate checks that log can be differenced: at least two stages,
// contiguous indices from 0, and equal sample counts.
func Validate(log *elapsedlog.Log) error {
	if log == nil || len(log.Stages) == 0 {
		return ErrNoStages
	}

	for stage := 0; stage <= log.MaxStage; stage++ {
		if _, ok := log.Stages[stage]; !ok {
			return &GapError{Missing: stage, MaxStage: log.MaxStage}
		}
	}
	if log.MaxStage == 0 {
		return ErrNoTransitions
	}

	want := len(log.Stages[0])
	for stage := 1; stage <= log.MaxStage; stage++ {
		if got := len(log.Stages[stage]); got != want {
			return &SampleCountError{Stage: stage, Got: got, Want: want}
		}
	}

	return nil
}

// Compute validates log and returns its turnaround series.
// The log is not modified.
func Compute(log *elapsedlog.Log) (Series, error) {
	if err := Validate(log); err != nil {
		return nil, fmt.Errorf("validate stages: %w", err)
	}

	samples := len(log.Stages[0])
	series := make(Series, log.MaxStage)
	for i := 0; i < log.MaxStage; i++ {
		from := log.Stages[i]
		to := log.Stages[i+1]

		diffs := make([]int64, samples)
		for j := 0; j < samples; j++ {
			diffs[j] = to[j] - from[j]
		}
		series[i] = diffs
	}

	return series, nil
}
