// Package synth drives a recorder session with a synthetic pipeline so the
// analyzer can be exercised without a real application.
package synth

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/recorder"
)

// Workload describes the synthetic pipeline.
type Workload struct {
	Samples int           // number of inputs pushed through the pipeline
	Stages  int           // stage boundaries per sample (>= 2)
	Delay   time.Duration // mean delay of one stage transition
	Jitter  float64       // jitter as a fraction of Delay (0.4 = ±20%)
	Gap     time.Duration // idle time between samples
	Seed    int64
}

// DefaultWorkload returns a small three-stage pipeline.
func DefaultWorkload() Workload {
	return Workload{
		Samples: 1000,
		Stages:  3,
		Delay:   500 * time.Microsecond,
		Jitter:  0.4,
		Gap:     10 * time.Millisecond,
		Seed:    1,
	}
}

// Validate checks that the workload can be generated.
func (w Workload) Validate() error {
	var errs []error
	if w.Samples < 1 {
		errs = append(errs, fmt.Errorf("samples must be at least 1 (got %d)", w.Samples))
	}
	if w.Stages < 2 {
		errs = append(errs, fmt.Errorf("stages must be at least 2 (got %d)", w.Stages))
	}
	if w.Delay < 0 || w.Gap < 0 {
		errs = append(errs, errors.New("delay and gap must not be negative"))
	}
	if w.Jitter < 0 || w.Jitter > 2 {
		errs = append(errs, fmt.Errorf("jitter must be within [0, 2] (got %g)", w.Jitter))
	}
	return errors.Join(errs...)
}

// JitterSource provides deterministic, per-transition delays. The same
// seed always yields the same log, and each transition has its own
// sequence so adding stages does not reshuffle the earlier ones.
type JitterSource struct {
	seed int64
	rngs []*rand.Rand
}

// NewJitterSource creates one generator per transition.
func NewJitterSource(seed int64, transitions int) *JitterSource {
	j := &JitterSource{seed: seed, rngs: make([]*rand.Rand, transitions)}
	for i := range j.rngs {
		j.rngs[i] = rand.New(rand.NewSource(int64(i) ^ seed))
	}
	return j
}

// Delay returns the next delay for a transition: base ±(pct/2).
// Later transitions are slower (base scales with the transition number)
// so the per-part histograms are distinguishable.
func (j *JitterSource) Delay(transition int, base time.Duration, pct float64) time.Duration {
	delay := float64(base) * float64(transition+1)
	if pct > 0 {
		jitterRange := delay * pct
		delay += jitterRange*j.rngs[transition].Float64() - jitterRange/2
	}
	// Keep the microsecond log strictly increasing.
	if delay < float64(time.Microsecond) {
		delay = float64(time.Microsecond)
	}
	return time.Duration(delay)
}

// Tracer brackets a code region with hardware counter reads.
// *pmu.Tracer implements it.
type Tracer interface {
	TraceStart(traceID int) error
	TraceEnd(traceID int) error
}

// Generate records w.Samples samples into s, advancing clock by the
// synthetic stage delays. It returns the number of recorded entries.
//
// When tracer is non-nil each transition is traced with the transition
// index as trace id.
func Generate(s *recorder.Session, clock *recorder.ManualClock, w Workload, tracer Tracer) (int, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}

	jitter := NewJitterSource(w.Seed, w.Stages-1)
	for range w.Samples {
		s.Timestamp(0, true, 0)
		for stage := 1; stage < w.Stages; stage++ {
			if tracer != nil {
				if err := tracer.TraceStart(stage - 1); err != nil {
					return s.Len(), err
				}
			}
			clock.Advance(jitter.Delay(stage-1, w.Delay, w.Jitter))
			if tracer != nil {
				if err := tracer.TraceEnd(stage - 1); err != nil {
					return s.Len(), err
				}
			}
			s.Timestamp(stage, false, 0)
		}
		clock.Advance(w.Gap)
	}
	return s.Len(), nil
}
