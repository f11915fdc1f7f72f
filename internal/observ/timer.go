// Package observ collects wall-clock timings for the compilation stages
// of a kernel build.
package observ

import (
	"fmt"
	"strings"
	"time"
)

type stage struct {
	name    string
	start   time.Time
	dur     time.Duration
	outcome string
}

// Timer accumulates one timing entry per pipeline stage.
type Timer struct {
	stages []stage
}

func NewTimer() *Timer { return &Timer{stages: make([]stage, 0, 8)} }

// Start opens a stage and returns the closer. The outcome passed to the
// closer labels how the stage finished, e.g. "compiled" or "cached".
func (t *Timer) Start(name string) func(outcome string) {
	t.stages = append(t.stages, stage{name: name, start: time.Now()})
	idx := len(t.stages) - 1
	return func(outcome string) {
		s := &t.stages[idx]
		s.dur = time.Since(s.start)
		s.outcome = outcome
	}
}

// StageReport is one stage of a finished compile, ready for serialization.
type StageReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Outcome    string  `json:"outcome,omitempty"`
}

// Report aggregates the stage timings of one compile.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Stages  []StageReport `json:"stages"`
}

func (t *Timer) Report() Report {
	if len(t.stages) == 0 {
		return Report{}
	}
	r := Report{Stages: make([]StageReport, len(t.stages))}
	var total time.Duration
	for i, s := range t.stages {
		total += s.dur
		r.Stages[i] = StageReport{
			Name:       s.name,
			DurationMS: millis(s.dur),
			Outcome:    s.outcome,
		}
	}
	r.TotalMS = millis(total)
	return r
}

func (r Report) String() string {
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&sb, "  %-8s %8.2f ms", s.Name, s.DurationMS)
		if s.Outcome != "" {
			sb.WriteString("  " + s.Outcome)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-8s %8.2f ms\n", "total", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
