package service

import "time"

// Decision is the outcome of a termination check.
type Decision int

const (
	Continue Decision = iota
	Done
)

func (d Decision) String() string {
	if d == Done {
		return "done"
	}
	return "continue"
}

// TerminationPolicy decides after each page whether polling should stop.
type TerminationPolicy struct {
	maxTime time.Time
}

func NewTerminationPolicy(maxTime time.Time) TerminationPolicy {
	return TerminationPolicy{maxTime: maxTime}
}

// Evaluate compares the page's high-water mark with the configured end.
// Without an end time the answer is always Continue. Whether the page held
// events does not matter.
func (p TerminationPolicy) Evaluate(reachedMaxTime time.Time) Decision {
	if p.maxTime.IsZero() {
		return Continue
	}
	if !reachedMaxTime.Before(p.maxTime) {
		return Done
	}
	return Continue
}
