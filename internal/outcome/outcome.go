// Package outcome carries the per-stage success/failure result that every pipeline
// stage reports and the monitoring table persists.
package outcome

import "strings"

// Status is the coarse result of a stage.
type Status string

const (
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
)

// Outcome is a stage status plus the reason when it failed.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Success reports a stage that completed normally.
func Success() Outcome {
	return Outcome{Status: StatusSucceeded}
}

// Failure reports a stage that degraded; reason may be empty.
func Failure(reason string) Outcome {
	return Outcome{Status: StatusFailed, Reason: strings.TrimSpace(reason)}
}

// OK reports whether the stage succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusSucceeded
}

// String renders the persisted form: "Succeeded", "Failed" or "Failed. <reason>".
func (o Outcome) String() string {
	if o.Status == "" {
		return string(StatusFailed)
	}
	if o.OK() || o.Reason == "" {
		return string(o.Status)
	}
	return string(o.Status) + ". " + o.Reason
}

// All reports whether every outcome succeeded.
func All(outcomes ...Outcome) Outcome {
	var failed []string
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, o.Reason)
		}
	}
	if len(failed) == 0 {
		return Success()
	}
	return Failure(strings.Join(nonEmpty(failed), "; "))
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
