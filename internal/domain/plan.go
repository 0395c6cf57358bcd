package domain

import "time"

// StepStatus enumerates plan step states.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	StepSkipped    StepStatus = "skipped"
)

// StepReview records the classifier verdict for a planned command.
type StepReview struct {
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
}

// PlanStep is one entry of a linear plan.
type PlanStep struct {
	Index       int         `json:"index"`
	Description string      `json:"description"`
	Command     string      `json:"command,omitempty"`
	Status      StepStatus  `json:"status"`
	Note        string      `json:"note,omitempty"`
	Review      *StepReview `json:"review,omitempty"`
}

// Plan is a JSON document recording a sequence of steps with status.
// Pure bookkeeping: steps advance strictly in order.
type Plan struct {
	ID        string     `json:"id"`
	Goal      string     `json:"goal"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Status    StepStatus `json:"status"`
	Steps     []PlanStep `json:"steps"`
}

// CurrentStep returns the first step that is pending or in progress,
// or -1 when the plan is finished.
func (p Plan) CurrentStep() int {
	for i, step := range p.Steps {
		if step.Status == StepPending || step.Status == StepInProgress {
			return i
		}
	}
	return -1
}
