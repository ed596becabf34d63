package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobStatusQueued         JobStatus = "queued"
	JobStatusPlanInProgress JobStatus = "plan_in_progress"
	JobStatusCodeInProgress JobStatus = "code_in_progress"
	JobStatusSucceeded      JobStatus = "succeeded"
	JobStatusFailed         JobStatus = "failed"
)

// DefaultJobTitle is used when a submission carries no title.
const DefaultJobTitle = "Untitled job"

// MaxTitleLength is measured in runes.
const MaxTitleLength = 120

type Job struct {
	ID               int64           `json:"id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	Title            string          `json:"title"`
	Spec             string          `json:"spec"`
	Status           JobStatus       `json:"status"`
	Plan             *Plan           `json:"plan,omitempty"`
	CodePatch        *string         `json:"code_patch,omitempty"`
	Error            *string         `json:"error,omitempty"`
	TotalTokens      int64           `json:"total_tokens"`
	EstimatedCostUSD decimal.Decimal `json:"estimated_cost_usd"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

func (s JobStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions lists the statuses each status may advance to. The graph is
// linear with a single failure sink; plan_in_progress may be re-entered so an
// interrupted run can resume the plan stage.
var transitions = map[JobStatus][]JobStatus{
	JobStatusQueued:         {JobStatusPlanInProgress, JobStatusFailed},
	JobStatusPlanInProgress: {JobStatusPlanInProgress, JobStatusCodeInProgress, JobStatusFailed},
	JobStatusCodeInProgress: {JobStatusSucceeded, JobStatusFailed},
	JobStatusSucceeded:      nil,
	JobStatusFailed:         nil,
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// SourcesFor returns every status from which next is reachable in one step.
func SourcesFor(next JobStatus) []JobStatus {
	var sources []JobStatus
	for _, from := range statusOrder {
		if from.CanTransitionTo(next) {
			sources = append(sources, from)
		}
	}
	return sources
}

var statusOrder = []JobStatus{
	JobStatusQueued,
	JobStatusPlanInProgress,
	JobStatusCodeInProgress,
	JobStatusSucceeded,
	JobStatusFailed,
}
