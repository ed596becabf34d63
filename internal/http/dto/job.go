package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

type SubmitJobRequest struct {
	Spec  string `json:"spec" binding:"required"`
	Title string `json:"title"`
}

type SubmitJobResponse struct {
	ID        int64           `json:"id,string"`
	Status    model.JobStatus `json:"status"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
}

func ToSubmitJobResponse(j *model.Job) *SubmitJobResponse {
	return &SubmitJobResponse{
		ID:        j.ID,
		Status:    j.Status,
		Title:     j.Title,
		CreatedAt: j.CreatedAt,
	}
}

// JobResponse carries the public job fields. The owner is never exposed.
type JobResponse struct {
	ID               int64           `json:"id,string"`
	Title            string          `json:"title"`
	Status           model.JobStatus `json:"status"`
	Plan             *model.Plan     `json:"plan"`
	CodePatch        *string         `json:"code_patch"`
	Error            *string         `json:"error"`
	TotalTokens      int64           `json:"total_tokens"`
	EstimatedCostUSD decimal.Decimal `json:"estimated_cost_usd"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func ToJobResponse(j *model.Job) *JobResponse {
	return &JobResponse{
		ID:               j.ID,
		Title:            j.Title,
		Status:           j.Status,
		Plan:             j.Plan,
		CodePatch:        j.CodePatch,
		Error:            j.Error,
		TotalTokens:      j.TotalTokens,
		EstimatedCostUSD: j.EstimatedCostUSD,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

// JobSummaryResponse is the list view; it omits the large plan and patch bodies.
type JobSummaryResponse struct {
	ID               int64           `json:"id,string"`
	Title            string          `json:"title"`
	Status           model.JobStatus `json:"status"`
	Error            *string         `json:"error,omitempty"`
	TotalTokens      int64           `json:"total_tokens"`
	EstimatedCostUSD decimal.Decimal `json:"estimated_cost_usd"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func ToJobSummaryResponses(jobs []model.Job) []JobSummaryResponse {
	out := make([]JobSummaryResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, JobSummaryResponse{
			ID:               j.ID,
			Title:            j.Title,
			Status:           j.Status,
			Error:            j.Error,
			TotalTokens:      j.TotalTokens,
			EstimatedCostUSD: j.EstimatedCostUSD,
			CreatedAt:        j.CreatedAt,
			UpdatedAt:        j.UpdatedAt,
		})
	}
	return out
}

type UsageRecordResponse struct {
	ID               int64           `json:"id,string"`
	Stage            model.Stage     `json:"stage"`
	Model            string          `json:"model"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CompletionTokens int64           `json:"completion_tokens"`
	TotalTokens      int64           `json:"total_tokens"`
	CostUSD          decimal.Decimal `json:"cost_usd"`
	CreatedAt        time.Time       `json:"created_at"`
}

func ToUsageRecordResponses(records []model.UsageRecord) []UsageRecordResponse {
	out := make([]UsageRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, UsageRecordResponse{
			ID:               r.ID,
			Stage:            r.Stage,
			Model:            r.Model,
			PromptTokens:     r.PromptTokens,
			CompletionTokens: r.CompletionTokens,
			TotalTokens:      r.TotalTokens,
			CostUSD:          r.CostUSD,
			CreatedAt:        r.CreatedAt,
		})
	}
	return out
}
