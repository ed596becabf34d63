package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Stage string

const (
	StagePlan Stage = "plan"
	StageCode Stage = "code"
)

// Usage is the token accounting reported by one generation call.
type Usage struct {
	Model            string `json:"model"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"` // 0 = prompt + completion
}

// Normalized fills in TotalTokens when the provider omitted it.
func (u Usage) Normalized() Usage {
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

// UsageRecord is immutable once written.
type UsageRecord struct {
	ID               int64           `json:"id"`
	JobID            int64           `json:"job_id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	Stage            Stage           `json:"stage"`
	Model            string          `json:"model"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CompletionTokens int64           `json:"completion_tokens"`
	TotalTokens      int64           `json:"total_tokens"`
	CostUSD          decimal.Decimal `json:"cost_usd"`
	CreatedAt        time.Time       `json:"created_at"`
}
