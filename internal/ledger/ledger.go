package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hhuzhang0517/genrtl-saas/common/id"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

var ErrInvalidUsage = errors.New("invalid usage")

// Ledger records usage records and keeps the per-job aggregate in step with
// them. The insert and the increment commit together.
type Ledger struct {
	tx TxRunner
}

func New(tx TxRunner) *Ledger {
	return &Ledger{tx: tx}
}

func (l *Ledger) Record(ctx context.Context, jobID int64, ownerID uuid.UUID, stage model.Stage, usage model.Usage) (*model.UsageRecord, error) {
	usage = usage.Normalized()
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		return nil, fmt.Errorf("%w: negative token count", ErrInvalidUsage)
	}

	cost := Cost(usage.Model, usage.PromptTokens, usage.CompletionTokens)
	if !KnownModel(usage.Model) {
		slog.WarnContext(ctx, "no pricing for model, recording zero cost", "model", usage.Model)
	}

	record := &model.UsageRecord{
		ID:               id.New(),
		JobID:            jobID,
		OwnerID:          ownerID,
		Stage:            stage,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CostUSD:          cost,
	}

	var saved *model.UsageRecord
	err := l.tx.WithTx(ctx, func(stores StoreProvider) error {
		var err error
		saved, err = stores.UsageLogs().Create(ctx, record)
		if err != nil {
			return fmt.Errorf("inserting usage record: %w", err)
		}

		totals, err := stores.Jobs().AddUsage(ctx, jobID, usage.TotalTokens, cost)
		if err != nil {
			return fmt.Errorf("incrementing job usage: %w", err)
		}

		slog.DebugContext(ctx, "usage recorded",
			"stage", stage,
			"model", usage.Model,
			"tokens", usage.TotalTokens,
			"cost_usd", cost.String(),
			"job_total_tokens", totals.TotalTokens,
			"job_cost_usd", totals.EstimatedCostUSD.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
