package store

import (
	"context"

	"github.com/hhuzhang0517/genrtl-saas/core/db/sqlc"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

type usageLogStore struct {
	queries *sqlc.Queries
}

func newUsageLogStore(queries *sqlc.Queries) UsageLogStore {
	return &usageLogStore{queries: queries}
}

func (s *usageLogStore) Create(ctx context.Context, record *model.UsageRecord) (*model.UsageRecord, error) {
	row, err := s.queries.InsertUsageLog(ctx, sqlc.InsertUsageLogParams{
		ID:               record.ID,
		JobID:            record.JobID,
		OwnerID:          record.OwnerID,
		Stage:            string(record.Stage),
		Model:            record.Model,
		PromptTokens:     record.PromptTokens,
		CompletionTokens: record.CompletionTokens,
		TotalTokens:      record.TotalTokens,
		CostUsd:          numericFromDecimal(record.CostUSD),
	})
	if err != nil {
		return nil, persistErr("insert usage log", err)
	}
	return toUsageRecordModel(row), nil
}

func (s *usageLogStore) ListByJob(ctx context.Context, jobID int64) ([]model.UsageRecord, error) {
	rows, err := s.queries.ListUsageLogsByJob(ctx, jobID)
	if err != nil {
		return nil, persistErr("list usage logs", err)
	}

	records := make([]model.UsageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *toUsageRecordModel(row))
	}
	return records, nil
}

func toUsageRecordModel(row sqlc.ModelUsageLog) *model.UsageRecord {
	return &model.UsageRecord{
		ID:               row.ID,
		JobID:            row.JobID,
		OwnerID:          row.OwnerID,
		Stage:            model.Stage(row.Stage),
		Model:            row.Model,
		PromptTokens:     row.PromptTokens,
		CompletionTokens: row.CompletionTokens,
		TotalTokens:      row.TotalTokens,
		CostUSD:          decimalFromNumeric(row.CostUsd),
		CreatedAt:        row.CreatedAt.Time,
	}
}
