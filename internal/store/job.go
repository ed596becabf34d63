package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/core/db/sqlc"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

type jobStore struct {
	queries *sqlc.Queries
}

func newJobStore(queries *sqlc.Queries) JobStore {
	return &jobStore{queries: queries}
}

func (s *jobStore) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	row, err := s.queries.CreateJob(ctx, sqlc.CreateJobParams{
		ID:      job.ID,
		OwnerID: job.OwnerID,
		Title:   job.Title,
		Spec:    job.Spec,
		Status:  string(model.JobStatusQueued),
	})
	if err != nil {
		return nil, persistErr("create job", err)
	}
	return toJobModel(row)
}

func (s *jobStore) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	row, err := s.queries.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, persistErr("get job", err)
	}
	return toJobModel(row)
}

func (s *jobStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]model.Job, error) {
	rows, err := s.queries.ListJobsByOwner(ctx, sqlc.ListJobsByOwnerParams{
		OwnerID: ownerID,
		Limit:   limit,
	})
	if err != nil {
		return nil, persistErr("list jobs", err)
	}

	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		job, err := toJobModel(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (s *jobStore) UpdateStatus(ctx context.Context, id int64, update JobUpdate) (*model.Job, error) {
	if !update.Status.Valid() {
		return nil, fmt.Errorf("invalid job status %q", update.Status)
	}

	var planJSON []byte
	if update.Plan != nil {
		var err error
		planJSON, err = json.Marshal(update.Plan)
		if err != nil {
			return nil, fmt.Errorf("marshaling plan: %w", err)
		}
	}

	expected := make([]string, 0, len(update.ExpectStatus))
	for _, status := range update.ExpectStatus {
		expected = append(expected, string(status))
	}

	row, err := s.queries.UpdateJobStatus(ctx, sqlc.UpdateJobStatusParams{
		Status:           string(update.Status),
		Plan:             planJSON,
		CodePatch:        update.CodePatch,
		Error:            update.Error,
		ID:               id,
		ExpectedStatuses: expected,
	})
	if err == nil {
		return toJobModel(row)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, persistErr("update job status", err)
	}

	// No row updated: either the job is gone or the guard rejected it.
	exists, existsErr := s.queries.JobExists(ctx, id)
	if existsErr != nil {
		return nil, persistErr("check job exists", existsErr)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrStatusConflict
}

func (s *jobStore) AddUsage(ctx context.Context, id int64, tokens int64, cost decimal.Decimal) (*JobTotals, error) {
	row, err := s.queries.AddJobUsage(ctx, sqlc.AddJobUsageParams{
		Tokens:  tokens,
		CostUsd: numericFromDecimal(cost),
		ID:      id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, persistErr("add job usage", err)
	}
	return &JobTotals{
		TotalTokens:      row.TotalTokens,
		EstimatedCostUSD: decimalFromNumeric(row.EstimatedCostUsd),
	}, nil
}

func toJobModel(row sqlc.RtlJob) (*model.Job, error) {
	var plan *model.Plan
	if len(row.Plan) > 0 {
		plan = &model.Plan{}
		if err := json.Unmarshal(row.Plan, plan); err != nil {
			return nil, fmt.Errorf("decoding plan for job %d: %w", row.ID, err)
		}
	}

	return &model.Job{
		ID:               row.ID,
		OwnerID:          row.OwnerID,
		Title:            row.Title,
		Spec:             row.Spec,
		Status:           model.JobStatus(row.Status),
		Plan:             plan,
		CodePatch:        row.CodePatch,
		Error:            row.Error,
		TotalTokens:      row.TotalTokens,
		EstimatedCostUSD: decimalFromNumeric(row.EstimatedCostUsd),
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}, nil
}
