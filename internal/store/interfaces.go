package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a guarded status update found the job in
// a status other than the expected ones.
var ErrStatusConflict = errors.New("job status changed concurrently")

// PersistenceError wraps a failed store operation (connection loss, query
// failure). It never wraps ErrNotFound or ErrStatusConflict.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// JobUpdate is a partial update. Nil fields keep their stored value, except
// Error which is always cleared when Status is not failed.
type JobUpdate struct {
	Status    model.JobStatus
	Plan      *model.Plan
	CodePatch *string
	Error     *string

	// ExpectStatus turns the update into a compare-and-swap: it only applies
	// while the stored status is one of these. Empty = unconditional.
	ExpectStatus []model.JobStatus
}

// JobStore defines the contract for RTL job data access
type JobStore interface {
	Create(ctx context.Context, job *model.Job) (*model.Job, error) // status forced to queued
	GetByID(ctx context.Context, id int64) (*model.Job, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]model.Job, error)
	UpdateStatus(ctx context.Context, id int64, update JobUpdate) (*model.Job, error)
	AddUsage(ctx context.Context, id int64, tokens int64, cost decimal.Decimal) (*JobTotals, error)
}

// UsageLogStore defines the contract for the append-only usage log
type UsageLogStore interface {
	Create(ctx context.Context, record *model.UsageRecord) (*model.UsageRecord, error)
	ListByJob(ctx context.Context, jobID int64) ([]model.UsageRecord, error)
}

// JobTotals is the job aggregate after an increment.
type JobTotals struct {
	TotalTokens      int64
	EstimatedCostUSD decimal.Decimal
}
