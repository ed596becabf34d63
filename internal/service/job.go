package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hhuzhang0517/genrtl-saas/common/id"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	// MaxSpecSize is the maximum accepted spec size in bytes, after trimming.
	MaxSpecSize = 200 * 1024
)

const enqueueFailureMessage = "failed to schedule job"

type SubmitParams struct {
	OwnerID uuid.UUID
	Spec    string
	Title   string
	TraceID *string
}

type JobService interface {
	Submit(ctx context.Context, params SubmitParams) (*model.Job, error)
	Get(ctx context.Context, ownerID uuid.UUID, jobID int64) (*model.Job, error)
	List(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.Job, error)
	ListUsage(ctx context.Context, ownerID uuid.UUID, jobID int64) ([]model.UsageRecord, error)
}

type jobService struct {
	jobs     store.JobStore
	usage    store.UsageLogStore
	producer queue.Producer
}

func NewJobService(jobs store.JobStore, usage store.UsageLogStore, producer queue.Producer) JobService {
	return &jobService{
		jobs:     jobs,
		usage:    usage,
		producer: producer,
	}
}

func (s *jobService) Submit(ctx context.Context, params SubmitParams) (*model.Job, error) {
	spec := strings.TrimSpace(params.Spec)
	if spec == "" {
		return nil, ErrInvalidSpec
	}
	if len(spec) > MaxSpecSize {
		return nil, ErrSpecTooLarge
	}

	job, err := s.jobs.Create(ctx, &model.Job{
		ID:      id.New(),
		OwnerID: params.OwnerID,
		Title:   NormalizeTitle(params.Title),
		Spec:    spec,
		Status:  model.JobStatusQueued,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create job",
			"error", err,
			"owner_id", params.OwnerID,
		)
		return nil, fmt.Errorf("creating job: %w", err)
	}

	if err := s.producer.Enqueue(ctx, queue.JobMessage{
		JobID:   job.ID,
		OwnerID: job.OwnerID,
		TraceID: params.TraceID,
		Attempt: 1,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue job",
			"error", err,
			"job_id", job.ID,
		)
		s.markUnscheduled(ctx, job.ID)
		return nil, fmt.Errorf("enqueueing job: %w", err)
	}

	slog.InfoContext(ctx, "job submitted", "job_id", job.ID, "owner_id", job.OwnerID)
	return job, nil
}

// markUnscheduled fails a job whose trigger never reached the queue so it does
// not sit in queued forever.
func (s *jobService) markUnscheduled(ctx context.Context, jobID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	msg := enqueueFailureMessage
	if _, err := s.jobs.UpdateStatus(ctx, jobID, store.JobUpdate{
		Status:       model.JobStatusFailed,
		Error:        &msg,
		ExpectStatus: []model.JobStatus{model.JobStatusQueued},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to mark unscheduled job as failed",
			"error", err,
			"job_id", jobID,
		)
	}
}

func (s *jobService) Get(ctx context.Context, ownerID uuid.UUID, jobID int64) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}

	if job.OwnerID != ownerID {
		slog.WarnContext(ctx, "job access denied",
			"job_id", jobID,
			"owner_id", ownerID,
		)
		return nil, ErrForbidden
	}

	return job, nil
}

func (s *jobService) List(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	jobs, err := s.jobs.ListByOwner(ctx, ownerID, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

func (s *jobService) ListUsage(ctx context.Context, ownerID uuid.UUID, jobID int64) ([]model.UsageRecord, error) {
	if _, err := s.Get(ctx, ownerID, jobID); err != nil {
		return nil, err
	}

	records, err := s.usage.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing usage: %w", err)
	}
	return records, nil
}

// NormalizeTitle trims the title, substitutes the default when empty and caps
// it at model.MaxTitleLength runes.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.DefaultJobTitle
	}
	if r := []rune(title); len(r) > model.MaxTitleLength {
		return string(r[:model.MaxTitleLength])
	}
	return title
}
