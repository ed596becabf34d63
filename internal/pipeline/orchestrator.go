package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hhuzhang0517/genrtl-saas/common/logger"
	"github.com/hhuzhang0517/genrtl-saas/internal/generation"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

// JobStore is the part of store.JobStore a run needs.
type JobStore interface {
	GetByID(ctx context.Context, id int64) (*model.Job, error)
	UpdateStatus(ctx context.Context, id int64, update store.JobUpdate) (*model.Job, error)
}

// UsageRecorder is satisfied by *ledger.Ledger.
type UsageRecorder interface {
	Record(ctx context.Context, jobID int64, ownerID uuid.UUID, stage model.Stage, usage model.Usage) (*model.UsageRecord, error)
}

// Trigger is the whole input of a run.
type Trigger struct {
	JobID   int64
	OwnerID uuid.UUID
}

const defaultFailureWriteTimeout = 10 * time.Second

// Orchestrator drives one job from its current status to a terminal one.
//
// Every status write is guarded by the statuses that may legally precede it,
// so a job never moves backwards and a second run racing on the same job
// stops with ErrSuperseded instead of overwriting the first.
type Orchestrator struct {
	jobs    JobStore
	engine  generation.Engine
	usage   UsageRecorder
	metrics *metrics

	failureWriteTimeout time.Duration
}

func New(jobs JobStore, engine generation.Engine, usage UsageRecorder) *Orchestrator {
	return &Orchestrator{
		jobs:                jobs,
		engine:              engine,
		usage:               usage,
		metrics:             newMetrics(),
		failureWriteTimeout: defaultFailureWriteTimeout,
	}
}

// Run executes the remaining stages of a job. A terminal job is a no-op.
//
// Errors:
//   - ErrJobNotFound when the job does not exist
//   - ErrSuperseded (wrapped) when another run advanced the job
//   - *RunError for any other failure, with Recorded set when the job was
//     marked failed
//   - the context error when ctx ended mid-run; the job keeps its last
//     checkpoint so a later run resumes from it
func (o *Orchestrator) Run(ctx context.Context, trig Trigger) (err error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		JobID:     &trig.JobID,
		Component: "genrtl.pipeline",
	})

	sc := logger.StartSpan(ctx, "pipeline.run")
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(attribute.Int64("job_id", trig.JobID))

	skipped := false
	defer func() {
		sc.RecordError(err)
		o.metrics.runFinished(ctx, outcome(err, skipped))
	}()

	job, err := o.jobs.GetByID(ctx, trig.JobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "job not found, dropping run")
			return fmt.Errorf("%w: %d", ErrJobNotFound, trig.JobID)
		}
		return o.fail(ctx, trig.JobID, "", fmt.Errorf("loading job: %w", err))
	}

	ownerID := job.OwnerID.String()
	ctx = logger.WithLogFields(ctx, logger.LogFields{OwnerID: &ownerID})

	if trig.OwnerID != uuid.Nil && trig.OwnerID != job.OwnerID {
		slog.WarnContext(ctx, "trigger owner does not match job owner, using job owner",
			"trigger_owner_id", trig.OwnerID.String())
	}

	if job.IsTerminal() {
		slog.InfoContext(ctx, "job already terminal, nothing to do", "status", job.Status)
		skipped = true
		return nil
	}

	var plan model.Plan
	switch job.Status {
	case model.JobStatusQueued, model.JobStatusPlanInProgress:
		plan, err = o.planStage(ctx, job)
		if err != nil {
			return o.fail(ctx, job.ID, model.StagePlan, err)
		}
	case model.JobStatusCodeInProgress:
		if job.Plan == nil {
			return o.fail(ctx, job.ID, model.StageCode,
				errors.New("job is in code_in_progress but has no stored plan"))
		}
		slog.InfoContext(ctx, "resuming at code stage with stored plan")
		plan = *job.Plan
	default:
		return o.fail(ctx, job.ID, "", fmt.Errorf("job has unknown status %q", job.Status))
	}

	if err := o.codeStage(ctx, job, plan); err != nil {
		return o.fail(ctx, job.ID, model.StageCode, err)
	}

	slog.InfoContext(ctx, "job succeeded")
	return nil
}

// planStage checkpoints plan_in_progress, generates the plan, then persists it
// together with the move to code_in_progress.
func (o *Orchestrator) planStage(ctx context.Context, job *model.Job) (model.Plan, error) {
	ctx = withStage(ctx, model.StagePlan)

	if err := o.advance(ctx, job.ID, store.JobUpdate{Status: model.JobStatusPlanInProgress}); err != nil {
		return model.Plan{}, err
	}

	start := time.Now()
	result, err := o.engine.ProducePlan(ctx, job.Spec)
	o.metrics.stageFinished(ctx, model.StagePlan, start, err)
	if err != nil {
		logGenerationFailure(ctx, err)
		return model.Plan{}, err
	}

	if err := o.advance(ctx, job.ID, store.JobUpdate{
		Status: model.JobStatusCodeInProgress,
		Plan:   &result.Plan,
	}); err != nil {
		return model.Plan{}, err
	}

	slog.InfoContext(ctx, "plan persisted",
		"modules", len(result.Plan.Modules),
		"duration_ms", time.Since(start).Milliseconds())

	o.recordUsage(ctx, job, model.StagePlan, result.Usage)
	return result.Plan, nil
}

// codeStage generates the patch and persists it with the move to succeeded.
func (o *Orchestrator) codeStage(ctx context.Context, job *model.Job, plan model.Plan) error {
	ctx = withStage(ctx, model.StageCode)

	start := time.Now()
	result, err := o.engine.ProduceCode(ctx, job.Spec, plan)
	o.metrics.stageFinished(ctx, model.StageCode, start, err)
	if err != nil {
		logGenerationFailure(ctx, err)
		return err
	}

	if err := o.advance(ctx, job.ID, store.JobUpdate{
		Status:    model.JobStatusSucceeded,
		CodePatch: &result.Patch,
	}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "patch persisted",
		"patch_bytes", len(result.Patch),
		"duration_ms", time.Since(start).Milliseconds())

	o.recordUsage(ctx, job, model.StageCode, result.Usage)
	return nil
}

// advance applies update only if the job currently sits in a status the
// target is reachable from.
func (o *Orchestrator) advance(ctx context.Context, jobID int64, update store.JobUpdate) error {
	update.ExpectStatus = model.SourcesFor(update.Status)

	if _, err := o.jobs.UpdateStatus(ctx, jobID, update); err != nil {
		switch {
		case errors.Is(err, store.ErrStatusConflict):
			return fmt.Errorf("%w: moving to %s", ErrSuperseded, update.Status)
		case errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("%w: %d", ErrJobNotFound, jobID)
		default:
			return fmt.Errorf("persisting status %s: %w", update.Status, err)
		}
	}

	slog.DebugContext(ctx, "job status advanced", "status", update.Status)
	return nil
}

// fail records err on the job when that is still meaningful and returns the
// error the scheduler should act on.
func (o *Orchestrator) fail(ctx context.Context, jobID int64, stage model.Stage, err error) error {
	if errors.Is(err, ErrSuperseded) {
		slog.WarnContext(ctx, "run superseded, leaving job as is", "error", err)
		return err
	}
	if errors.Is(err, ErrJobNotFound) {
		slog.WarnContext(ctx, "job disappeared mid-run", "error", err)
		return err
	}
	if ctx.Err() != nil {
		slog.WarnContext(ctx, "run interrupted, job keeps its last checkpoint", "error", err)
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}

	msg := failureMessage(err)
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.failureWriteTimeout)
	defer cancel()

	_, writeErr := o.jobs.UpdateStatus(writeCtx, jobID, store.JobUpdate{
		Status:       model.JobStatusFailed,
		Error:        &msg,
		ExpectStatus: model.SourcesFor(model.JobStatusFailed),
	})
	switch {
	case writeErr == nil:
		slog.ErrorContext(ctx, "job failed", "error", err, "stage", stage)
		return &RunError{JobID: jobID, Stage: stage, Err: err, Recorded: true}
	case errors.Is(writeErr, store.ErrStatusConflict):
		slog.WarnContext(ctx, "job reached a terminal status elsewhere before failure was recorded", "error", err)
		return fmt.Errorf("%w: %v", ErrSuperseded, err)
	default:
		slog.ErrorContext(ctx, "could not record job failure",
			"error", err,
			"record_error", writeErr)
		return &RunError{JobID: jobID, Stage: stage, Err: err, Recorded: false}
	}
}

// recordUsage never fails the stage that produced the usage.
func (o *Orchestrator) recordUsage(ctx context.Context, job *model.Job, stage model.Stage, usage *model.Usage) {
	if usage == nil {
		return
	}

	normalized := usage.Normalized()
	o.metrics.usageRecorded(ctx, stage, normalized)

	if _, err := o.usage.Record(ctx, job.ID, job.OwnerID, stage, normalized); err != nil {
		slog.WarnContext(ctx, "usage recording failed, continuing",
			"error", err,
			"model", normalized.Model,
			"total_tokens", normalized.TotalTokens)
	}
}

func withStage(ctx context.Context, stage model.Stage) context.Context {
	s := string(stage)
	return logger.WithLogFields(ctx, logger.LogFields{Stage: &s})
}

func logGenerationFailure(ctx context.Context, err error) {
	var genErr *generation.Error
	if errors.As(err, &genErr) && genErr.Raw != "" {
		slog.WarnContext(ctx, "generation output rejected",
			"reason", genErr.Msg,
			"raw", logger.Truncate(genErr.Raw, 2000))
	}
}

func outcome(err error, skipped bool) string {
	var runErr *RunError
	switch {
	case skipped:
		return "skipped"
	case err == nil:
		return "succeeded"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, ErrJobNotFound):
		return "not_found"
	case errors.As(err, &runErr):
		return "failed"
	default:
		return "interrupted"
	}
}
