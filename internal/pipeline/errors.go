package pipeline

import (
	"errors"
	"fmt"

	"github.com/hhuzhang0517/genrtl-saas/internal/generation"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

// ErrJobNotFound fails the run without touching any job. Retrying cannot help.
var ErrJobNotFound = errors.New("job not found")

// ErrSuperseded means another run moved the job past the status this run
// expected. The job is left as the other run wrote it.
var ErrSuperseded = errors.New("job advanced by another run")

// RunError is returned when a run fails after the job was loaded.
// Recorded reports whether the job was marked failed; when false the job
// still carries its last checkpoint and the run may be retried.
type RunError struct {
	JobID    int64
	Stage    model.Stage // empty before the plan stage began
	Err      error
	Recorded bool
}

func (e *RunError) Error() string {
	stage := string(e.Stage)
	if stage == "" {
		stage = "setup"
	}
	return fmt.Sprintf("job %d failed during %s: %v", e.JobID, stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

const (
	unknownErrorMessage     = "unknown error"
	persistenceErrorMessage = "could not save job progress"
)

// failureMessage is the text stored on a failed job. It names what went wrong
// without provider or driver detail; the full chain goes to logs and the DLQ.
func failureMessage(err error) string {
	if err == nil {
		return unknownErrorMessage
	}

	var shapeErr *generation.PlanShapeError
	if errors.As(err, &shapeErr) {
		return shapeErr.Error()
	}

	var genErr *generation.Error
	if errors.As(err, &genErr) && genErr.Msg != "" {
		return fmt.Sprintf("%s generation failed: %s", genErr.Stage, genErr.Msg)
	}

	var perr *store.PersistenceError
	if errors.As(err, &perr) {
		return persistenceErrorMessage
	}

	return unknownErrorMessage
}
