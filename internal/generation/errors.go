package generation

import (
	"fmt"
	"strings"

	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

// Error is returned for every failed generation call. Raw holds the model
// output when there was any, so a malformed response can be inspected.
type Error struct {
	Stage model.Stage
	Msg   string
	Raw   string
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s generation failed: %s", e.Stage, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PlanShapeError lists every way a decoded plan deviates from the required shape.
type PlanShapeError struct {
	Problems []string
	Raw      string
}

func (e *PlanShapeError) Error() string {
	return "plan does not match the required shape: " + strings.Join(e.Problems, "; ")
}
