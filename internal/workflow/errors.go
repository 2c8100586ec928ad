package workflow

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a denied statistics query. List queries encode
// denial as an empty result instead; statistics gets an explicit marker
// so callers can tell "no data" from "not permitted to look".
var ErrUnauthorized = errors.New("unauthorized access")

// PipelineError reports which stage's external call failed. The run is
// abandoned at that stage; no partial state is returned as success.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
