package task

import "errors"

var (
	ErrUnknownTaskType = errors.New("unknown task type")
	ErrStaleRun        = errors.New("stale run token")
)
