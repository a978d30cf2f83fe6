package tasks

import "errors"

var (
	ErrRunningTask    = errors.New("running task")
	ErrInvalidPayload = errors.New("invalid task payload")
)
