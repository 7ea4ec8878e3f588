package task

import "errors"

var (
	ErrNotWriter     = errors.New("assignee must be a writing-team member")
	ErrNotAssignedTo = errors.New("task is assigned to another writer")
)
