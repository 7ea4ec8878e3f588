package project

import "errors"

var (
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrNotClient               = errors.New("account is not a client")
)
