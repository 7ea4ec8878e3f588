package payout

import "errors"

var ErrInvalidAmount = errors.New("amount must be positive")
