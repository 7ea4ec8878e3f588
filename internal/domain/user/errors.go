package user

import "errors"

var (
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidReferralCode = errors.New("referral code does not belong to a partner")
	ErrNotPartner          = errors.New("user is not a referral partner")
)
