package user

import "scholarcrm/internal/domain"

// RegisterRequest is the public sign-up form.
type RegisterRequest struct {
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Password     string      `json:"password" validate:"required,min=8"`
	Mobile       string      `json:"mobile"`
	Role         domain.Role `json:"role" validate:"omitempty,oneof=client referral-partner"`
	ReferralCode string      `json:"referral_code"`
}

// CreateStaffRequest is used by admins to provision accounts of any role.
type CreateStaffRequest struct {
	Name           string      `json:"name" validate:"required"`
	Email          string      `json:"email" validate:"required,email"`
	Password       string      `json:"password" validate:"required,min=8"`
	Mobile         string      `json:"mobile"`
	Role           domain.Role `json:"role" validate:"required,oneof=client admin sales-team sales-manager referral-partner writing-team"`
	CommissionRate int64       `json:"commission_rate" validate:"gte=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

type UpdateCommissionRateRequest struct {
	CommissionRate *int64 `json:"commission_rate" validate:"required,gte=0"`
}
