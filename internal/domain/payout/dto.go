package payout

type RequestPayoutRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type PayoutListResponse struct {
	Payouts []Payout `json:"payouts"`
}
