package lead

import "errors"

var ErrNotPartner = errors.New("only referral partners can submit referral leads")
