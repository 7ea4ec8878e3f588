package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email  string `validate:"required,email"`
	Amount int64  `validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(&sample{Email: "a@x.com"}))

	errs := Validate(&sample{Email: "nope", Amount: -1})
	assert.Equal(t, "email", errs["Email"])
	assert.Equal(t, "gte", errs["Amount"])
}
