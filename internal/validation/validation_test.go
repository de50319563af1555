package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Month    int    `json:"month" validate:"gte=1,lte=12"`
	LastName string `validate:"max=3"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	err := New().Struct(sample{Email: "nope", Month: 13, LastName: "Gomez"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, []string{"enter a valid email address"}, fields["email"])
	assert.Equal(t, []string{"must be less than or equal to 12"}, fields["month"])
	assert.Equal(t, []string{"ensure this field has no more than 3 characters"}, fields["last_name"])
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(errors.New("boom")))
}
