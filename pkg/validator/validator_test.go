package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

func TestNewRegistersCardNumber(t *testing.T) {
	var v Validator
	require.NotPanics(t, func() { v = New() })

	req := model.AdjudicationRequest{
		CardNumber:   "HN4010123456789",
		FacilityCode: "79001",
		PolicyType:   model.PolicyTypeOutpatient,
	}
	assert.NoError(t, v.Validate(req))

	req.CardNumber = "HN40"
	err := v.Validate(req)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonValidationFailed, appErr.Reason)
	assert.Equal(t, map[string]string{"card_number": "cardnumber"}, appErr.Details["fields"])
}

func TestValidateField(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateField("province", "79", "required,numeric,max=3"))

	err := v.ValidateField("province", "HCM", "required,numeric,max=3")
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"province": "numeric"}, appErr.Details["fields"])
}
