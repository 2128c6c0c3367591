package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type verifyPayload struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,resetcode"`
}

func TestValidateStructSuccess(t *testing.T) {
	require.NoError(t, ValidateStruct(verifyPayload{
		Email: "ada@example.com",
		Code:  "042917",
	}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(verifyPayload{Email: "invalid", Code: ""})
	require.Error(t, err)

	var vErrs ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	require.Len(t, vErrs, 2)

	details := vErrs.Details()
	require.Contains(t, details, "email must be a valid email address")
	require.Contains(t, details, "code is required")
}

func TestResetCodeRule(t *testing.T) {
	for _, code := range []string{"000000", "123456", "999999"} {
		require.NoError(t, ValidateStruct(verifyPayload{Email: "a@x.com", Code: code}), code)
	}

	for _, code := range []string{"12345", "1234567", "12345a", "-12345", "12.345", "１２３４５６"} {
		err := ValidateStruct(verifyPayload{Email: "a@x.com", Code: code})
		require.Error(t, err, code)

		var vErrs ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		require.Contains(t, vErrs.Details(), "code must be a 6-digit code")
	}
}

func TestRegisterValidation(t *testing.T) {
	require.NoError(t, RegisterValidation("headline", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= 120
	}))

	type profile struct {
		Headline string `json:"headline" validate:"headline"`
	}

	require.NoError(t, ValidateStruct(profile{Headline: "Backend engineer"}))

	long := make([]byte, 121)
	for i := range long {
		long[i] = 'x'
	}
	require.Error(t, ValidateStruct(profile{Headline: string(long)}))
}
