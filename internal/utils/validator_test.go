// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrongPasswordRule(t *testing.T) {
	type form struct {
		Password string `validate:"strong_password"`
	}

	cases := []struct {
		password string
		valid    bool
	}{
		{"Definitiva99", true},
		{"corta1A", false},
		{"sinmayusculas99", false},
		{"SINMINUSCULAS99", false},
		{"SinNumeros", false},
	}

	for _, tc := range cases {
		err := ValidateStruct(&form{Password: tc.password})
		if tc.valid {
			assert.NoError(t, err, tc.password)
		} else {
			assert.Error(t, err, tc.password)
		}
	}
}

func TestGetValidationErrors(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
	}

	errs := GetValidationErrors(ValidateStruct(&form{Email: "no-es-correo"}))
	assert.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "Invalid email format", errs[0].Message)
}
