package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type loginPayload struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required"`
}

func TestValidateStructSuccess(t *testing.T) {
	require.NoError(t, ValidateStruct(loginPayload{Username: "admin", Password: "pw"}))
}

func TestValidateStructFailures(t *testing.T) {
	err := ValidateStruct(loginPayload{})
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 2)
	require.Equal(t, "username", vErrs[0].Field)
	require.Equal(t, "username is required; password is required", err.Error())
}

func TestValidateVarConfigKey(t *testing.T) {
	require.NoError(t, ValidateVar("key", "about_title", "configkey"))

	cases := []string{"", " about_title", "about\ntitle", strings.Repeat("k", MaxConfigKeyLength+1)}
	for _, key := range cases {
		err := ValidateVar("key", key, "configkey")
		require.Error(t, err, "key %q", key)
		vErrs, ok := err.(ValidationErrors)
		require.True(t, ok)
		require.Equal(t, "key", vErrs[0].Field)
	}

	require.NoError(t, ValidateVar("key", strings.Repeat("k", MaxConfigKeyLength), "configkey"))
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("portfolio", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "portfolio"
	})
	require.NoError(t, err)

	type custom struct {
		Value string `validate:"portfolio"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "portfolio"}))
	require.Error(t, ValidateStruct(custom{Value: "other"}))
}
