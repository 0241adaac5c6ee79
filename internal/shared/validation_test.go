package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required"`
	RoleID int64  `json:"roleId" validate:"required"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(sampleInput{Email: "a@b.c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"name":   "name is required",
		"roleId": "roleId is required",
	}, verr.Fields)
	assert.Equal(t, "validation failed: name is required; roleId is required", err.Error())
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(sampleInput{Name: "Alice", Email: "alice@x.com", RoleID: 1}))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("name", "name is required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
}
