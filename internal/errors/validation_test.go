package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/campaign-api/internal/errors"
)

func TestValidationBuilderEmpty(t *testing.T) {
	vb := errors.NewValidationBuilder()
	assert.NoError(t, vb.Build())
}

func TestValidationBuilderFields(t *testing.T) {
	vb := errors.NewValidationBuilder()
	vb.RequiredField("Name")
	vb.InvalidField("InitiativeRoll", "must be set before start")

	err := vb.Build()
	assert.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "InitiativeRoll")
}

func TestValidateRequired(t *testing.T) {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("CharacterID", "  ", vb)
	errors.ValidateRequired("EncounterID", "enc_1", vb)

	err := vb.Build()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CharacterID")
	assert.NotContains(t, err.Error(), "EncounterID")
}

func TestValidateRange(t *testing.T) {
	vb := errors.NewValidationBuilder()
	errors.ValidateRange("Quantity", 0, 1, 99, vb)
	assert.Error(t, vb.Build())

	vb = errors.NewValidationBuilder()
	errors.ValidateRange("Quantity", 5, 1, 99, vb)
	assert.NoError(t, vb.Build())
}

func TestValidateEnum(t *testing.T) {
	allowed := []string{"short_rest", "long_rest"}

	vb := errors.NewValidationBuilder()
	errors.ValidateEnum("RestType", "long_rest", allowed, vb)
	assert.NoError(t, vb.Build())

	vb = errors.NewValidationBuilder()
	errors.ValidateEnum("RestType", "nap", allowed, vb)
	err := vb.Build()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}
