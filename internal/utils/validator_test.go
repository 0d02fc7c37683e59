// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Channel string   `validate:"channel"`
	Media   string   `validate:"omitempty,media_url"`
	Tags    []string `validate:"max=2"`
}

func TestCustomValidators(t *testing.T) {
	assert.NoError(t, ValidateStruct(&sample{Channel: "shopify", Media: "https://cdn.example.com/a.png"}))

	errs := GetValidationErrors(ValidateStruct(&sample{Channel: "amazon", Media: "ftp://x/a.png", Tags: []string{"a", "b", "c"}}))
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, map[string]string{"channel": "channel", "media": "media_url", "tags": "max"}, fields)
}

func TestGetValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, GetValidationErrors(nil))
	assert.Empty(t, GetValidationErrors(assert.AnError))
}
