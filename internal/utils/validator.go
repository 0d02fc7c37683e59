// internal/utils/validator.go
package utils

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/listing-studio/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("channel", validateChannel)
	validate.RegisterValidation("media_url", validateMediaURL)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateChannel(fl validator.FieldLevel) bool {
	return models.Channel(fl.Field().String()).Valid()
}

// validateMediaURL accepts absolute http(s) URLs only.
func validateMediaURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "url", "media_url":
		return e.Field() + " must be an http(s) URL"
	case "channel":
		return "Channel must be one of generic, shopify, bolcom"
	default:
		return e.Field() + " is invalid"
	}
}
