// internal/services/errors.go
package services

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrRunNotFound     = errors.New("generation run not found")
	ErrEmptyUpdate     = errors.New("no listing fields to update")
	ErrInvalidChannel  = errors.New("invalid channel")

	ErrNotificationNotFound = errors.New("notification not found")
)
