// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationID      = "validation.invalid_id"
	KeyChannelInvalid    = "channel.invalid"

	// Products and listings
	KeyProductNotFound    = "product.not_found"
	KeyListingNotFound    = "listing.not_found"
	KeyListingUpdated     = "listing.updated"
	KeyListingEmptyUpdate = "listing.empty_update"

	// Generation
	KeyGenerationStarted    = "generation.started"
	KeyGenerationInProgress = "generation.in_progress"
	KeyGenerationNotFound   = "generation.not_found"
	KeyGenerationCanceled   = "generation.canceled"
	KeyImageFailed          = "generation.image_failed"
	KeySlotInvalid          = "slot.invalid"
	KeySlotGenerated        = "slot.generated"

	KeyNotificationNotFound = "notification.not_found"
)
