// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/generation"
	"github.com/javajoker/listing-studio/internal/i18n"
	"github.com/javajoker/listing-studio/internal/models"
	"github.com/javajoker/listing-studio/internal/services"
	"github.com/javajoker/listing-studio/internal/utils"
)

// actorFromContext reads the authenticated caller set by the auth middleware.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return services.Actor{}, false
	}
	companyID, ok := utils.GetCompanyIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, CompanyID: companyID, Email: utils.GetEmailFromContext(c)}, true
}

func uuidParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationID, resource), nil)
		return uuid.Nil, false
	}
	return id, true
}

// listingRequest resolves the caller and the listing key of /products/:id/listings/:channel.
func listingRequest(c *gin.Context) (services.Actor, models.ListingKey, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return actor, models.ListingKey{}, false
	}

	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return actor, models.ListingKey{}, false
	}

	channel := models.Channel(c.Param("channel"))
	if !channel.Valid() {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyChannelInvalid), gin.H{"channel": c.Param("channel")})
		return actor, models.ListingKey{}, false
	}

	return actor, models.ListingKey{ProductID: productID, Channel: channel}, true
}

// respondError maps service errors onto the API error envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, models.ErrListingNotFound):
		utils.NotFoundResponse(c, "listing")
	case errors.Is(err, services.ErrRunNotFound):
		utils.NotFoundResponse(c, "generation")
	case errors.Is(err, services.ErrNotificationNotFound):
		utils.NotFoundResponse(c, "notification")
	case errors.Is(err, generation.ErrRunInProgress):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyGenerationInProgress))
	case errors.Is(err, services.ErrInvalidChannel):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyChannelInvalid), nil)
	case errors.Is(err, generation.ErrUnknownSlot):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySlotInvalid), nil)
	case errors.Is(err, generation.ErrImageFailed):
		utils.BadGatewayResponse(c, i18n.T(lang, i18n.KeyImageFailed))
	case errors.Is(err, services.ErrEmptyUpdate):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyListingEmptyUpdate), nil)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}
