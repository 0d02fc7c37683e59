// internal/handlers/listing.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/listing-studio/internal/i18n"
	"github.com/javajoker/listing-studio/internal/models"
	"github.com/javajoker/listing-studio/internal/services"
	"github.com/javajoker/listing-studio/internal/utils"
)

type ListingStore interface {
	GetCompanyListing(ctx context.Context, key models.ListingKey, companyID uuid.UUID) (*models.Listing, error)
	UpdateListing(ctx context.Context, key models.ListingKey, companyID uuid.UUID, req *services.UpdateListingRequest) (*models.Listing, error)
}

type ProductReader interface {
	GetProduct(ctx context.Context, companyID, productID uuid.UUID) (*models.Product, error)
}

type ListingHandler struct {
	listings ListingStore
	products ProductReader
}

func NewListingHandler(listings ListingStore, products ProductReader) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		products: products,
	}
}

// GET /products/:id/listings/:channel
func (h *ListingHandler) GetListing(c *gin.Context) {
	actor, key, ok := listingRequest(c)
	if !ok {
		return
	}

	listing, err := h.listings.GetCompanyListing(c.Request.Context(), key, actor.CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// PUT /products/:id/listings/:channel
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, key, ok := listingRequest(c)
	if !ok {
		return
	}

	var req services.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if _, err := h.products.GetProduct(c.Request.Context(), actor.CompanyID, key.ProductID); err != nil {
		respondError(c, err)
		return
	}

	listing, err := h.listings.UpdateListing(c.Request.Context(), key, actor.CompanyID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingUpdated),
		"listing": listing,
	})
}
