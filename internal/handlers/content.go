// internal/handlers/content.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/listing-studio/internal/models"
	"github.com/javajoker/listing-studio/internal/utils"
)

type ContentLister interface {
	ListForProduct(ctx context.Context, companyID, productID uuid.UUID, params utils.PaginationParams) ([]models.GeneratedContent, int64, error)
}

// ContentHandler exposes the generated assets library of a product.
type ContentHandler struct {
	contents ContentLister
}

func NewContentHandler(contents ContentLister) *ContentHandler {
	return &ContentHandler{contents: contents}
}

// GET /products/:id/content
func (h *ContentHandler) ListProductContent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	contents, total, err := h.contents.ListForProduct(c.Request.Context(), actor.CompanyID, productID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(contents, total, params)
	utils.PaginatedResponse(c, result)
}
