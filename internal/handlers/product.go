// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/listing-studio/internal/utils"
)

type ProductHandler struct {
	products ProductReader
}

func NewProductHandler(products ProductReader) *ProductHandler {
	return &ProductHandler{products: products}
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), actor.CompanyID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}
