package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type productHandlers struct {
	svc    productService
	logger *log.Logger
}

func (h *productHandlers) list(c *gin.Context) {
	products, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("products: list error=%v", err)
		writeError(c, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *productHandlers) get(c *gin.Context) {
	id := c.Param("id")
	product, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(c, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Printf("products: get id=%s error=%v", id, err)
		writeError(c, http.StatusInternalServerError, "failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}
