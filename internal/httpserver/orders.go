package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type orderHandlers struct {
	svc    orderService
	logger *log.Logger
}

func (h *orderHandlers) create(c *gin.Context) {
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(c, http.StatusBadRequest, ve.Message)
			return
		}
		h.logger.Printf("orders: create error=%v", err)
		writeError(c, http.StatusInternalServerError, "failed to create order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *orderHandlers) history(c *gin.Context) {
	orders, err := h.svc.History(c.Request.Context())
	if err != nil {
		h.logger.Printf("orders: history error=%v", err)
		writeError(c, http.StatusInternalServerError, "failed to fetch order history")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *orderHandlers) get(c *gin.Context) {
	id := c.Param("id")
	order, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(c, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Printf("orders: get id=%s error=%v", id, err)
		writeError(c, http.StatusInternalServerError, "failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
