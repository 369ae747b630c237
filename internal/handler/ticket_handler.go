package handler

import (
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("tickets/verify", h.VerifyTicket)
	}
}

// VerifyTicket 入場驗票，成功不回傳內容
func (h *TicketHandler) VerifyTicket(c *gin.Context) {
	var req model.RedeemTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if _, err := h.service.RedeemTicket(c.Request.Context(), req.BarcodeValue); err != nil {
		handleError(c, err, "VerifyTicket")
		return
	}
	handleSuccess(c, nil, http.StatusNoContent)
}
