package handler

import (
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type BookingSeatHandler struct {
	service service.ReservationService
}

func NewBookingSeatHandler(service service.ReservationService) *BookingSeatHandler {
	return &BookingSeatHandler{service: service}
}

func (h *BookingSeatHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("booking-seats", h.ReserveSeat)
		router.GET("booking-seats/:id", h.GetBookingSeat)
		router.PATCH("booking-seats/:id", h.UpdateBookingSeat)
	}
}

type bookingSeatUri struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

func (h *BookingSeatHandler) ReserveSeat(c *gin.Context) {
	var req model.ReserveSeatRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	seat, err := h.service.ReserveSeat(c.Request.Context(), req)
	if err != nil {
		handleError(c, err, "ReserveSeat")
		return
	}
	handleSuccess(c, seat, http.StatusCreated)
}

func (h *BookingSeatHandler) GetBookingSeat(c *gin.Context) {
	var uri bookingSeatUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	seat, err := h.service.GetBookingSeat(c.Request.Context(), uri.ID)
	if err != nil {
		handleError(c, err, "GetBookingSeat")
		return
	}
	handleSuccess(c, seat, http.StatusOK)
}

func (h *BookingSeatHandler) UpdateBookingSeat(c *gin.Context) {
	var uri bookingSeatUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var req model.UpdateBookingSeatRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	seat, err := h.service.UpdateBookingSeat(c.Request.Context(), uri.ID, req)
	if err != nil {
		handleError(c, err, "UpdateBookingSeat")
		return
	}
	handleSuccess(c, seat, http.StatusOK)
}
