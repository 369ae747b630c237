package handler

import (
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("bookings", h.ListBookings)
		router.GET("bookings/:id", h.GetBooking)
		router.POST("bookings", h.CreateBooking)
		router.PATCH("bookings/:id", h.UpdateBooking)
		router.POST("bookings/:id/cancel", h.CancelBooking)
		router.POST("bookings/:id/invoices", h.GenerateInvoice)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		handleError(c, err, "CreateBooking")
		return
	}
	handleSuccess(c, booking, http.StatusCreated)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, "GetBooking")
		return
	}
	handleSuccess(c, booking, http.StatusOK)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	var query model.ListBookingsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), query)
	if err != nil {
		handleError(c, err, "ListBookings")
		return
	}
	handleSuccess(c, bookings, http.StatusOK)
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.UpdateBooking(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err, "UpdateBooking")
		return
	}
	handleSuccess(c, booking, http.StatusOK)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, "CancelBooking")
		return
	}
	handleSuccess(c, booking, http.StatusOK)
}

// GenerateInvoice 依已預約的座位與折扣產生發票
func (h *BookingHandler) GenerateInvoice(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.service.GenerateInvoice(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, "GenerateInvoice")
		return
	}
	handleSuccess(c, invoice, http.StatusCreated)
}
