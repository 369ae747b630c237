package handler

import (
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PayPalHandler struct {
	checkout   service.CheckoutService
	reconciler service.PaymentReconciler
}

func NewPayPalHandler(checkout service.CheckoutService, reconciler service.PaymentReconciler) *PayPalHandler {
	return &PayPalHandler{checkout: checkout, reconciler: reconciler}
}

func (h *PayPalHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("paypal/create-payment", h.CreatePayment)
		router.POST("paypal/webhook", h.Webhook)
	}
}

func (h *PayPalHandler) CreatePayment(c *gin.Context) {
	var req model.CheckoutRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	order, err := h.checkout.CreatePayPalOrder(c.Request.Context(), req.BookingID)
	if err != nil {
		handleError(c, err, "CreatePayPalOrder")
		return
	}
	handleSuccess(c, order, http.StatusCreated)
}

func (h *PayPalHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	if err := h.reconciler.HandlePayPalWebhook(c.Request.Context(), c.Request.Header, body); err != nil {
		handleError(c, err, "PayPalWebhook")
		return
	}
	handleSuccess(c, nil, http.StatusNoContent)
}
