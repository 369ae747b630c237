package handler

import (
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

const stripeSignatureHeader = "Stripe-Signature"

type StripeHandler struct {
	checkout   service.CheckoutService
	reconciler service.PaymentReconciler
}

func NewStripeHandler(checkout service.CheckoutService, reconciler service.PaymentReconciler) *StripeHandler {
	return &StripeHandler{checkout: checkout, reconciler: reconciler}
}

func (h *StripeHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("stripe/session", h.CreateSession)
		router.POST("stripe/webhook", h.Webhook)
	}
}

func (h *StripeHandler) CreateSession(c *gin.Context) {
	var req model.CheckoutRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	session, err := h.checkout.CreateStripeSession(c.Request.Context(), req.BookingID)
	if err != nil {
		handleError(c, err, "CreateStripeSession")
		return
	}
	handleSuccess(c, session, http.StatusCreated)
}

// Webhook 簽章驗證需要原始 body，不能先經過 JSON 綁定
func (h *StripeHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	err = h.reconciler.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		handleError(c, err, "StripeWebhook")
		return
	}
	handleSuccess(c, nil, http.StatusNoContent)
}
