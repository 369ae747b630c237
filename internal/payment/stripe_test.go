package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signStripePayload(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newTestStripeGateway() StripeGateway {
	return NewStripeGateway("sk_test_123", testWebhookSecret, "http://localhost/success", "http://localhost/cancel", time.Second)
}

func stripeEventPayload(eventType, body string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": "2024-06-20",
		"type": %q,
		"data": {"object": %s}
	}`, eventType, body))
}

func TestStripeGateway_ParseWebhook(t *testing.T) {
	gateway := newTestStripeGateway()

	t.Run("Success - intent succeeded", func(t *testing.T) {
		payload := stripeEventPayload(StripeEventPaymentIntentSucceeded,
			`{"id": "pi_123", "object": "payment_intent", "metadata": {"payment_id": "7"}}`)

		event, err := gateway.ParseWebhook(payload, signStripePayload(testWebhookSecret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_test_1", event.ID)
		assert.Equal(t, StripeEventPaymentIntentSucceeded, event.Type)
		assert.Equal(t, "pi_123", event.PaymentIntentID)
		assert.Equal(t, "7", event.PaymentID)
		assert.Empty(t, event.ErrorMessage)
	})

	t.Run("Success - intent failed carries error message", func(t *testing.T) {
		payload := stripeEventPayload(StripeEventPaymentIntentFailed,
			`{"id": "pi_456", "object": "payment_intent", "amount": 605, "currency": "eur",
			  "status": "requires_payment_method", "metadata": {"payment_id": "8"},
			  "last_payment_error": {"type": "card_error", "code": "card_declined",
			    "decline_code": "generic_decline", "message": "Your card was declined."}}`)

		event, err := gateway.ParseWebhook(payload, signStripePayload(testWebhookSecret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "pi_456", event.PaymentIntentID)
		assert.Equal(t, "8", event.PaymentID)
		assert.Equal(t, "Your card was declined.", event.ErrorMessage)
	})

	t.Run("Success - other event types are not decoded", func(t *testing.T) {
		payload := stripeEventPayload("charge.refunded", `{"id": "ch_1", "object": "charge"}`)

		event, err := gateway.ParseWebhook(payload, signStripePayload(testWebhookSecret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "charge.refunded", event.Type)
		assert.Empty(t, event.PaymentID)
	})

	t.Run("Failed - wrong secret", func(t *testing.T) {
		payload := stripeEventPayload(StripeEventPaymentIntentSucceeded, `{"id": "pi_123", "metadata": {}}`)

		_, err := gateway.ParseWebhook(payload, signStripePayload("whsec_other", payload, time.Now()))
		assert.Error(t, err)
	})

	t.Run("Failed - body mutated after signing", func(t *testing.T) {
		payload := stripeEventPayload(StripeEventPaymentIntentSucceeded, `{"id": "pi_123", "metadata": {"payment_id": "7"}}`)
		signature := signStripePayload(testWebhookSecret, payload, time.Now())

		mutated := stripeEventPayload(StripeEventPaymentIntentSucceeded, `{"id": "pi_123", "metadata": {"payment_id": "9"}}`)
		_, err := gateway.ParseWebhook(mutated, signature)
		assert.Error(t, err)
	})

	t.Run("Failed - stale timestamp", func(t *testing.T) {
		payload := stripeEventPayload(StripeEventPaymentIntentSucceeded, `{"id": "pi_123", "metadata": {}}`)

		_, err := gateway.ParseWebhook(payload, signStripePayload(testWebhookSecret, payload, time.Now().Add(-time.Hour)))
		assert.Error(t, err)
	})

	t.Run("Failed - missing header", func(t *testing.T) {
		payload := stripeEventPayload(StripeEventPaymentIntentSucceeded, `{"id": "pi_123", "metadata": {}}`)

		_, err := gateway.ParseWebhook(payload, "")
		assert.Error(t, err)
	})
}
