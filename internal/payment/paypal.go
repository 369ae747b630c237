package payment

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go-gin-cinema-booking/pkg/money"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
)

const payPalVerificationSuccess = "SUCCESS"

type PayPalGatewayImpl struct {
	client    *paypal.Client
	webhookID string
}

func NewPayPalGateway(clientID, secret, webhookID string, sandbox bool, timeout time.Duration) (PayPalGateway, error) {
	apiBase := paypal.APIBaseLive
	if sandbox {
		apiBase = paypal.APIBaseSandBox
	}

	client, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	client.SetHTTPClient(&http.Client{Timeout: timeout})

	return &PayPalGatewayImpl{client: client, webhookID: webhookID}, nil
}

func (g *PayPalGatewayImpl) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*PayPalOrder, error) {
	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: currency,
			Value:    money.Format(amount),
		},
	}}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}

	out := &PayPalOrder{ID: order.ID}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			out.ApproveLink = link.Href
			break
		}
	}
	return out, nil
}

func (g *PayPalGatewayImpl) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/paypal/webhook", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	for _, name := range PayPalWebhookHeaders {
		req.Header.Set(name, headers.Get(name))
	}

	res, err := g.client.VerifyWebhookSignature(ctx, req, g.webhookID)
	if err != nil {
		return false, fmt.Errorf("paypal verify webhook signature: %w", err)
	}
	return res.VerificationStatus == payPalVerificationSuccess, nil
}
