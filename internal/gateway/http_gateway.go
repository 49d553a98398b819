package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-gin-course-booking/config"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/pkg/logger"

	"go.uber.org/zap"
)

// HTTPPaymentGateway 金流服務的 REST client 實作
type HTTPPaymentGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPPaymentGateway(cfg *config.GatewayConfig) PaymentGateway {
	return &HTTPPaymentGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type createCheckoutRequest struct {
	LineItems  []LineItem        `json:"line_items"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type createRefundRequest struct {
	PaymentReference string   `json:"payment_reference"`
	Amount           *float64 `json:"amount,omitempty"`
}

func (g *HTTPPaymentGateway) CreateCheckout(ctx context.Context, items []LineItem, successURL, cancelURL string, metadata map[string]string) (*Checkout, error) {
	body := createCheckoutRequest{
		LineItems:  items,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata:   metadata,
	}

	var checkout Checkout
	if err := g.post(ctx, "/v1/checkouts", body, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

func (g *HTTPPaymentGateway) RetrieveCheckout(ctx context.Context, checkoutID string) (*CheckoutResult, error) {
	var result CheckoutResult
	if err := g.get(ctx, "/v1/checkouts/"+checkoutID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *HTTPPaymentGateway) CreateRefund(ctx context.Context, paymentRef string, amount *float64) (*Refund, error) {
	body := createRefundRequest{
		PaymentReference: paymentRef,
		Amount:           amount,
	}

	var refund Refund
	if err := g.post(ctx, "/v1/refunds", body, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (g *HTTPPaymentGateway) post(ctx context.Context, path string, body interface{}, target interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}
	return g.do(ctx, http.MethodPost, path, bytes.NewReader(jsonData), target)
}

func (g *HTTPPaymentGateway) get(ctx context.Context, path string, target interface{}) error {
	return g.do(ctx, http.MethodGet, path, nil, target)
}

func (g *HTTPPaymentGateway) do(ctx context.Context, method, path string, body io.Reader, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// 網路層失敗視為暫時性，可重試
		return fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperrors.ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if target == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("unmarshal gateway response: %w", err)
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// 參考無效、已退款等，重試不會成功
		logger.WithComponent("gateway").Warn("gateway rejected request",
			zap.String("path", path), zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return fmt.Errorf("%w: status %d", apperrors.ErrGatewayRejected, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", apperrors.ErrGatewayUnavailable, resp.StatusCode)
	}
}
