package gateway

import "context"

// LineItem 結帳品項
type LineItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	UnitAmount  float64 `json:"unit_amount"`
	Quantity    int     `json:"quantity"`
}

// Checkout 金流端建立的 hosted checkout
type Checkout struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

// CheckoutResult 結帳完成後取回的付款參考
type CheckoutResult struct {
	PaymentReference string `json:"payment_reference"`
}

// Refund 金流端的退款結果
type Refund struct {
	RefundID string `json:"refund_id"`
}

// PaymentGateway 抽象外部金流服務，隔離卡片付款的處理細節。
// 所有方法都可能回傳 ErrGatewayRejected（永久性失敗，需人工處理）
// 或 ErrGatewayUnavailable（暫時性失敗，可重試）
type PaymentGateway interface {
	// CreateCheckout 建立 hosted checkout，使用者將被導向 RedirectURL 完成付款
	CreateCheckout(ctx context.Context, items []LineItem, successURL, cancelURL string, metadata map[string]string) (*Checkout, error)
	// RetrieveCheckout 取回已完成 checkout 的付款參考
	RetrieveCheckout(ctx context.Context, checkoutID string) (*CheckoutResult, error)
	// CreateRefund 以付款參考發起退款，amount 為 nil 時全額退款
	CreateRefund(ctx context.Context, paymentRef string, amount *float64) (*Refund, error)
}
