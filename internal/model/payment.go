package model

import (
	"strings"
	"time"
)

// SimulatedRefPrefix 未經金流結帳的付款以此前綴標記，退款時需人工處理
const SimulatedRefPrefix = "SIMULATED_"

// Payment 付款紀錄
// SessionBookID 與 RegistrationID 恰好一者非 nil：
// 前者為課卡購買付款，後者為單堂直接付款
type Payment struct {
	ID             int       `json:"id" db:"id"`
	UserID         int       `json:"user_id" db:"user_id"`
	Amount         float64   `json:"amount" db:"amount"`
	ExternalRef    string    `json:"external_ref" db:"external_ref"`
	SessionBookID  *int      `json:"session_book_id,omitempty" db:"session_book_id"`
	RegistrationID *int      `json:"registration_id,omitempty" db:"registration_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// HasRealExternalRef 外部參考是否為金流端的真實付款參考（可退款）
func (p *Payment) HasRealExternalRef() bool {
	return p.ExternalRef != "" && !strings.HasPrefix(p.ExternalRef, SimulatedRefPrefix)
}

// PaymentResponse 付款響應
type PaymentResponse struct {
	ID             int     `json:"id"`
	Amount         float64 `json:"amount"`
	Type           string  `json:"type"`
	SessionBookID  *int    `json:"session_book_id,omitempty"`
	RegistrationID *int    `json:"registration_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// RefundJob 退款工作：取消成功後發佈到退款隊列，由 worker 執行
type RefundJob struct {
	RegistrationID int     `json:"registration_id"`
	PaymentID      int     `json:"payment_id"`
	ExternalRef    string  `json:"external_ref"`
	Amount         float64 `json:"amount"`
	RequestedAt    int64   `json:"requested_at"`
}
