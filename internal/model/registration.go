package model

import "time"

// RegistrationStatus 報名狀態類型
type RegistrationStatus string

const (
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// Registration 報名模型
// SessionBookID 為 nil 表示直接付款；非 nil 表示以課卡扣抵
type Registration struct {
	ID            int                `json:"id" db:"id"`
	UserID        int                `json:"user_id" db:"user_id"`
	SessionID     int                `json:"session_id" db:"session_id"`
	SessionBookID *int               `json:"session_book_id,omitempty" db:"session_book_id"`
	Status        RegistrationStatus `json:"status" db:"status"`
	RegisteredAt  time.Time          `json:"registered_at" db:"registered_at"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`

	Session *Session `json:"session,omitempty" db:"-"`
}

// CreateRegistrationRequest 預約請求
type CreateRegistrationRequest struct {
	SessionID int `json:"session_id" binding:"required"`
}

// RegistrationResponse 報名響應
type RegistrationResponse struct {
	ID            int    `json:"id"`
	SessionID     int    `json:"session_id"`
	CourseName    string `json:"course_name,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	SessionBookID *int   `json:"session_book_id,omitempty"`
	Status        string `json:"status"`
	RegisteredAt  string `json:"registered_at"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
}
