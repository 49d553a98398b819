package model

import "time"

// SessionBook 課卡（預付堂數）模型
type SessionBook struct {
	ID                int        `json:"id" db:"id"`
	UserID            int        `json:"user_id" db:"user_id"`
	Name              string     `json:"name" db:"name"`
	TotalSessions     int        `json:"total_sessions" db:"total_sessions"`
	RemainingSessions int        `json:"remaining_sessions" db:"remaining_sessions"`
	Price             float64    `json:"price" db:"price"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// IsActive 檢查課卡於 asOf 時間點是否可用：尚有剩餘堂數且未過期
func (b *SessionBook) IsActive(asOf time.Time) bool {
	if b.RemainingSessions <= 0 {
		return false
	}
	if b.ExpiresAt != nil && !b.ExpiresAt.After(asOf) {
		return false
	}
	return true
}

// PurchaseSessionBookRequest 購買課卡請求
type PurchaseSessionBookRequest struct {
	Name          string     `json:"name" binding:"required"`
	TotalSessions int        `json:"total_sessions" binding:"required,min=1"`
	Price         float64    `json:"price" binding:"min=0"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// SessionBookResponse 課卡響應
type SessionBookResponse struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	TotalSessions     int     `json:"total_sessions"`
	RemainingSessions int     `json:"remaining_sessions"`
	Price             float64 `json:"price"`
	ExpiresAt         *string `json:"expires_at"`
	CreatedAt         string  `json:"created_at"`
	IsActive          bool    `json:"is_active"`
}
