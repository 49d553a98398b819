package model

import "time"

// SessionStatus 場次狀態類型
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// Session 課程場次模型
// AvailableSpots 是反正規化的計數器，必須恆等於
// course.max_participants - 該場次 confirmed 報名數
type Session struct {
	ID             int           `json:"id" db:"id"`
	CourseID       int           `json:"course_id" db:"course_id"`
	StartTime      time.Time     `json:"start_time" db:"start_time"`
	EndTime        time.Time     `json:"end_time" db:"end_time"`
	AvailableSpots int           `json:"available_spots" db:"available_spots"`
	Status         SessionStatus `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`

	Course *Course `json:"course,omitempty" db:"-"`
}

// CreateSessionRequest 創建場次請求
type CreateSessionRequest struct {
	CourseID  int       `json:"course_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Status    string    `json:"status"`
}

// UpdateSessionParams 名額不在其列，只由預約流程增減
type UpdateSessionParams struct {
	StartTime *time.Time
	EndTime   *time.Time
	Status    *SessionStatus
}

// SessionResponse 場次響應
type SessionResponse struct {
	ID             int     `json:"id"`
	CourseID       int     `json:"course_id"`
	CourseName     string  `json:"course_name"`
	Price          float64 `json:"price"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	AvailableSpots int     `json:"available_spots"`
	Status         string  `json:"status"`
}
