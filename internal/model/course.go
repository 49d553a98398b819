package model

import "time"

// Course 課程模型
type Course struct {
	ID              int        `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Description     *string    `json:"description,omitempty" db:"description"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	MaxParticipants int        `json:"max_participants" db:"max_participants"`
	Price           float64    `json:"price" db:"price"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateCourseRequest 創建課程請求
type CreateCourseRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     *string `json:"description"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1"`
	MaxParticipants int     `json:"max_participants" binding:"required,min=1"`
	Price           float64 `json:"price" binding:"min=0"`
	IsActive        *bool   `json:"is_active"`
}

type UpdateCourseParams struct {
	Name            *string
	Description     *string
	DurationMinutes *int
	MaxParticipants *int
	Price           *float64
	IsActive        *bool
}
