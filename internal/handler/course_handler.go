package handler

import (
	"errors"
	"net/http"

	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/service"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CourseHandler struct {
	service service.CatalogService
}

func NewCourseHandler(service service.CatalogService) *CourseHandler {
	return &CourseHandler{service: service}
}

// RegisterRoutes 查詢開放給所有已登入使用者，維護操作限管理者
func (h *CourseHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc, adminOnly gin.HandlerFunc) {
	router := r.Group("/api/v1", auth)
	{
		router.GET("courses", h.List)
		router.GET("courses/:id", h.Get)
	}
	admin := r.Group("/api/v1", auth, adminOnly)
	{
		admin.POST("courses", h.Create)
		admin.PUT("courses/:id", h.Update)
		admin.DELETE("courses/:id", h.Delete)
	}
}

func (h *CourseHandler) Create(c *gin.Context) {
	var req model.CreateCourseRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.CreateCourse(c, &req)
	if err != nil {
		h.handleCourseError(c, err, "CreateCourse")
		return
	}

	respondSuccess(c, created, http.StatusCreated)
}

func (h *CourseHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	courses, err := h.service.ListCourses(c, includeInactive)
	if err != nil {
		h.handleCourseError(c, err, "ListCourses")
		return
	}

	respondSuccess(c, courses, http.StatusOK)
}

func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	course, err := h.service.GetCourse(c, id)
	if err != nil {
		h.handleCourseError(c, err, "GetCourse")
		return
	}

	respondSuccess(c, course, http.StatusOK)
}

// UpdateCourseRequest 更新課程請求，未帶的欄位不變
type UpdateCourseRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	DurationMinutes *int     `json:"duration_minutes"`
	MaxParticipants *int     `json:"max_participants"`
	Price           *float64 `json:"price"`
	IsActive        *bool    `json:"is_active"`
}

func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	var req UpdateCourseRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := &model.UpdateCourseParams{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price,
		IsActive:        req.IsActive,
	}

	updated, err := h.service.UpdateCourse(c, id, params)
	if err != nil {
		h.handleCourseError(c, err, "UpdateCourse")
		return
	}

	respondSuccess(c, updated, http.StatusOK)
}

func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCourse(c, id); err != nil {
		h.handleCourseError(c, err, "DeleteCourse")
		return
	}

	respondSuccess(c, nil, http.StatusNoContent)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrCourseNotFound):
		log.Warn("Course not found")
		respondError(c, http.StatusNotFound, err, "Course not found")
	case errors.Is(err, apperrors.ErrHasSessions):
		log.Warn("Course has sessions")
		respondError(c, http.StatusConflict, err, "Course still has sessions")
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		respondError(c, http.StatusBadRequest, err, "Invalid input")
	default:
		log.Error("Unexpected error")
		respondError(c, http.StatusInternalServerError, apperrors.ErrInternalServerError, "Internal server error")
	}
}
