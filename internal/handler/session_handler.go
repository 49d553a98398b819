package handler

import (
	"errors"
	"net/http"
	"time"

	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/service"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	service service.CatalogService
}

func NewSessionHandler(service service.CatalogService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc, adminOnly gin.HandlerFunc) {
	router := r.Group("/api/v1", auth)
	{
		router.GET("sessions", h.List)
		router.GET("sessions/:id", h.Get)
	}
	admin := r.Group("/api/v1", auth, adminOnly)
	{
		admin.POST("sessions", h.Create)
		admin.PUT("sessions/:id", h.Update)
		admin.DELETE("sessions/:id", h.Delete)
	}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.CreateSession(c, &req)
	if err != nil {
		h.handleSessionError(c, err, "CreateSession")
		return
	}

	respondSuccess(c, toSessionResponse(created), http.StatusCreated)
}

func (h *SessionHandler) List(c *gin.Context) {
	var status *model.SessionStatus
	if raw := c.Query("status"); raw != "" {
		s := model.SessionStatus(raw)
		if !s.IsValid() {
			respondError(c, http.StatusBadRequest, apperrors.ErrInvalidInput, "Invalid session status")
			return
		}
		status = &s
	}

	sessions, err := h.service.ListSessions(c, status)
	if err != nil {
		h.handleSessionError(c, err, "ListSessions")
		return
	}

	responses := make([]*model.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, toSessionResponse(s))
	}
	respondSuccess(c, responses, http.StatusOK)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	session, err := h.service.GetSession(c, id)
	if err != nil {
		h.handleSessionError(c, err, "GetSession")
		return
	}

	respondSuccess(c, toSessionResponse(session), http.StatusOK)
}

// UpdateSessionRequest 更新場次請求，未帶的欄位不變
type UpdateSessionRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    *string    `json:"status"`
}

func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := &model.UpdateSessionParams{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Status != nil {
		s := model.SessionStatus(*req.Status)
		params.Status = &s
	}

	updated, err := h.service.UpdateSession(c, id, params)
	if err != nil {
		h.handleSessionError(c, err, "UpdateSession")
		return
	}

	respondSuccess(c, toSessionResponse(updated), http.StatusOK)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteSession(c, id); err != nil {
		h.handleSessionError(c, err, "DeleteSession")
		return
	}

	respondSuccess(c, nil, http.StatusNoContent)
}

func toSessionResponse(s *model.Session) *model.SessionResponse {
	resp := &model.SessionResponse{
		ID:             s.ID,
		CourseID:       s.CourseID,
		StartTime:      s.StartTime.Format(time.RFC3339),
		EndTime:        s.EndTime.Format(time.RFC3339),
		AvailableSpots: s.AvailableSpots,
		Status:         string(s.Status),
	}
	if s.Course != nil {
		resp.CourseName = s.Course.Name
		resp.Price = s.Course.Price
	}
	return resp
}

func (h *SessionHandler) handleSessionError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		log.Warn("Session not found")
		respondError(c, http.StatusNotFound, err, "Session not found")
	case errors.Is(err, apperrors.ErrCourseNotFound):
		log.Warn("Course not found")
		respondError(c, http.StatusNotFound, err, "Course not found")
	case errors.Is(err, apperrors.ErrHasRegistrations):
		log.Warn("Session has registrations")
		respondError(c, http.StatusConflict, err, "Session has registrations")
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		respondError(c, http.StatusBadRequest, err, "Invalid input")
	default:
		log.Error("Unexpected error")
		respondError(c, http.StatusInternalServerError, apperrors.ErrInternalServerError, "Internal server error")
	}
}
