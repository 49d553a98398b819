package handler

import (
	"errors"
	"net/http"
	"time"

	"go-gin-course-booking/internal/middleware"
	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/service"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionBookHandler struct {
	service service.SessionBookService
}

func NewSessionBookHandler(service service.SessionBookService) *SessionBookHandler {
	return &SessionBookHandler{service: service}
}

func (h *SessionBookHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group("/api/v1", auth)
	{
		router.GET("session-books", h.ListMine)
		router.GET("session-books/:id", h.Get)
		router.POST("session-books", h.Purchase)
	}
}

func (h *SessionBookHandler) Purchase(c *gin.Context) {
	var req model.PurchaseSessionBookRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	book, err := h.service.Purchase(c, middleware.UserID(c), &req, "")
	if err != nil {
		h.handleSessionBookError(c, err, "PurchaseSessionBook")
		return
	}

	respondSuccess(c, toSessionBookResponse(book), http.StatusCreated)
}

func (h *SessionBookHandler) ListMine(c *gin.Context) {
	books, err := h.service.ListMyBooks(c, middleware.UserID(c))
	if err != nil {
		h.handleSessionBookError(c, err, "ListMySessionBooks")
		return
	}

	responses := make([]*model.SessionBookResponse, 0, len(books))
	for _, b := range books {
		responses = append(responses, toSessionBookResponse(b))
	}
	respondSuccess(c, responses, http.StatusOK)
}

func (h *SessionBookHandler) Get(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	book, err := h.service.GetBook(c, middleware.UserID(c), id)
	if err != nil {
		h.handleSessionBookError(c, err, "GetSessionBook")
		return
	}

	respondSuccess(c, toSessionBookResponse(book), http.StatusOK)
}

func toSessionBookResponse(b *model.SessionBook) *model.SessionBookResponse {
	resp := &model.SessionBookResponse{
		ID:                b.ID,
		Name:              b.Name,
		TotalSessions:     b.TotalSessions,
		RemainingSessions: b.RemainingSessions,
		Price:             b.Price,
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
		IsActive:          b.IsActive(time.Now().UTC()),
	}
	if b.ExpiresAt != nil {
		s := b.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &s
	}
	return resp
}

func (h *SessionBookHandler) handleSessionBookError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSessionBookNotFound):
		log.Warn("Session book not found")
		respondError(c, http.StatusNotFound, err, "Session book not found")
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		respondError(c, http.StatusForbidden, err, "Not your session book")
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		respondError(c, http.StatusBadRequest, err, "Invalid input")
	default:
		log.Error("Unexpected error")
		respondError(c, http.StatusInternalServerError, apperrors.ErrInternalServerError, "Internal server error")
	}
}
