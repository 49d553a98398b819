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

type RegistrationHandler struct {
	service service.BookingService
}

func NewRegistrationHandler(service service.BookingService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

func (h *RegistrationHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc, adminOnly gin.HandlerFunc) {
	router := r.Group("/api/v1", auth)
	{
		router.GET("registrations", h.ListMine)
		router.POST("registrations", h.Create)
		router.PUT("registrations/:id/cancel", h.Cancel)
	}
	admin := r.Group("/api/v1/admin", auth, adminOnly)
	{
		admin.GET("registrations", h.ListAll)
		admin.PUT("registrations/:id/cancel", h.AdminCancel)
	}
}

// Create 直接預約。沒有金流參考：有課卡扣課卡，否則建立模擬付款
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req model.CreateRegistrationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	registration, err := h.service.Reserve(c, middleware.UserID(c), req.SessionID, "")
	if err != nil {
		h.handleRegistrationError(c, err, "CreateRegistration")
		return
	}

	respondSuccess(c, toRegistrationResponse(registration), http.StatusCreated)
}

func (h *RegistrationHandler) ListMine(c *gin.Context) {
	registrations, err := h.service.ListMyRegistrations(c, middleware.UserID(c))
	if err != nil {
		h.handleRegistrationError(c, err, "ListMyRegistrations")
		return
	}

	respondSuccess(c, toRegistrationResponses(registrations), http.StatusOK)
}

func (h *RegistrationHandler) ListAll(c *gin.Context) {
	var status *model.RegistrationStatus
	if raw := c.Query("status"); raw != "" {
		s := model.RegistrationStatus(raw)
		if s != model.RegistrationStatusConfirmed && s != model.RegistrationStatusCancelled {
			respondError(c, http.StatusBadRequest, apperrors.ErrInvalidInput, "Invalid registration status")
			return
		}
		status = &s
	}

	registrations, err := h.service.ListRegistrations(c, status)
	if err != nil {
		h.handleRegistrationError(c, err, "ListRegistrations")
		return
	}

	respondSuccess(c, toRegistrationResponses(registrations), http.StatusOK)
}

// CancelRegistrationResponse 取消響應：退款不阻塞取消，狀態另行回報
type CancelRegistrationResponse struct {
	Registration   *model.RegistrationResponse `json:"registration"`
	RefundQueued   bool                        `json:"refund_queued"`
	ManualRefund   bool                        `json:"manual_refund_required"`
	CreditRestored bool                        `json:"credit_restored"`
}

func (h *RegistrationHandler) Cancel(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Cancel(c, middleware.UserID(c), id)
	if err != nil {
		h.handleRegistrationError(c, err, "CancelRegistration")
		return
	}

	respondSuccess(c, toCancelResponse(result), http.StatusOK)
}

func (h *RegistrationHandler) AdminCancel(c *gin.Context) {
	id, ok := ParamInt(c, "id")
	if !ok {
		return
	}

	result, err := h.service.AdminCancel(c, id)
	if err != nil {
		h.handleRegistrationError(c, err, "AdminCancelRegistration")
		return
	}

	respondSuccess(c, toCancelResponse(result), http.StatusOK)
}

func toCancelResponse(result *service.CancelResult) *CancelRegistrationResponse {
	return &CancelRegistrationResponse{
		Registration:   toRegistrationResponse(result.Registration),
		RefundQueued:   result.RefundQueued,
		ManualRefund:   result.ManualRefundRequired,
		CreditRestored: result.CreditRestored,
	}
}

func toRegistrationResponse(r *model.Registration) *model.RegistrationResponse {
	resp := &model.RegistrationResponse{
		ID:            r.ID,
		SessionID:     r.SessionID,
		SessionBookID: r.SessionBookID,
		Status:        string(r.Status),
		RegisteredAt:  r.RegisteredAt.Format(time.RFC3339),
	}
	if r.CancelledAt != nil {
		resp.CancelledAt = r.CancelledAt.Format(time.RFC3339)
	}
	if r.Session != nil {
		resp.StartTime = r.Session.StartTime.Format(time.RFC3339)
		resp.EndTime = r.Session.EndTime.Format(time.RFC3339)
		if r.Session.Course != nil {
			resp.CourseName = r.Session.Course.Name
		}
	}
	return resp
}

func toRegistrationResponses(registrations []*model.Registration) []*model.RegistrationResponse {
	responses := make([]*model.RegistrationResponse, 0, len(registrations))
	for _, r := range registrations {
		responses = append(responses, toRegistrationResponse(r))
	}
	return responses
}

func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		log.Warn("Session not found")
		respondError(c, http.StatusNotFound, err, "Session not found")
	case errors.Is(err, apperrors.ErrRegistrationNotFound):
		log.Warn("Registration not found")
		respondError(c, http.StatusNotFound, err, "Registration not found")
	case errors.Is(err, apperrors.ErrSessionNotAvailable):
		log.Warn("Session not available")
		respondError(c, http.StatusConflict, err, "Session is not open for booking")
	case errors.Is(err, apperrors.ErrSessionFull):
		log.Warn("Session full")
		respondError(c, http.StatusConflict, err, "No spots left for this session")
	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		log.Warn("Already registered")
		respondError(c, http.StatusConflict, err, "Already registered for this session")
	case errors.Is(err, apperrors.ErrAlreadyCancelled):
		log.Warn("Already cancelled")
		respondError(c, http.StatusConflict, err, "Registration is already cancelled")
	case errors.Is(err, apperrors.ErrTooLateToCancel):
		log.Warn("Too late to cancel")
		respondError(c, http.StatusUnprocessableEntity, err, "Cancellation notice period has passed")
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		respondError(c, http.StatusForbidden, err, "Not your registration")
	case errors.Is(err, apperrors.ErrConflict):
		log.Warn("Transaction conflict")
		respondError(c, http.StatusConflict, err, "Concurrent update, please retry")
	default:
		log.Error("Unexpected error")
		respondError(c, http.StatusInternalServerError, apperrors.ErrInternalServerError, "Internal server error")
	}
}
