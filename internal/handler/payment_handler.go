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

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group("/api/v1", auth)
	{
		router.GET("payments", h.ListMine)
		router.POST("checkout/sessions", h.StartCheckout)
		router.POST("checkout/sessions/complete", h.CompleteCheckout)
	}
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	payments, err := h.service.ListMyPayments(c, middleware.UserID(c))
	if err != nil {
		h.handlePaymentError(c, err, "ListMyPayments")
		return
	}

	responses := make([]*model.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, toPaymentResponse(p))
	}
	respondSuccess(c, responses, http.StatusOK)
}

// StartCheckoutRequest 發起金流結帳請求
type StartCheckoutRequest struct {
	SessionID  int    `json:"session_id" binding:"required"`
	SuccessURL string `json:"success_url" binding:"required,url"`
	CancelURL  string `json:"cancel_url" binding:"required,url"`
}

// StartCheckoutResponse 回傳金流端轉址網址
type StartCheckoutResponse struct {
	CheckoutID  string `json:"checkout_id"`
	RedirectURL string `json:"redirect_url"`
}

func (h *PaymentHandler) StartCheckout(c *gin.Context) {
	var req StartCheckoutRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	checkout, err := h.service.StartSessionCheckout(c, middleware.UserID(c), req.SessionID, req.SuccessURL, req.CancelURL)
	if err != nil {
		h.handlePaymentError(c, err, "StartCheckout")
		return
	}

	respondSuccess(c, &StartCheckoutResponse{
		CheckoutID:  checkout.ID,
		RedirectURL: checkout.RedirectURL,
	}, http.StatusCreated)
}

// CompleteCheckoutRequest 付款完成回跳請求
type CompleteCheckoutRequest struct {
	CheckoutID string `json:"checkout_id" binding:"required"`
}

func (h *PaymentHandler) CompleteCheckout(c *gin.Context) {
	var req CompleteCheckoutRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	registration, err := h.service.CompleteSessionCheckout(c, middleware.UserID(c), req.CheckoutID)
	if err != nil {
		h.handlePaymentError(c, err, "CompleteCheckout")
		return
	}

	respondSuccess(c, toRegistrationResponse(registration), http.StatusCreated)
}

func toPaymentResponse(p *model.Payment) *model.PaymentResponse {
	paymentType := "session"
	if p.SessionBookID != nil {
		paymentType = "session_book"
	}
	return &model.PaymentResponse{
		ID:             p.ID,
		Amount:         p.Amount,
		Type:           paymentType,
		SessionBookID:  p.SessionBookID,
		RegistrationID: p.RegistrationID,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

func (h *PaymentHandler) handlePaymentError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		log.Warn("Session not found")
		respondError(c, http.StatusNotFound, err, "Session not found")
	case errors.Is(err, apperrors.ErrCheckoutNotFound):
		log.Warn("Checkout not found")
		respondError(c, http.StatusNotFound, err, "Checkout not found or expired")
	case errors.Is(err, apperrors.ErrSessionNotAvailable):
		log.Warn("Session not available")
		respondError(c, http.StatusConflict, err, "Session is not open for booking")
	case errors.Is(err, apperrors.ErrSessionFull):
		log.Warn("Session full")
		respondError(c, http.StatusConflict, err, "No spots left for this session")
	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		log.Warn("Already registered")
		respondError(c, http.StatusConflict, err, "Already registered for this session")
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		respondError(c, http.StatusForbidden, err, "Checkout belongs to another user")
	case errors.Is(err, apperrors.ErrGatewayRejected):
		log.Warn("Gateway rejected request")
		respondError(c, http.StatusBadGateway, err, "Payment provider rejected the request")
	case errors.Is(err, apperrors.ErrGatewayUnavailable):
		log.Warn("Gateway unavailable")
		respondError(c, http.StatusBadGateway, err, "Payment provider is unavailable")
	case errors.Is(err, apperrors.ErrConflict):
		log.Warn("Transaction conflict")
		respondError(c, http.StatusConflict, err, "Concurrent update, please retry")
	default:
		log.Error("Unexpected error")
		respondError(c, http.StatusInternalServerError, apperrors.ErrInternalServerError, "Internal server error")
	}
}
