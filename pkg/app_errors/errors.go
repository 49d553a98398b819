package apperrors

import "errors"

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotAvailable  = errors.New("session not available")
	ErrSessionFull          = errors.New("session full")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyCancelled     = errors.New("registration already cancelled")
	ErrForbidden            = errors.New("forbidden")
	ErrTooLateToCancel      = errors.New("too late to cancel")
	ErrSessionBookNotFound  = errors.New("session book not found")
	ErrSessionBookExhausted = errors.New("session book exhausted")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrHasRegistrations     = errors.New("session has registrations")
	ErrHasSessions          = errors.New("course has sessions")
	ErrCheckoutNotFound     = errors.New("pending checkout not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConflict             = errors.New("conflict, please retry")
	ErrGatewayRejected      = errors.New("payment gateway rejected the request")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrInternalServerError  = errors.New("internal server error")
)

// Code 回傳對應的穩定錯誤代碼，供 API 回應使用
func Code(err error) string {
	switch {
	case errors.Is(err, ErrCourseNotFound):
		return "course_not_found"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionNotAvailable):
		return "session_not_available"
	case errors.Is(err, ErrSessionFull):
		return "session_full"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrRegistrationNotFound):
		return "registration_not_found"
	case errors.Is(err, ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrTooLateToCancel):
		return "too_late_to_cancel"
	case errors.Is(err, ErrSessionBookNotFound):
		return "session_book_not_found"
	case errors.Is(err, ErrSessionBookExhausted):
		return "session_book_exhausted"
	case errors.Is(err, ErrPaymentNotFound):
		return "payment_not_found"
	case errors.Is(err, ErrHasRegistrations):
		return "has_registrations"
	case errors.Is(err, ErrHasSessions):
		return "has_sessions"
	case errors.Is(err, ErrCheckoutNotFound):
		return "checkout_not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrGatewayRejected):
		return "gateway_rejected"
	case errors.Is(err, ErrGatewayUnavailable):
		return "gateway_unavailable"
	default:
		return "internal_error"
	}
}
