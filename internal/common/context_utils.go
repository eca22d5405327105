package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type contextKey string

const SessionKey contextKey = "session"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

func SendForbiddenError(c echo.Context) error {
	return c.JSON(http.StatusForbidden, CreateErrorResponse("FORBIDDEN", "Administrator access required", nil))
}

// SendDomainError maps service errors onto the error envelope. Anything it
// does not recognise is logged and reported as a server error.
func SendDomainError(c echo.Context, resource string, err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", verr.Fields))
	case errors.Is(err, models.ErrNotFound):
		return SendNotFoundError(c, resource)
	case errors.Is(err, models.ErrDuplicateBusiness):
		return c.JSON(http.StatusConflict, CreateErrorResponse("DUPLICATE_BUSINESS", err.Error(), nil))
	case errors.Is(err, models.ErrDuplicateEmail):
		return c.JSON(http.StatusConflict, CreateErrorResponse("DUPLICATE_EMAIL", err.Error(), nil))
	case errors.Is(err, models.ErrInvalidStateTransition):
		return c.JSON(http.StatusConflict, CreateErrorResponse("INVALID_STATE_TRANSITION", err.Error(), nil))
	case errors.Is(err, models.ErrConcurrentUpdate):
		return c.JSON(http.StatusConflict, CreateErrorResponse("CONCURRENT_UPDATE", "The record was changed by someone else, reload and try again", nil))
	case errors.Is(err, models.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("INVALID_AMOUNT", err.Error(), nil))
	case errors.Is(err, models.ErrValidationFailed):
		return c.JSON(http.StatusUnprocessableEntity, CreateErrorResponse("VALIDATION_ERROR", err.Error(), nil))
	case errors.Is(err, models.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, CreateErrorResponse("INVALID_CREDENTIALS", "Invalid email or password", nil))
	case errors.Is(err, models.ErrPendingApproval):
		return c.JSON(http.StatusForbidden, CreateErrorResponse("PENDING_APPROVAL", "Your account is pending approval", nil))
	case errors.Is(err, models.ErrTooManyAttempts):
		return c.JSON(http.StatusTooManyRequests, CreateErrorResponse("TOO_MANY_ATTEMPTS", err.Error(), nil))
	case errors.Is(err, models.ErrSessionNotFound):
		return SendUnauthorizedError(c)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return SendServerError(c, "The request could not be completed")
}

// ValidateUUID parses a path or body identifier.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid identifier", fieldName)
	}
	return id, nil
}

func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSessionFromContext returns the session placed on the request by the
// authentication middleware.
func GetSessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil && session.Account != nil
}

func GetAccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return session.Account.ID, true
}
