package handlers

import (
	"net/http"
	"time"

	"invoicelink/internal/common"
	"invoicelink/internal/services"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

// AuthHandlers handles registration and the session endpoints
type AuthHandlers struct {
	accountService services.AccountService
	authService    services.AuthService
	clock          clockwork.Clock
}

func NewAuthHandlers(accountService services.AccountService, authService services.AuthService, clock clockwork.Clock) *AuthHandlers {
	return &AuthHandlers{
		accountService: accountService,
		authService:    authService,
		clock:          clock,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the signed-in session.
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	User      *AccountView `json:"user"`
	IsAdmin   bool         `json:"is_admin"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Register handles POST /auth/register
//
//	@Summary	Register a business account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		services.RegisterRequest	true	"Registration"
//	@Success	201		{object}	AccountView
//	@Failure	409		{object}	common.ErrorResponse
//	@Failure	422		{object}	common.ErrorResponse
//	@Router		/auth/register [post]
func (h *AuthHandlers) Register(c echo.Context) error {
	var req services.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	acc, err := h.accountService.Register(c.Request().Context(), &req)
	if err != nil {
		return common.SendDomainError(c, "account", err)
	}
	return c.JSON(http.StatusCreated, newAccountView(acc, h.clock.Now()))
}

// Login handles POST /auth/login
//
//	@Summary	Sign in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LoginRequest	true	"Credentials"
//	@Success	200		{object}	models.TokenResponse
//	@Failure	401		{object}	common.ErrorResponse
//	@Failure	403		{object}	common.ErrorResponse
//	@Router		/auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return common.SendDomainError(c, "account", err)
	}
	return c.JSON(http.StatusOK, token)
}

// Logout handles POST /auth/logout
//
//	@Summary	Sign out
//	@Tags		auth
//	@Security	BearerAuth
//	@Success	204
//	@Router		/auth/logout [post]
func (h *AuthHandlers) Logout(c echo.Context) error {
	session, ok := common.GetSessionFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	if err := h.authService.Logout(c.Request().Context(), session.ID); err != nil {
		return common.SendDomainError(c, "session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /me
//
//	@Summary	Current session
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	SessionResponse
//	@Router		/me [get]
func (h *AuthHandlers) Me(c echo.Context) error {
	session, ok := common.GetSessionFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	return c.JSON(http.StatusOK, &SessionResponse{
		SessionID: session.ID,
		User:      newAccountView(session.Account, h.clock.Now()),
		IsAdmin:   session.IsAdmin,
		ExpiresAt: session.ExpiresAt,
	})
}

