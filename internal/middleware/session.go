package middleware

import (
	"errors"

	"invoicelink/internal/common"
	"invoicelink/internal/models"
	"invoicelink/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// SessionAuth restores the caller's session from the bearer token and puts it
// on the request context. Requests without a live session get a 401.
func SessionAuth(authSvc services.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: string(common.SessionKey),
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return authSvc.Restore(c.Request().Context(), auth)
		},
		SuccessHandler: func(c echo.Context) {
			session, ok := c.Get(string(common.SessionKey)).(*models.Session)
			if !ok {
				return
			}
			c.SetRequest(c.Request().WithContext(common.WithSession(c.Request().Context(), session)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var parseErr *echojwt.TokenParsingError
			if errors.As(err, &parseErr) && !errors.Is(parseErr.Err, models.ErrSessionNotFound) {
				return common.SendDomainError(c, "session", parseErr.Err)
			}
			return common.SendUnauthorizedError(c)
		},
	})
}

// RequireAdmin lets only administrator sessions through.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := common.GetSessionFromContext(c.Request().Context())
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			if !session.IsAdmin {
				return common.SendForbiddenError(c)
			}
			return next(c)
		}
	}
}
