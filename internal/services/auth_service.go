package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicelink/internal/caching"
	"invoicelink/internal/metrics"
	"invoicelink/internal/models"
	"invoicelink/internal/repositories"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "invoicelink"

// AuthService owns the session lifecycle: Login builds a session, Restore
// turns a bearer token back into one and Logout tears it down.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	Restore(ctx context.Context, token string) (*models.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type AuthOptions struct {
	Secret     string
	JWKSURL    string
	SessionTTL time.Duration
	AdminEmail string

	LoginAttempts int
	LoginWindow   time.Duration
}

type SessionClaims struct {
	AccountID string `json:"account_id"`
	SessionID string `json:"sid"`
	Admin     bool   `json:"admin"`
	jwt.RegisteredClaims
}

type authService struct {
	accounts repositories.AccountRepository
	cache    caching.CacheService
	clock    clockwork.Clock
	metrics  metrics.Metrics
	log      zerolog.Logger
	opts     AuthOptions
	secret   []byte
	jwks     *keyfunc.JWKS
}

func NewAuthService(accounts repositories.AccountRepository, cache caching.CacheService, clock clockwork.Clock, m metrics.Metrics, log zerolog.Logger, opts AuthOptions) (AuthService, error) {
	if opts.Secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.LoginAttempts <= 0 {
		opts.LoginAttempts = 5
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = 15 * time.Minute
	}
	opts.AdminEmail = models.NormalizeEmail(opts.AdminEmail)

	s := &authService{
		accounts: accounts,
		cache:    cache,
		clock:    clock,
		metrics:  m,
		log:      log.With().Str("component", "auth").Logger(),
		opts:     opts,
		secret:   []byte(opts.Secret),
	}

	if opts.JWKSURL != "" {
		jwks, err := keyfunc.Get(opts.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				s.log.Warn().Err(err).Msg("failed to refresh JWKS")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS from %s: %w", opts.JWKSURL, err)
		}
		s.jwks = jwks
	}
	return s, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("email", "email and password are required")
	}

	limited, err := s.cache.IsRateLimited(ctx, "login:"+email, s.opts.LoginAttempts, s.opts.LoginWindow)
	if err != nil {
		// Fail open when the limiter store is down.
		s.log.Warn().Err(err).Msg("rate limiter unavailable")
		limited = false
	}
	if limited {
		s.metrics.IncLogin("rate_limited")
		return nil, models.ErrTooManyAttempts
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.IncLogin("invalid")
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		s.metrics.IncLogin("invalid")
		return nil, models.ErrInvalidCredentials
	}

	admin := acc.Email == s.opts.AdminEmail
	if acc.SubscriptionStatus == models.StatusPending && !admin {
		s.metrics.IncLogin("pending")
		return nil, models.ErrPendingApproval
	}

	now := s.clock.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		Account:   acc,
		IsAdmin:   admin,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.opts.SessionTTL),
	}

	token, err := s.sign(session)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSession(ctx, session, s.opts.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.cache.ResetRateLimit(ctx, "login:"+email); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login rate limit")
	}

	s.metrics.IncLogin("ok")
	s.log.Info().Str("account_id", acc.ID.String()).Bool("admin", admin).Msg("signed in")
	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.opts.SessionTTL.Seconds()),
		SessionID:   session.ID,
		AccountID:   acc.ID.String(),
		IsAdmin:     admin,
		IssuedAt:    now,
	}, nil
}

func (s *authService) sign(session *models.Session) (string, error) {
	claims := SessionClaims{
		AccountID: session.Account.ID.String(),
		SessionID: session.ID,
		Admin:     session.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   session.Account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			ID:        session.ID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// keyFor resolves the verification key. HMAC tokens are ours; anything else
// must be signed by a key published in the configured JWKS.
func (s *authService) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		return s.secret, nil
	}
	if s.jwks != nil {
		return s.jwks.Keyfunc(token)
	}
	return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
}

func (s *authService) parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFor,
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, models.ErrSessionNotFound
	}
	if claims.SessionID == "" {
		return nil, models.ErrSessionNotFound
	}
	return claims, nil
}

func (s *authService) Restore(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.cache.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Account == nil || session.Account.ID.String() != claims.AccountID {
		return nil, models.ErrSessionNotFound
	}

	// The stored snapshot may be stale after an admin action.
	acc, err := s.accounts.GetByID(ctx, session.Account.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = s.cache.DeleteSession(ctx, session.ID)
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}
	if acc.Version != session.Account.Version {
		session.Account = acc
		if ttl := session.ExpiresAt.Sub(s.clock.Now()); ttl > 0 {
			if err := s.cache.SetSession(ctx, session, ttl); err != nil {
				s.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to refresh session")
			}
		}
	}
	return session, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return models.ErrSessionNotFound
	}
	return s.cache.DeleteSession(ctx, sessionID)
}
