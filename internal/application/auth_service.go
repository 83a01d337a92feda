package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AuthService authenticates administrators and manages their sessions.
// Sessions are opaque tokens persisted server side, checked against their TTL
// and revocation state on every validation.
type AuthService struct {
	admins      AdminStore
	sessions    SessionStore
	sessionTTL  time.Duration
	hashParams  HashParams
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// AuthServiceConfig wires the auth service dependencies.
type AuthServiceConfig struct {
	Admins      AdminStore
	Sessions    SessionStore
	SessionTTL  time.Duration
	HashParams  HashParams
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewAuthService constructs an AuthService. A zero SessionTTL defaults to 24
// hours.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	params := cfg.HashParams
	if params.KeyLength == 0 {
		params = DefaultHashParams
	}
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		admins:      cfg.Admins,
		sessions:    cfg.Sessions,
		sessionTTL:  ttl,
		hashParams:  params,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(cfg.Logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate checks the administrator's credentials and issues a session.
// Unknown accounts and wrong passwords both come back as
// ErrInvalidCredentials, so callers cannot enumerate which accounts exist.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (AuthenticateResult, error) {
	if s == nil || s.admins == nil || s.sessions == nil {
		return AuthenticateResult{}, fmt.Errorf("auth service not configured")
	}

	adminID := strings.TrimSpace(params.AdminID)
	vErr := &ValidationError{}
	if adminID == "" {
		vErr.add("admin_id", "administrator id is required")
	}
	if params.Password == "" {
		vErr.add("password", "password is required")
	}
	if vErr.HasErrors() {
		return AuthenticateResult{}, vErr
	}

	logger := s.loggerWith(ctx, "Authenticate", "admin_id", adminID)

	credentials, err := s.admins.GetAdminCredentials(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "login rejected", "error_kind", "invalid_credentials")
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "credential lookup failed", "error", err)
		return AuthenticateResult{}, err
	}

	if err := CheckPassword(credentials.PasswordHash, params.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.InfoContext(ctx, "login rejected", "error_kind", "invalid_credentials")
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "password verification failed", "error", err)
		return AuthenticateResult{}, err
	}

	issuedAt := s.now()
	session := Session{
		ID:        s.idGenerator(),
		AdminID:   credentials.Account.ID,
		Token:     s.idGenerator(),
		ExpiresAt: issuedAt.Add(s.sessionTTL),
		CreatedAt: issuedAt,
	}
	created, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		logger.ErrorContext(ctx, "session create failed", "error", err)
		return AuthenticateResult{}, err
	}

	logger.InfoContext(ctx, "administrator authenticated")
	return AuthenticateResult{Account: credentials.Account, Session: created}, nil
}

// ValidateSession resolves a token to its administrator principal. Expired
// and revoked sessions are distinguished so the HTTP layer can message them
// separately.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("auth service not configured")
	}
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return Principal{}, ErrSessionExpired
	}

	return Principal{AdminID: session.AdminID, IsAdmin: true}, nil
}

// RevokeSession invalidates a session token. Revoking an unknown token is
// reported as ErrNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth service not configured")
	}
	if token == "" {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "RevokeSession")
	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		logger.ErrorContext(ctx, "session revoke failed", "error", err)
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// EnsureAdmin creates the administrator account if it does not exist yet.
// Startup bootstrap; an existing account is left untouched, including its
// password.
func (s *AuthService) EnsureAdmin(ctx context.Context, adminID, displayName, password string) error {
	if s == nil || s.admins == nil {
		return fmt.Errorf("auth service not configured")
	}

	adminID = strings.TrimSpace(adminID)
	vErr := &ValidationError{}
	if adminID == "" {
		vErr.add("admin_id", "administrator id is required")
	}
	if password == "" {
		vErr.add("password", "password is required")
	}
	if vErr.HasErrors() {
		return vErr
	}

	logger := s.loggerWith(ctx, "EnsureAdmin", "admin_id", adminID)

	_, err := s.admins.GetAdminCredentials(ctx, adminID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		logger.ErrorContext(ctx, "credential lookup failed", "error", err)
		return err
	}

	hash, err := s.hashParams.Hash(password)
	if err != nil {
		logger.ErrorContext(ctx, "password hash failed", "error", err)
		return err
	}

	createdAt := s.now()
	account := AdminAccount{
		ID:          adminID,
		DisplayName: displayName,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := s.admins.CreateAdmin(ctx, account, hash); err != nil {
		logger.ErrorContext(ctx, "admin create failed", "error", err)
		return err
	}

	logger.InfoContext(ctx, "administrator account created")
	return nil
}

// PurgeExpiredSessions deletes sessions past their expiry. Intended for a
// periodic maintenance call from the composition root.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth service not configured")
	}
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}
