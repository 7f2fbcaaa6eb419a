package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/monthly-attendance/internal/validation"
)

const (
	msgEmailRequired           = "email is required"
	msgEmailInvalid            = "email is invalid"
	msgPasswordRequired        = "password is required"
	msgPasswordWeak            = "password must be 8-30 characters, include at least one uppercase letter, one lowercase letter, and one number"
	msgPasswordMismatch        = "passwords do not match"
	msgCurrentPasswordRequired = "current password is required"
	msgCurrentPasswordWrong    = "current password is incorrect"
	msgResetTokenRequired      = "reset token is required"
)

// IdentityProvider is the external account system. Every verb may fail with a
// provider error; callers translate the sentinel errors they understand.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, displayName string) (User, error)
	SignInWithPassword(ctx context.Context, email, password string) (User, error)
	SignInWithFederatedToken(ctx context.Context, idToken string) (User, error)
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	Reauthenticate(ctx context.Context, userID, password string) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
	LookupUser(ctx context.Context, userID string) (User, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthService wraps the identity provider and issues server-side sessions.
type AuthService struct {
	identity       IdentityProvider
	sessions       SessionRepository
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(identity IdentityProvider, sessions SessionRepository, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(identity, sessions, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(identity IdentityProvider, sessions SessionRepository, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		identity:       identity,
		sessions:       sessions,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.identity == nil {
		return fmt.Errorf("identity provider not configured")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// validateNewPassword checks a new password and its confirmation under the given field names.
func validateNewPassword(vErr *ValidationError, passwordField, confirmField, password, confirm string) {
	switch {
	case password == "":
		vErr.add(passwordField, msgPasswordRequired)
	case !validation.ValidPassword(password):
		vErr.add(passwordField, msgPasswordWeak)
	}
	if confirm != password {
		vErr.add(confirmField, msgPasswordMismatch)
	}
}

// SignUp registers a new account. No session is issued; the user signs in afterwards.
func (s *AuthService) SignUp(ctx context.Context, params SignUpParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "SignUp", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "sign up failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "account created")
	}()

	vErr := &ValidationError{}
	switch {
	case email == "":
		vErr.add("email", msgEmailRequired)
	case !validation.ValidEmail(email):
		vErr.add("email", msgEmailInvalid)
	}
	validateNewPassword(vErr, "password", "confirm_password", params.Password, params.ConfirmPassword)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	user, err = s.identity.SignUp(ctx, email, params.Password, strings.TrimSpace(params.DisplayName))
	return
}

// Authenticate validates email and password credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user User
	user, err = s.identity.SignInWithPassword(ctx, email, params.Password)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	result, err = s.issueSession(ctx, user, params.Fingerprint)
	return
}

// AuthenticateFederated signs in with an ID token from the federated provider and issues a session.
func (s *AuthService) AuthenticateFederated(ctx context.Context, params FederatedAuthenticateParams) (result AuthenticateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	token := strings.TrimSpace(params.IDToken)
	logger := s.loggerWith(ctx, "AuthenticateFederated", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "federated authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "federated authentication succeeded")
	}()

	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	var user User
	user, err = s.identity.SignInWithFederatedToken(ctx, token)
	if err != nil {
		return
	}

	result, err = s.issueSession(ctx, user, params.Fingerprint)
	return
}

func (s *AuthService) issueSession(ctx context.Context, user User, fingerprint string) (AuthenticateResult, error) {
	now := s.now()
	id := s.tokenGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	session := Session{
		ID:          id,
		UserID:      user.ID,
		Token:       token,
		Fingerprint: strings.TrimSpace(fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}

	if s.sessions != nil {
		if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return AuthenticateResult{}, err
		}

		persisted, err := s.sessions.CreateSession(ctx, session)
		if err != nil {
			return AuthenticateResult{}, err
		}
		session = persisted
	}

	return AuthenticateResult{User: user, Session: session}, nil
}

// RefreshSession rotates an existing session token, extending its validity window.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	token := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "RefreshSession",
		"token_provided", token != "",
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"session_id", result.Session.ID,
			"user_id", result.Session.UserID,
		).InfoContext(ctx, "session refreshed")
	}()

	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.activeSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	now := s.now()
	if newToken := s.tokenGenerator(); newToken != "" {
		session.Token = newToken
	}
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if fp := strings.TrimSpace(params.Fingerprint); fp != "" {
		session.Fingerprint = fp
	}

	session, err = s.sessions.UpdateSession(ctx, session)
	if err != nil {
		return
	}

	result = RefreshSessionResult{Session: session}
	return
}

// activeSession loads a session and rejects revoked or expired ones.
func (s *AuthService) activeSession(ctx context.Context, token string) (Session, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

// RevokeSession signs the session out.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", trimmed != "")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that the provided token corresponds to an active session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.activeSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	var user User
	user, err = s.identity.LookupUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = Principal{UserID: user.ID}
	return
}

// CurrentAuthState reports who, if anyone, holds token. Invalid, expired and
// revoked tokens read as signed out rather than as errors.
func (s *AuthService) CurrentAuthState(ctx context.Context, token string) (AuthState, error) {
	if err := s.ready(); err != nil {
		return AuthState{}, err
	}
	trimmed := strings.TrimSpace(token)
	if trimmed == "" || s.sessions == nil {
		return AuthState{}, nil
	}

	session, err := s.activeSession(ctx, trimmed)
	if err != nil {
		if isSignedOut(err) {
			return AuthState{}, nil
		}
		return AuthState{}, err
	}

	user, err := s.identity.LookupUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthState{}, nil
		}
		return AuthState{}, err
	}
	return AuthState{CurrentUser: &user, LoggedIn: true}, nil
}

func isSignedOut(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionRevoked)
}

// RequestPasswordReset asks the provider to send a reset link. Unknown
// addresses succeed silently so the endpoint cannot be used to probe accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	normalized := normalizeEmail(email)
	logger := s.loggerWith(ctx, "RequestPasswordReset", "email", normalized)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password reset request failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password reset requested")
	}()

	vErr := &ValidationError{}
	switch {
	case normalized == "":
		vErr.add("email", msgEmailRequired)
	case !validation.ValidEmail(normalized):
		vErr.add("email", msgEmailInvalid)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if sendErr := s.identity.SendPasswordReset(ctx, normalized); sendErr != nil {
		if errors.Is(sendErr, ErrNotFound) {
			logger.WarnContext(ctx, "password reset requested for unknown email")
			return nil
		}
		err = sendErr
	}
	return
}

// ConfirmPasswordReset sets a new password using a reset token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, params ConfirmPasswordResetParams) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	token := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "ConfirmPasswordReset", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password reset failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password reset completed")
	}()

	vErr := &ValidationError{}
	if token == "" {
		vErr.add("token", msgResetTokenRequired)
	}
	validateNewPassword(vErr, "new_password", "confirm_password", params.NewPassword, params.ConfirmPassword)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.identity.ConfirmPasswordReset(ctx, token, params.NewPassword)
	return
}

// UpdatePassword reauthenticates the signed-in user with their current password and sets a new one.
func (s *AuthService) UpdatePassword(ctx context.Context, params UpdatePasswordParams) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	userID := params.Principal.UserID
	logger := s.loggerWith(ctx, "UpdatePassword", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "password update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password updated")
	}()

	if userID == "" {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if params.CurrentPassword == "" {
		vErr.add("current_password", msgCurrentPasswordRequired)
	}
	validateNewPassword(vErr, "new_password", "confirm_password", params.NewPassword, params.ConfirmPassword)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if authErr := s.identity.Reauthenticate(ctx, userID, params.CurrentPassword); authErr != nil {
		if errors.Is(authErr, ErrInvalidCredentials) {
			vErr.add("current_password", msgCurrentPasswordWrong)
			err = vErr
			return
		}
		err = authErr
		return
	}

	err = s.identity.UpdatePassword(ctx, userID, params.NewPassword)
	return
}
