// Package identity is the account backend behind the auth service: local
// email and password accounts, federated sign-in and password resets.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/monthly-attendance/internal/application"
	"github.com/example/monthly-attendance/internal/persistence"
)

const defaultResetTokenTTL = time.Hour

// Config holds the Provider settings.
type Config struct {
	// ResetSecret signs password reset tokens. It must not be empty.
	ResetSecret []byte
	// ResetTokenTTL defaults to one hour.
	ResetTokenTTL time.Duration
	// ResetURL is the page that completes a reset; the token is appended as a query parameter.
	ResetURL       string
	PasswordParams Argon2idParams
	Now            func() time.Time
	NewID          func() string
}

// Provider implements application.IdentityProvider on top of a user repository.
type Provider struct {
	users    persistence.UserRepository
	verifier TokenVerifier
	notifier ResetNotifier
	tokens   resetTokenCodec
	resetURL string
	params   Argon2idParams
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

var _ application.IdentityProvider = (*Provider)(nil)

// NewProvider constructs a Provider. A nil verifier disables federated
// sign-in; a nil notifier logs reset links.
func NewProvider(users persistence.UserRepository, verifier TokenVerifier, notifier ResetNotifier, cfg Config, logger *slog.Logger) (*Provider, error) {
	if users == nil {
		return nil, errors.New("identity: user repository is required")
	}
	if len(cfg.ResetSecret) == 0 {
		return nil, errors.New("identity: reset secret is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaultResetTokenTTL
	}
	if cfg.PasswordParams == (Argon2idParams{}) {
		cfg.PasswordParams = DefaultArgon2idParams
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	return &Provider{
		users:    users,
		verifier: verifier,
		notifier: notifier,
		tokens:   resetTokenCodec{secret: cfg.ResetSecret, ttl: cfg.ResetTokenTTL, now: cfg.Now},
		resetURL: cfg.ResetURL,
		params:   cfg.PasswordParams,
		now:      cfg.Now,
		newID:    cfg.NewID,
		logger:   logger.With("component", "identity"),
	}, nil
}

// SignUp creates a password account.
func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (application.User, error) {
	hash, err := HashPassword(password, p.params)
	if err != nil {
		return application.User{}, err
	}

	now := p.now().UTC()
	user := persistence.User{
		ID:           p.newID(),
		Email:        normalizeEmail(email),
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return application.User{}, mapPersistenceError(err)
	}
	return toApplicationUser(user), nil
}

// SignInWithPassword checks email and password. Unknown emails, accounts
// without a password and wrong passwords all yield ErrInvalidCredentials.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (application.User, error) {
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.User{}, application.ErrInvalidCredentials
		}
		return application.User{}, err
	}
	if err := p.checkPassword(user, password); err != nil {
		return application.User{}, err
	}
	return toApplicationUser(user), nil
}

// SignInWithFederatedToken verifies idToken and returns the linked account.
// An unknown subject is linked to the account with the same email, or a new
// account is provisioned. Both require a verified email.
func (p *Provider) SignInWithFederatedToken(ctx context.Context, idToken string) (application.User, error) {
	if p.verifier == nil {
		return application.User{}, fmt.Errorf("%w: federated sign-in disabled", application.ErrInvalidCredentials)
	}
	claims, err := p.verifier.Verify(ctx, idToken)
	if err != nil {
		return application.User{}, fmt.Errorf("%w: %v", application.ErrInvalidCredentials, err)
	}

	user, err := p.users.GetUserByFederatedSubject(ctx, claims.Subject)
	if err == nil {
		return toApplicationUser(user), nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return application.User{}, err
	}

	if !claims.EmailVerified {
		p.logger.WarnContext(ctx, "federated email not verified", "subject", claims.Subject)
		return application.User{}, fmt.Errorf("%w: email not verified", application.ErrInvalidCredentials)
	}

	now := p.now().UTC()
	subject := claims.Subject
	user, err = p.users.GetUserByEmail(ctx, claims.Email)
	switch {
	case err == nil:
		user.FederatedSubject = &subject
		user.UpdatedAt = now
		if user.DisplayName == "" {
			user.DisplayName = claims.Name
		}
		if err := p.users.UpdateUser(ctx, user); err != nil {
			return application.User{}, mapPersistenceError(err)
		}
		p.logger.InfoContext(ctx, "federated identity linked", "user_id", user.ID)
	case errors.Is(err, persistence.ErrNotFound):
		user = persistence.User{
			ID:               p.newID(),
			Email:            normalizeEmail(claims.Email),
			DisplayName:      claims.Name,
			FederatedSubject: &subject,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := p.users.CreateUser(ctx, user); err != nil {
			return application.User{}, mapPersistenceError(err)
		}
		p.logger.InfoContext(ctx, "federated account provisioned", "user_id", user.ID)
	default:
		return application.User{}, err
	}
	return toApplicationUser(user), nil
}

// SendPasswordReset issues a reset token for email and hands it to the notifier.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		return mapPersistenceError(err)
	}

	token, expiresAt, err := p.tokens.issue(user.ID, user.PasswordHash)
	if err != nil {
		return err
	}
	return p.notifier.SendPasswordReset(ctx, PasswordReset{
		Email:     user.Email,
		Token:     token,
		Link:      resetLink(p.resetURL, token),
		ExpiresAt: expiresAt,
	})
}

// ConfirmPasswordReset sets newPassword for the user named by token. A token
// is rejected once the password it was issued for has changed.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := p.tokens.parse(token)
	if err != nil {
		return fmt.Errorf("%w: %v", application.ErrInvalidResetToken, err)
	}

	user, err := p.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.ErrInvalidResetToken
		}
		return err
	}
	if claims.Fingerprint != passwordFingerprint(user.PasswordHash) {
		return fmt.Errorf("%w: token already used", application.ErrInvalidResetToken)
	}
	return p.setPassword(ctx, user, newPassword)
}

// Reauthenticate confirms that password is the user's current password.
func (p *Provider) Reauthenticate(ctx context.Context, userID, password string) error {
	user, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return mapPersistenceError(err)
	}
	return p.checkPassword(user, password)
}

// UpdatePassword replaces the user's password.
func (p *Provider) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	user, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return mapPersistenceError(err)
	}
	return p.setPassword(ctx, user, newPassword)
}

// LookupUser returns the account with userID.
func (p *Provider) LookupUser(ctx context.Context, userID string) (application.User, error) {
	user, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return application.User{}, mapPersistenceError(err)
	}
	return toApplicationUser(user), nil
}

func (p *Provider) checkPassword(user persistence.User, password string) error {
	if user.PasswordHash == "" {
		return application.ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return application.ErrInvalidCredentials
		}
		return fmt.Errorf("verify password for %s: %w", user.ID, err)
	}
	return nil
}

func (p *Provider) setPassword(ctx context.Context, user persistence.User, password string) error {
	hash, err := HashPassword(password, p.params)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = p.now().UTC()
	if err := p.users.UpdateUser(ctx, user); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrAlreadyExists):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	}
	return err
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
