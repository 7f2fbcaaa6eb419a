package identity

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// PasswordReset is a reset link ready to be delivered.
type PasswordReset struct {
	Email     string
	Token     string
	Link      string
	ExpiresAt time.Time
}

// ResetNotifier delivers password reset links.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, reset PasswordReset) error
}

// LogNotifier writes reset links to the log. It is meant for development
// deployments without a mail relay.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendPasswordReset(ctx context.Context, reset PasswordReset) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "password reset link issued",
		"email", reset.Email,
		"link", reset.Link,
		"expires_at", reset.ExpiresAt,
	)
	return nil
}

// resetLink appends the token to base as the "token" query parameter.
func resetLink(base, token string) string {
	if base == "" {
		return token
	}
	u, err := url.Parse(base)
	if err != nil {
		return token
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
