package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/monthly-attendance/internal/application"
)

// ServiceFactory builds application services on a shared test clock and
// token sequence.
type ServiceFactory struct {
	Clock  *Clock
	Tokens *TokenSequence
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:  NewClock(time.Time{}),
		Tokens: NewTokenSequence(""),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Tokens == nil {
		factory.Tokens = NewTokenSequence("")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithTokens overrides the session token sequence.
func WithTokens(tokens *TokenSequence) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Tokens = tokens
	}
}

// AttendanceServiceDeps captures dependencies for constructing an attendance service.
type AttendanceServiceDeps struct {
	Records   application.AttendanceRepository
	CacheSize int
	Location  *time.Location
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewAttendanceService builds an attendance service using the supplied
// dependencies combined with the factory clock.
func (f *ServiceFactory) NewAttendanceService(deps AttendanceServiceDeps) (*application.AttendanceService, error) {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAttendanceServiceWithLogger(
		deps.Records,
		deps.CacheSize,
		deps.Location,
		now,
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Identity       application.IdentityProvider
	Sessions       application.SessionRepository
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	token := deps.TokenGenerator
	if token == nil {
		token = f.Tokens.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAuthServiceWithLogger(
		deps.Identity,
		deps.Sessions,
		token,
		now,
		deps.SessionTTL,
		deps.Logger,
	)
}
