package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/monthly-attendance/internal/application"
)

const sessionCookieName = "session_token"

type authService interface {
	SignUp(ctx context.Context, params application.SignUpParams) (application.User, error)
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	AuthenticateFederated(ctx context.Context, params application.FederatedAuthenticateParams) (application.AuthenticateResult, error)
	RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error)
	RevokeSession(ctx context.Context, token string) error
	CurrentAuthState(ctx context.Context, token string) (application.AuthState, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, params application.ConfirmPasswordResetParams) error
	UpdatePassword(ctx context.Context, params application.UpdatePasswordParams) error
}

// AuthHandler serves the account and session endpoints.
type AuthHandler struct {
	service      authService
	responder    responder
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandler constructs an AuthHandler. secureCookie controls the Secure
// attribute of the session cookie.
func NewAuthHandler(service authService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base, secureCookie: secureCookie}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// decode reads and validates the request body, answering the request itself on failure.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	err := decodeRequest(r, dst)
	if err == nil {
		return true
	}
	if isBadRequestBody(err) {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode request", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: errBadRequestBody.Error()})
		return false
	}
	h.log(r.Context(), operation, "error_kind", application.ErrorKind(err)).InfoContext(r.Context(), "request rejected", "error", err)
	h.responder.handleServiceError(r.Context(), w, err)
	return false
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req signUpRequest
	if !h.decode(w, r, "SignUp", &req) {
		return
	}

	user, err := h.service.SignUp(r.Context(), application.SignUpParams{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		DisplayName:     req.DisplayName,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "SignUp", "user_id", user.ID).InfoContext(r.Context(), "account created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req loginRequest
	if !h.decode(w, r, "Login", &req) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Email:       email,
		Password:    req.Password,
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		h.log(r.Context(), "Login", "email", email).InfoContext(r.Context(), "authentication rejected", "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.writeSession(w, r, "Login", result)
}

// LoginFederated handles POST /api/auth/login/federated.
func (h *AuthHandler) LoginFederated(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req federatedLoginRequest
	if !h.decode(w, r, "LoginFederated", &req) {
		return
	}

	result, err := h.service.AuthenticateFederated(r.Context(), application.FederatedAuthenticateParams{
		IDToken:     req.IDToken,
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		h.log(r.Context(), "LoginFederated").InfoContext(r.Context(), "federated authentication rejected", "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.writeSession(w, r, "LoginFederated", result)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, operation string, result application.AuthenticateResult) {
	h.setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.Session.Token)

	h.log(r.Context(), operation, "user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")

	user := toUserDTO(result.User)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339Nano),
		User:      &user,
	})
}

// Session handles GET /api/auth/session. Callers without a valid session
// receive logged_in=false rather than an error.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	state, err := h.service.CurrentAuthState(r.Context(), extractTokenFromRequest(r))
	if err != nil {
		h.log(r.Context(), "Session").ErrorContext(r.Context(), "failed to resolve auth state", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := authStateResponse{LoggedIn: state.LoggedIn}
	if state.CurrentUser != nil {
		user := toUserDTO(*state.CurrentUser)
		resp.User = &user
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	token := h.currentToken(r)
	if token == "" {
		h.log(r.Context(), "Logout", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing session token for logout")
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_UNAUTHORIZED",
			Message:   errMissingSessionToken.Error(),
		})
		return
	}

	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.clearSessionCookie(w)
	h.log(r.Context(), "Logout").InfoContext(r.Context(), "session revoked for current principal")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// RefreshSession handles POST /api/auth/session/refresh.
func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	result, err := h.service.RefreshSession(r.Context(), application.RefreshSessionParams{
		Token:       h.currentToken(r),
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.Session.Token)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

// RequestPasswordReset handles POST /api/auth/password-reset. The response
// is the same whether or not the address is registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req passwordResetRequest
	if !h.decode(w, r, "RequestPasswordReset", &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusAccepted, messageResponse{Message: msgResetRequested})
}

// ConfirmPasswordReset handles POST /api/auth/password-reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req confirmPasswordResetRequest
	if !h.decode(w, r, "ConfirmPasswordReset", &req) {
		return
	}

	err := h.service.ConfirmPasswordReset(r.Context(), application.ConfirmPasswordResetParams{
		Token:           req.Token,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: msgPasswordUpdated})
}

// UpdatePassword handles PUT /api/auth/password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req updatePasswordRequest
	if !h.decode(w, r, "UpdatePassword", &req) {
		return
	}

	err := h.service.UpdatePassword(r.Context(), application.UpdatePasswordParams{
		Principal:       principal,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: msgPasswordUpdated})
}

// currentToken prefers the token RequireSession already resolved.
func (h *AuthHandler) currentToken(r *http.Request) string {
	if token := sessionTokenFromContext(r.Context()); token != "" {
		return token
	}
	return extractTokenFromRequest(r)
}

type signUpRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	DisplayName     string `json:"display_name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type federatedLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type confirmPasswordResetRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName}
}

type sessionResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
	User      *userDTO `json:"user,omitempty"`
}

type authStateResponse struct {
	LoggedIn bool     `json:"logged_in"`
	User     *userDTO `json:"user,omitempty"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
