package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/session"
	"github.com/boostgg/storefront/internal/users"
	"github.com/google/uuid"
)

type UserService interface {
	Register(ctx context.Context, email, password, displayName string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type AuthHandler struct {
	users    UserService
	sessions *session.Store
	sealer   *session.ResetSealer
	timeout  time.Duration
}

func NewAuthHandler(users UserService, sessions *session.Store, sealer *session.ResetSealer, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		sealer:   sealer,
		timeout:  timeout,
	}
}

type RegisterRequestDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequestDTO struct {
	Email string `json:"email"`
}

type ResetPasswordRequestDTO struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Email == "" || len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "invalid_credentials", "email is required and password must be at least 8 characters")
		return
	}

	user, err := h.users.Register(ctx, req.Email, req.Password, req.DisplayName)
	if errors.Is(err, users.ErrEmailTaken) {
		respondError(w, http.StatusConflict, "email_taken", "email already registered")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "registration failed")
		return
	}

	h.setSessionCookie(w, user)
	respondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "login failed")
		return
	}

	h.setSessionCookie(w, user)
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Clear(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ForgotPassword mints an encrypted reset token for the account. The token
// goes out by email; the response is the same whether the email exists or
// not.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ForgotPasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err == nil {
		token, sealErr := h.sealer.Seal(user.ID)
		if sealErr != nil {
			log.Printf("failed to seal reset token: %v", sealErr)
		} else {
			// TODO: deliver by email once the mailer lands; logged for now
			log.Printf("password reset token for %s: %s", user.Email, token)
		}
	} else if !errors.Is(err, users.ErrUserNotFound) {
		respondError(w, http.StatusInternalServerError, "internal_error", "could not process request")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "reset token sent if the account exists"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ResetPasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "invalid_password", "password must be at least 8 characters")
		return
	}

	userID, err := h.sealer.Open(req.Token)
	if errors.Is(err, session.ErrTokenExpired) {
		respondError(w, http.StatusGone, "token_expired", "reset token has expired")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_token", "reset token is invalid")
		return
	}

	if err := h.users.ChangePassword(ctx, userID, req.Password); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "could not update password")
		return
	}

	// Old sessions die with the old password
	h.sessions.ClearUser(userID)

	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, user *domain.User) {
	token := h.sessions.Create(user)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
