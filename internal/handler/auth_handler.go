package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GoArmGo/PictureIt/internal/usecase"
)

// TokenCookieName имя cookie, в которой после входа отдаётся токен доступа
const TokenCookieName = "jwtToken"

type registerRequest struct {
	Username  string `json:"username" validate:"required,username"`
	Password  string `json:"password" validate:"required,min=10,max=256"`
	FirstName string `json:"firstName" validate:"required,max=256"`
	LastName  string `json:"lastName" validate:"required,max=256"`
	Email     string `json:"email" validate:"required,email,max=256"`
}

type registerResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AuthHandler обработчик регистрации и входа.
type AuthHandler struct {
	accounts   usecase.AccountUseCase
	production bool
	logger     *slog.Logger
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(accounts usecase.AccountUseCase, production bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, production: production, logger: logger}
}

// Register регистрирует нового пользователя.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, AuthBodyLimit, &req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validateRequest(req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}

	user, err := h.accounts.Register(r.Context(), usecase.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, registerResponse{
		Message: "Registered user successful!",
		ID:      user.ID.String(),
	}, h.logger)
}

// Login проверяет учётные данные и выдаёт токен в теле и в cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, AuthBodyLimit, &req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    result.AccessToken,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	respondWithJSON(w, http.StatusCreated, loginResponse{
		Message:     "User login successful!",
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
	}, h.logger)
}
