package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cyberai/server/internal/models"
	"github.com/cyberai/server/internal/store"
)

const tokenLifetime = 24 * time.Hour

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if _, err := h.store.GetUserByUsername(req.Username); err == nil {
		h.writeError(w, http.StatusBadRequest, "Username is already taken")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to look up user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user, err := h.store.CreateUser(req.Username, string(hash))
	if err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := h.signToken(user.ID)
	if err != nil {
		h.logger.Error("failed to sign token", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		h.logger.Error("failed to look up user", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.signToken(user.ID)
	if err != nil {
		h.logger.Error("failed to sign token", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) signToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}
