package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/golinks-console/pkg/config"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	users       ports.UserRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
	adminEmails []string
	now         func() time.Time
}

func NewAuthHandler(cfg *config.Config, users ports.UserRepository) *AuthHandler {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthHandler{
		users:       users,
		jwtSecret:   []byte(cfg.JWTSecret),
		tokenTTL:    ttl,
		adminEmails: cfg.AdminEmails,
		now:         time.Now,
	}
}

// Register creates an account. The first account, and any listed in
// ADMIN_EMAILS, is an admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	if err := creds.Validate(true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, _, err := h.users.GetUserByEmail(r.Context(), creds.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	count, err := h.users.CountUsers(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := &domain.User{Email: creds.Email, Role: domain.RoleUser, IsActive: true}
	if count == 0 || h.isAdminEmail(creds.Email) {
		user.Role = domain.RoleAdmin
	}
	if err := h.users.CreateUser(r.Context(), user, string(hash)); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.users.TouchLogin(r.Context(), user.ID); err != nil {
		log.Printf("Failed to record login for user %d: %v", user.ID, err)
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))

	user, hash, err := h.users.GetUserByEmail(r.Context(), creds.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	if err := h.users.TouchLogin(r.Context(), user.ID); err != nil {
		log.Printf("Failed to record login for user %d: %v", user.ID, err)
	}
	h.respondWithToken(w, http.StatusOK, user)
}

// Logout is a no-op: tokens are stateless and simply dropped by the client
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *domain.User) {
	token, err := h.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, status, domain.AuthResponse{Token: token, User: *user})
}

func (h *AuthHandler) issueToken(user *domain.User) (string, error) {
	now := h.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

func (h *AuthHandler) isAdminEmail(email string) bool {
	for _, allowed := range h.adminEmails {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}
