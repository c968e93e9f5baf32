package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
	"golang.org/x/crypto/bcrypt"
)

type AdminHandler struct {
	links ports.LinkRepository
	users ports.UserRepository
	now   func() time.Time
}

func NewAdminHandler(links ports.LinkRepository, users ports.UserRepository) *AdminHandler {
	return &AdminHandler{links: links, users: users, now: time.Now}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	q := r.URL.Query()
	filters := map[string]interface{}{
		"search": q.Get("search"),
		"role":   q.Get("role"),
		"status": q.Get("status"),
		"sortBy": q.Get("sortBy"),
	}

	users, err := h.users.ListUsers(r.Context(), pageSize, page*pageSize, filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	count, err := h.users.CountUsers(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for i := range users {
		stats, err := h.users.UserStats(r.Context(), users[i].ID)
		if err != nil {
			log.Printf("Failed to load stats for user %d: %v", users[i].ID, err)
			continue
		}
		users[i].Stats = stats
	}

	writeJSON(w, http.StatusOK, domain.ListResponse[domain.User]{
		Items:      users,
		TotalCount: int(count),
		HasMore:    int64((page+1)*pageSize) < count,
	})
}

// CreateUser adds an account on behalf of an admin
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &domain.User{Email: input.Email, Role: input.Role, IsActive: true}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if err := h.users.CreateUser(r.Context(), user, string(hash)); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("User %s created by admin %d", user.Email, currentUser(r).ID)
	writeJSON(w, http.StatusCreated, user)
}

// UpdateUser lets admins change anything and users change their own email
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	caller := currentUser(r)
	var patch domain.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !caller.IsAdmin && (caller.ID != id || patch.Role != nil || patch.IsActive != nil) {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	updated := patch.Apply(*user)
	if err := h.users.UpdateUser(r.Context(), &updated); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteUser refuses admin accounts
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if user.IsAdmin {
		writeError(w, http.StatusForbidden, "Admin users cannot be deleted")
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.links.GetSystemStats(r.Context(), h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Redirects(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = domain.PeriodDay
	}
	switch period {
	case domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth:
	default:
		writeError(w, http.StatusBadRequest, "invalid period (use day, week, or month)")
		return
	}

	data, err := h.links.GetRedirectsOverTime(r.Context(), period, h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *AdminHandler) PeakUsage(w http.ResponseWriter, r *http.Request) {
	date := h.now().UTC()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
			return
		}
		date = parsed
	}

	usage, err := h.links.GetPeakUsage(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
