package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
)

const maxPageSize = 100

type HTTPHandler struct {
	links ports.LinkRepository
	now   func() time.Time
}

func NewHTTPHandler(links ports.LinkRepository) *HTTPHandler {
	return &HTTPHandler{links: links, now: time.Now}
}

type bulkRequest struct {
	IDs      []int64 `json:"ids"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLinkInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.links.GetByAlias(r.Context(), req.Alias)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Alias already exists")
		return
	}

	link := &domain.Link{
		Alias:          req.Alias,
		DestinationURL: req.DestinationURL,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       req.IsActive == nil || *req.IsActive,
		CreatedBy:      currentUser(r).ID,
	}
	if err := h.links.Create(r.Context(), link); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Alias already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// List Links. Admins see every link, everyone else only their own.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	q := r.URL.Query()
	filters := map[string]interface{}{
		"search": q.Get("search"),
		"status": q.Get("status"),
		"sortBy": q.Get("sortBy"),
	}
	if user := currentUser(r); !user.IsAdmin {
		filters["createdBy"] = user.ID
	}

	links, err := h.links.List(r.Context(), pageSize, page*pageSize, filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	count, err := h.links.Count(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, domain.ListResponse[domain.Link]{
		Items:      links,
		TotalCount: int(count),
		HasMore:    int64((page+1)*pageSize) < count,
	})
}

// Update Link
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	link, ok := h.ownedLink(w, r)
	if !ok {
		return
	}

	var patch domain.LinkPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if patch.Alias != nil && *patch.Alias != link.Alias {
		existing, err := h.links.GetByAlias(r.Context(), *patch.Alias)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Alias already exists")
			return
		}
	}

	updated := patch.Apply(*link)
	if err := h.links.Update(r.Context(), &updated); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Alias already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	link, ok := h.ownedLink(w, r)
	if !ok {
		return
	}
	if err := h.links.Delete(r.Context(), link.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete removes every listed link; unknown ids are skipped
func (h *HTTPHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	for _, id := range req.IDs {
		if err := h.links.Delete(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 || req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "ids and isActive are required")
		return
	}
	for _, id := range req.IDs {
		link, err := h.links.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if link == nil {
			continue
		}
		link.IsActive = *req.IsActive
		if err := h.links.Update(r.Context(), link); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Redirect to the destination URL. Every outcome for a known alias is
// recorded for the dashboard.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")
	if alias == "" {
		writeError(w, http.StatusBadRequest, "Alias missing")
		return
	}

	link, err := h.links.GetByAlias(r.Context(), alias)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if link == nil {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}

	now := h.now()
	status := http.StatusTemporaryRedirect
	switch {
	case !link.IsActive:
		status = http.StatusNotFound
	case link.IsExpired(now):
		status = http.StatusGone
	}

	if r.URL.Query().Get("no_stat") == "" {
		ctx := context.WithoutCancel(r.Context())
		if err := h.links.RecordRedirect(ctx, link.ID, status, visitorID(r), now); err != nil {
			log.Printf("Failed to record redirect for %s: %v", alias, err)
		}
	}

	switch status {
	case http.StatusNotFound:
		writeError(w, status, "Link not found")
	case http.StatusGone:
		writeJSON(w, status, map[string]interface{}{
			"error":          "This link has expired",
			"destinationUrl": link.DestinationURL,
			"expiredAt":      link.ExpiresAt,
		})
	default:
		http.Redirect(w, r, link.DestinationURL, status)
	}
}

// ownedLink loads the {id} link and checks the caller may change it
func (h *HTTPHandler) ownedLink(w http.ResponseWriter, r *http.Request) (*domain.Link, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return nil, false
	}
	link, err := h.links.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if link == nil {
		writeError(w, http.StatusNotFound, "Link not found")
		return nil, false
	}
	if user := currentUser(r); link.CreatedBy != user.ID && !user.IsAdmin {
		writeError(w, http.StatusForbidden, "Not allowed to modify this link")
		return nil, false
	}
	return link, true
}

// visitorID is a one-way hash of the client address
func visitorID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		host = fwd
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:8])
}

// pagination reads the 0-based page and the page size, clamped to sane values
func pagination(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ = strconv.Atoi(q.Get("pageSize"))
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
