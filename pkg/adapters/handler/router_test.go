package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/golinks-console/pkg/config"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

type sandbox struct {
	t      *testing.T
	server *httptest.Server
}

func newSandbox(t *testing.T) *sandbox {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{JWTSecret: "sandbox-secret"}
	server := httptest.NewServer(NewRouter(cfg, repo, repo))
	t.Cleanup(server.Close)
	return &sandbox{t: t, server: server}
}

func (s *sandbox) do(method, path, token string, body, out interface{}) int {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := s.server.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *sandbox) register(email string) domain.AuthResponse {
	s.t.Helper()
	var auth domain.AuthResponse
	status := s.do("POST", "/api/auth/register", "", domain.Credentials{Email: email, Password: "password123"}, &auth)
	require.Equal(s.t, http.StatusCreated, status)
	return auth
}

func TestFirstAccountIsAdmin(t *testing.T) {
	sb := newSandbox(t)

	root := sb.register("root@example.com")
	alice := sb.register("alice@example.com")
	assert.True(t, root.User.IsAdmin)
	assert.False(t, alice.User.IsAdmin)

	var me domain.User
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/auth/me", alice.Token, nil, &me))
	assert.Equal(t, "alice@example.com", me.Email)

	assert.Equal(t, http.StatusConflict, sb.do("POST", "/api/auth/register", "", domain.Credentials{Email: "alice@example.com", Password: "password123"}, nil))
}

func TestLoginChecksPassword(t *testing.T) {
	sb := newSandbox(t)
	sb.register("root@example.com")

	assert.Equal(t, http.StatusUnauthorized, sb.do("POST", "/api/auth/login", "", domain.Credentials{Email: "root@example.com", Password: "nope"}, nil))

	var auth domain.AuthResponse
	require.Equal(t, http.StatusOK, sb.do("POST", "/api/auth/login", "", domain.Credentials{Email: "root@example.com", Password: "password123"}, &auth))
	assert.NotEmpty(t, auth.Token)
}

func TestLinksAreScopedToOwner(t *testing.T) {
	sb := newSandbox(t)
	root := sb.register("root@example.com")
	alice := sb.register("alice@example.com")

	var link domain.Link
	require.Equal(t, http.StatusCreated, sb.do("POST", "/api/links", alice.Token,
		domain.CreateLinkInput{Alias: "docs", DestinationURL: "https://example.com/docs"}, &link))
	assert.True(t, link.IsActive)
	assert.Equal(t, alice.User.ID, link.CreatedBy)

	assert.Equal(t, http.StatusConflict, sb.do("POST", "/api/links", root.Token,
		domain.CreateLinkInput{Alias: "docs", DestinationURL: "https://example.com"}, nil))
	assert.Equal(t, http.StatusBadRequest, sb.do("POST", "/api/links", root.Token,
		domain.CreateLinkInput{Alias: "my link", DestinationURL: "https://example.com"}, nil))

	bob := sb.register("bob@example.com")
	var bobs domain.ListResponse[domain.Link]
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/links?page=0&pageSize=10", bob.Token, nil, &bobs))
	assert.Empty(t, bobs.Items)

	var all domain.ListResponse[domain.Link]
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/links?page=0&pageSize=10", root.Token, nil, &all))
	assert.Equal(t, 1, all.TotalCount)

	path := "/api/links/" + strconv.FormatInt(link.ID, 10)
	inactive := false
	assert.Equal(t, http.StatusForbidden, sb.do("PUT", path, bob.Token, domain.LinkPatch{IsActive: &inactive}, nil))

	var updated domain.Link
	require.Equal(t, http.StatusOK, sb.do("PUT", path, alice.Token, domain.LinkPatch{IsActive: &inactive}, &updated))
	assert.False(t, updated.IsActive)
	assert.Equal(t, "docs", updated.Alias)

	assert.Equal(t, http.StatusNoContent, sb.do("DELETE", path, root.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, sb.do("DELETE", path, root.Token, nil, nil))
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	sb := newSandbox(t)
	root := sb.register("root@example.com")
	alice := sb.register("alice@example.com")

	assert.Equal(t, http.StatusUnauthorized, sb.do("GET", "/api/admin/users", "", nil, nil))
	assert.Equal(t, http.StatusForbidden, sb.do("GET", "/api/admin/users", alice.Token, nil, nil))
	assert.Equal(t, http.StatusForbidden, sb.do("GET", "/analytics/system", alice.Token, nil, nil))

	var users domain.ListResponse[domain.User]
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/admin/users?role=user", root.Token, nil, &users))
	require.Len(t, users.Items, 1)
	assert.Equal(t, "alice@example.com", users.Items[0].Email)
	assert.NotNil(t, users.Items[0].Stats)

	rootPath := "/api/users/" + strconv.FormatInt(root.User.ID, 10)
	alicePath := "/api/users/" + strconv.FormatInt(alice.User.ID, 10)
	assert.Equal(t, http.StatusForbidden, sb.do("DELETE", rootPath, root.Token, nil, nil))
	assert.Equal(t, http.StatusForbidden, sb.do("DELETE", alicePath, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNoContent, sb.do("DELETE", alicePath, root.Token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, sb.do("GET", "/api/auth/me", alice.Token, nil, nil))
}

func TestBulkEndpoints(t *testing.T) {
	sb := newSandbox(t)
	root := sb.register("root@example.com")

	var ids []int64
	for _, alias := range []string{"a", "b", "c"} {
		var l domain.Link
		require.Equal(t, http.StatusCreated, sb.do("POST", "/api/links", root.Token,
			domain.CreateLinkInput{Alias: alias, DestinationURL: "https://example.com/" + alias}, &l))
		ids = append(ids, l.ID)
	}

	inactive := false
	require.Equal(t, http.StatusNoContent, sb.do("POST", "/api/admin/links/bulk-status", root.Token,
		bulkRequest{IDs: ids[:2], IsActive: &inactive}, nil))

	var inactiveLinks domain.ListResponse[domain.Link]
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/links?status=inactive", root.Token, nil, &inactiveLinks))
	assert.Equal(t, 2, inactiveLinks.TotalCount)

	require.Equal(t, http.StatusNoContent, sb.do("POST", "/api/admin/links/bulk-delete", root.Token, bulkRequest{IDs: ids}, nil))
	var left domain.ListResponse[domain.Link]
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/links", root.Token, nil, &left))
	assert.Zero(t, left.TotalCount)
}

func TestRedirectRecordsStats(t *testing.T) {
	sb := newSandbox(t)
	root := sb.register("root@example.com")

	require.Equal(t, http.StatusCreated, sb.do("POST", "/api/links", root.Token,
		domain.CreateLinkInput{Alias: "go", DestinationURL: "https://example.com/target"}, nil))

	assert.Equal(t, http.StatusTemporaryRedirect, sb.do("GET", "/go", "", nil, nil))
	assert.Equal(t, http.StatusTemporaryRedirect, sb.do("GET", "/go", "", nil, nil))
	assert.Equal(t, http.StatusNotFound, sb.do("GET", "/missing", "", nil, nil))

	var stats domain.SystemStats
	require.Equal(t, http.StatusOK, sb.do("GET", "/analytics/system", root.Token, nil, &stats))
	assert.Equal(t, int64(2), stats.TotalRedirects)
	assert.Equal(t, int64(2), stats.Status3xx)
	assert.Equal(t, int64(1), stats.TotalLinks)
	assert.Equal(t, int64(1), stats.DailyActiveUsers)

	var series []domain.RedirectStat
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/admin/stats/redirects?period=day", root.Token, nil, &series))
	require.Len(t, series, 1)
	assert.Equal(t, int64(2), series[0].Value)

	var peak domain.PeakUsage
	require.Equal(t, http.StatusOK, sb.do("GET", "/api/admin/stats/peak-usage", root.Token, nil, &peak))
	assert.Len(t, peak.HourlyStats, 24)
	assert.Equal(t, int64(2), peak.PeakRedirects)
	assert.Equal(t, int64(1), peak.HourlyStats[peak.PeakHour].UniqueUsers)

	assert.Equal(t, http.StatusBadRequest, sb.do("GET", "/api/admin/stats/redirects?period=year", root.Token, nil, nil))
}

func TestAdminCreatesUser(t *testing.T) {
	sb := newSandbox(t)
	root := sb.register("root@example.com")
	alice := sb.register("alice@example.com")

	input := domain.CreateUserInput{Email: "Carol@Example.com", Password: "password123"}
	assert.Equal(t, http.StatusUnauthorized, sb.do("POST", "/api/users", "", input, nil))
	assert.Equal(t, http.StatusForbidden, sb.do("POST", "/api/users", alice.Token, input, nil))
	assert.Equal(t, http.StatusBadRequest, sb.do("POST", "/api/users", root.Token,
		domain.CreateUserInput{Email: "carol@example.com", Password: "short"}, nil))

	var created domain.User
	require.Equal(t, http.StatusCreated, sb.do("POST", "/api/users", root.Token, input, &created))
	assert.Equal(t, "carol@example.com", created.Email)
	assert.Equal(t, domain.RoleUser, created.Role)
	assert.True(t, created.IsActive)

	assert.Equal(t, http.StatusConflict, sb.do("POST", "/api/users", root.Token, input, nil))

	var auth domain.AuthResponse
	require.Equal(t, http.StatusOK, sb.do("POST", "/api/auth/login", "",
		domain.Credentials{Email: "carol@example.com", Password: "password123"}, &auth))
	assert.Equal(t, created.ID, auth.User.ID)
}
