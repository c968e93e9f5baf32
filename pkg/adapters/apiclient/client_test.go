package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/tokenstore"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *tokenstore.Memory) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := tokenstore.NewMemory()
	if token != "" {
		require.NoError(t, tokens.Set(context.Background(), token))
	}
	return New(server.URL, tokens, WithHTTPClient(server.Client())), tokens
}

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(domain.User{ID: 7, Email: "me@example.com", Role: domain.RoleUser})
	}, "abc.def.ghi")

	user, err := client.Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc.def.ghi", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, int64(7), user.ID)
}

func TestDoOmitsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, "")

	require.NoError(t, client.Logout(context.Background()))
	assert.Empty(t, gotAuth)
}

func TestDoUnauthorizedClearsTokenAndFiresHook(t *testing.T) {
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}, "expired-token")

	var fired int32
	client.OnUnauthorized(func() { atomic.AddInt32(&fired, 1) })

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	token, _ := tokens.Get(context.Background())
	assert.Empty(t, token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestDoPropagatesHTTPError(t *testing.T) {
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"alias already exists"}`))
	}, "tok")

	_, err := client.CreateLink(context.Background(), domain.CreateLinkInput{Alias: "dup", DestinationURL: "https://example.com"})
	require.Error(t, err)

	var httpErr *domain.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "alias already exists", httpErr.Message)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))

	// only 401 clears the token
	token, _ := tokens.Get(context.Background())
	assert.Equal(t, "tok", token)
}

func TestDoNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(url, tokenstore.NewMemory())
	_, err := client.SystemStats(context.Background())
	require.Error(t, err)

	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestDoHonoursCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SystemStats(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestListLinksSendsViewState(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/links", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`null`))
	}, "")

	resp, err := client.ListLinks(context.Background(), domain.ViewState{
		Page: 2, PageSize: 25, Search: "docs", Filters: map[string]string{"status": "active"},
	})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "pageSize=25")
	assert.Contains(t, gotQuery, "search=docs")
	assert.Contains(t, gotQuery, "status=active")
	// a null body is an empty page, not an error
	assert.NotNil(t, resp.Items)
	assert.Equal(t, 0, resp.TotalCount)
}

func TestBulkSetLinkStatusBody(t *testing.T) {
	var body map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/links/bulk-status", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}, "")

	require.NoError(t, client.BulkSetLinkStatus(context.Background(), []int64{1, 2}, false))
	assert.Equal(t, []interface{}{float64(1), float64(2)}, body["ids"])
	assert.Equal(t, false, body["isActive"])
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer server.Close()

	client := New(server.URL, tokenstore.NewMemory(), WithLogger(log.New(&buf, "", 0), true))
	_, err := client.RedirectStats(context.Background(), domain.PeriodWeek)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(buf.String(), "API Request: GET "+server.URL+"/api/admin/stats/redirects?period=week"))
}

func TestCreateUserPostsToUsers(t *testing.T) {
	var body map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/users", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":9,"email":"carol@example.com","role":"user","isActive":true}`))
	}, "token")

	user, err := client.CreateUser(context.Background(), domain.CreateUserInput{Email: "carol@example.com", Password: "password123", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(9), user.ID)
	assert.Equal(t, "carol@example.com", body["email"])
	assert.Equal(t, "user", body["role"])
	assert.NotContains(t, body, "isActive")
}
