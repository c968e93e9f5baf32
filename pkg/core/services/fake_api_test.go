package services

import (
	"context"
	"io"
	"log"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/cache"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

// fakeAPI is an in-memory stand-in for the remote API
type fakeAPI struct {
	mu     sync.Mutex
	links  map[int64]domain.Link
	users  map[int64]domain.User
	nextID int64
	calls  map[string]int

	failUpdate map[int64]error
	failDelete map[int64]error

	// deleteStarted/deleteRelease gate DeleteLink when set
	deleteStarted chan int64
	deleteRelease chan error

	me        *domain.User
	meErr     error
	auth      *domain.AuthResponse
	logoutErr error

	system *domain.SystemStats
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		links:      make(map[int64]domain.Link),
		users:      make(map[int64]domain.User),
		nextID:     1,
		calls:      make(map[string]int),
		failUpdate: make(map[int64]error),
		failDelete: make(map[int64]error),
		system:     &domain.SystemStats{TotalLinks: 3},
	}
}

func (f *fakeAPI) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) addLink(alias string, active bool) domain.Link {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := domain.Link{ID: f.nextID, Alias: alias, DestinationURL: "https://example.com/" + alias, IsActive: active}
	f.links[l.ID] = l
	f.nextID++
	return l
}

func (f *fakeAPI) addUser(email string, role domain.Role) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := domain.User{ID: f.nextID, Email: email, Role: role, IsActive: true}
	u.Normalize()
	f.users[u.ID] = u
	f.nextID++
	return u
}

func (f *fakeAPI) link(id int64) domain.Link {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links[id]
}

func page[T any](items []T, view domain.ViewState) *domain.ListResponse[T] {
	size := view.PageSize
	if size <= 0 {
		size = 10
	}
	start := view.Page * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	out := append([]T{}, items[start:end]...)
	return &domain.ListResponse[T]{Items: out, TotalCount: len(items), HasMore: end < len(items)}
}

func (f *fakeAPI) ListLinks(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.Link], error) {
	f.record("ListLinks")
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []domain.Link
	for _, l := range f.links {
		switch view.Filters["status"] {
		case "active":
			if !l.IsActive {
				continue
			}
		case "inactive":
			if l.IsActive {
				continue
			}
		}
		items = append(items, l)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, view), nil
}

func (f *fakeAPI) CreateLink(ctx context.Context, input domain.CreateLinkInput) (*domain.Link, error) {
	f.record("CreateLink")
	f.mu.Lock()
	defer f.mu.Unlock()
	l := domain.Link{ID: f.nextID, Alias: input.Alias, DestinationURL: input.DestinationURL, IsActive: *input.IsActive}
	f.links[l.ID] = l
	f.nextID++
	return &l, nil
}

func (f *fakeAPI) UpdateLink(ctx context.Context, id int64, patch domain.LinkPatch) (*domain.Link, error) {
	f.record("UpdateLink")
	f.record("UpdateLink:" + strconv.FormatInt(id, 10))
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdate[id]; err != nil {
		return nil, err
	}
	l, ok := f.links[id]
	if !ok {
		return nil, &domain.HTTPError{Status: 404, Message: "Link not found"}
	}
	l = patch.Apply(l)
	l.UpdatedAt = &time.Time{}
	f.links[id] = l
	return &l, nil
}

func (f *fakeAPI) DeleteLink(ctx context.Context, id int64) error {
	f.record("DeleteLink")
	if f.deleteStarted != nil {
		f.deleteStarted <- id
		if err := <-f.deleteRelease; err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDelete[id]; err != nil {
		return err
	}
	delete(f.links, id)
	return nil
}

func (f *fakeAPI) BulkDeleteLinks(ctx context.Context, ids []int64) error {
	f.record("BulkDeleteLinks")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.links, id)
	}
	return nil
}

func (f *fakeAPI) BulkSetLinkStatus(ctx context.Context, ids []int64, isActive bool) error {
	f.record("BulkSetLinkStatus")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		l := f.links[id]
		l.IsActive = isActive
		f.links[id] = l
	}
	return nil
}

func (f *fakeAPI) ListUsers(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.User], error) {
	f.record("ListUsers")
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []domain.User
	for _, u := range f.users {
		items = append(items, u)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, view), nil
}

func (f *fakeAPI) CreateUser(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	f.record("CreateUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == input.Email {
			return nil, &domain.HTTPError{Status: 409, Message: "Email already registered"}
		}
	}
	u := domain.User{ID: f.nextID, Email: input.Email, Role: input.Role, IsActive: input.IsActive != nil && *input.IsActive}
	u.Normalize()
	f.users[u.ID] = u
	f.nextID++
	return &u, nil
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	f.record("UpdateUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdate[id]; err != nil {
		return nil, err
	}
	u := patch.Apply(f.users[id])
	f.users[id] = u
	return &u, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id int64) error {
	f.record("DeleteUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	f.record("Login")
	return f.auth, nil
}

func (f *fakeAPI) Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	f.record("Register")
	return f.auth, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.record("Logout")
	return f.logoutErr
}

func (f *fakeAPI) Me(ctx context.Context) (*domain.User, error) {
	f.record("Me")
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.me, nil
}

func (f *fakeAPI) SystemStats(ctx context.Context) (*domain.SystemStats, error) {
	f.record("SystemStats")
	return f.system, nil
}

func (f *fakeAPI) RedirectStats(ctx context.Context, period string) ([]domain.RedirectStat, error) {
	f.record("RedirectStats:" + period)
	return []domain.RedirectStat{{Timestamp: "2026-10-19T00:00:00Z", Value: 4}}, nil
}

func (f *fakeAPI) PeakUsage(ctx context.Context, date string) (*domain.PeakUsage, error) {
	f.record("PeakUsage")
	return &domain.PeakUsage{Date: date, PeakHour: 9, PeakRedirects: 12}, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestCache(t *testing.T) *cache.Store {
	t.Helper()
	store := cache.NewStore(cache.Config{Logger: quietLogger()})
	t.Cleanup(store.Close)
	return store
}
