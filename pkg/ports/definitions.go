package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

// TokenStore persists the bearer token between console runs. Get returns ""
// when no token is stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Navigator moves the console to another view
type Navigator interface {
	ToLogin()
}

// AuthAPI is the remote authentication surface
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*domain.User, error)
}

// LinkAPI is the remote links collection
type LinkAPI interface {
	ListLinks(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.Link], error)
	CreateLink(ctx context.Context, input domain.CreateLinkInput) (*domain.Link, error)
	UpdateLink(ctx context.Context, id int64, patch domain.LinkPatch) (*domain.Link, error)
	DeleteLink(ctx context.Context, id int64) error
	BulkDeleteLinks(ctx context.Context, ids []int64) error
	BulkSetLinkStatus(ctx context.Context, ids []int64, isActive bool) error
}

// UserAPI is the remote admin users collection
type UserAPI interface {
	ListUsers(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.User], error)
	CreateUser(ctx context.Context, input domain.CreateUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// StatsAPI is the read-only dashboard surface
type StatsAPI interface {
	SystemStats(ctx context.Context) (*domain.SystemStats, error)
	RedirectStats(ctx context.Context, period string) ([]domain.RedirectStat, error)
	PeakUsage(ctx context.Context, date string) (*domain.PeakUsage, error)
}

// Sandbox storage

// LinkRepository defines storage operations for links
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByAlias(ctx context.Context, alias string) (*domain.Link, error)
	GetByID(ctx context.Context, id int64) (*domain.Link, error)
	Update(ctx context.Context, link *domain.Link) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error)
	Count(ctx context.Context, filters map[string]interface{}) (int64, error)

	// Stats
	RecordRedirect(ctx context.Context, linkID int64, status int, visitor string, at time.Time) error
	GetSystemStats(ctx context.Context, now time.Time) (*domain.SystemStats, error)
	GetRedirectsOverTime(ctx context.Context, period string, now time.Time) ([]domain.RedirectStat, error)
	GetPeakUsage(ctx context.Context, date time.Time) (*domain.PeakUsage, error)
}

// UserRepository defines storage operations for accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User, passwordHash string) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, string, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
	TouchLogin(ctx context.Context, id int64) error
	UserStats(ctx context.Context, id int64) (*domain.UserStats, error)
	ListUsers(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.User, error)
	CountUsers(ctx context.Context, filters map[string]interface{}) (int64, error)
}
