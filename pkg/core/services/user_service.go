package services

import (
	"context"
	"log"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/cache"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
)

const UsersCollection = "users"

type UserService struct {
	api    ports.UserAPI
	users  *cache.Collection[domain.User]
	logger *log.Logger
}

func NewUserService(api ports.UserAPI, store *cache.Store, logger *log.Logger) *UserService {
	if logger == nil {
		logger = log.Default()
	}
	return &UserService{
		api:    api,
		users:  cache.NewCollection(store, UsersCollection, api.ListUsers),
		logger: logger,
	}
}

func (s *UserService) Collection() *cache.Collection[domain.User] {
	return s.users
}

func (s *UserService) Read(view domain.ViewState) cache.Snapshot[domain.User] {
	return s.users.Read(view)
}

func (s *UserService) List(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.User], error) {
	return s.users.Load(ctx, view)
}

func (s *UserService) Revalidate(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.User], error) {
	return s.users.Revalidate(ctx, view)
}

// Create validates input first and invalidates every cached users page once
// the account exists. New accounts are active unless the caller says otherwise.
func (s *UserService) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if input.IsActive == nil {
		active := true
		input.IsActive = &active
	}

	user, err := s.api.CreateUser(ctx, input)
	if err != nil {
		return nil, err
	}
	s.users.Invalidate()
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	return cache.MutateOptimistic(ctx, s.users,
		func(page domain.ListResponse[domain.User]) domain.ListResponse[domain.User] {
			for i := range page.Items {
				if page.Items[i].ID == id {
					page.Items[i] = patch.Apply(page.Items[i])
				}
			}
			return page
		},
		func(ctx context.Context) (*domain.User, error) {
			return s.api.UpdateUser(ctx, id, patch)
		},
		cache.MutateOptions[domain.User, *domain.User]{
			Reconcile: func(page domain.ListResponse[domain.User], updated *domain.User) domain.ListResponse[domain.User] {
				if updated == nil {
					return page
				}
				for i := range page.Items {
					if page.Items[i].ID == id {
						page.Items[i] = *updated
					}
				}
				return page
			},
		},
	)
}

// Delete refuses admins known to the cache before any call is made. The API
// is expected to enforce the same rule for users this console never listed.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if s.isCachedAdmin(id) {
		return domain.ErrAdminUndeletable
	}
	_, err := cache.MutateOptimistic(ctx, s.users,
		removeIDs(func(u domain.User) int64 { return u.ID }, idSet([]int64{id})),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.api.DeleteUser(ctx, id)
		},
		cache.MutateOptions[domain.User, struct{}]{},
	)
	return err
}

func (s *UserService) BulkUpdateStatus(ctx context.Context, ids []int64, isActive bool) error {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return domain.ErrNoIDs
	}
	selected := idSet(ids)

	_, err := cache.MutateOptimistic(ctx, s.users,
		func(page domain.ListResponse[domain.User]) domain.ListResponse[domain.User] {
			for i := range page.Items {
				if selected[page.Items[i].ID] {
					page.Items[i].IsActive = isActive
				}
			}
			return page
		},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fanOut(ctx, "bulk status", ids, func(ctx context.Context, id int64) error {
				_, err := s.api.UpdateUser(ctx, id, domain.UserPatch{IsActive: &isActive})
				return err
			})
		},
		cache.MutateOptions[domain.User, struct{}]{Revalidate: true},
	)
	if err != nil {
		s.logger.Printf("users: bulk status failed: %v", err)
	}
	return err
}

// BulkDelete rejects the whole selection when it contains an admin
func (s *UserService) BulkDelete(ctx context.Context, ids []int64) error {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return domain.ErrNoIDs
	}
	for _, id := range ids {
		if s.isCachedAdmin(id) {
			return domain.ErrAdminUndeletable
		}
	}

	_, err := cache.MutateOptimistic(ctx, s.users,
		removeIDs(func(u domain.User) int64 { return u.ID }, idSet(ids)),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fanOut(ctx, "bulk delete", ids, s.api.DeleteUser)
		},
		cache.MutateOptions[domain.User, struct{}]{Revalidate: true},
	)
	if err != nil {
		s.logger.Printf("users: bulk delete failed: %v", err)
	}
	return err
}

func (s *UserService) isCachedAdmin(id int64) bool {
	u, ok := s.users.Find(func(u domain.User) bool { return u.ID == id })
	return ok && u.IsAdmin
}
