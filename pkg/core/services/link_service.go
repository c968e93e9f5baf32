package services

import (
	"context"
	"log"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/cache"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
)

const LinksCollection = "links"

type LinkService struct {
	api        ports.LinkAPI
	links      *cache.Collection[domain.Link]
	serverBulk bool
	logger     *log.Logger
}

// NewLinkService wires the links collection into store. With serverBulk the
// bulk actions use the admin bulk endpoints instead of one call per id.
func NewLinkService(api ports.LinkAPI, store *cache.Store, serverBulk bool, logger *log.Logger) *LinkService {
	if logger == nil {
		logger = log.Default()
	}
	return &LinkService{
		api:        api,
		links:      cache.NewCollection(store, LinksCollection, api.ListLinks),
		serverBulk: serverBulk,
		logger:     logger,
	}
}

func (s *LinkService) Collection() *cache.Collection[domain.Link] {
	return s.links
}

// Read returns what is cached for view and starts a fetch when needed
func (s *LinkService) Read(view domain.ViewState) cache.Snapshot[domain.Link] {
	return s.links.Read(view)
}

func (s *LinkService) List(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.Link], error) {
	return s.links.Load(ctx, view)
}

func (s *LinkService) Revalidate(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.Link], error) {
	return s.links.Revalidate(ctx, view)
}

// Create validates input before anything is sent. New links are active
// unless the caller says otherwise. Every cached page is invalidated since
// the new link's position depends on each view's sort and filters.
func (s *LinkService) Create(ctx context.Context, input domain.CreateLinkInput) (*domain.Link, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.IsActive == nil {
		active := true
		input.IsActive = &active
	}

	link, err := s.api.CreateLink(ctx, input)
	if err != nil {
		return nil, err
	}
	s.links.Invalidate()
	return link, nil
}

// Update patches the cached row immediately and swaps in the server's copy
// once the call succeeds.
func (s *LinkService) Update(ctx context.Context, id int64, patch domain.LinkPatch) (*domain.Link, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	return cache.MutateOptimistic(ctx, s.links,
		func(page domain.ListResponse[domain.Link]) domain.ListResponse[domain.Link] {
			for i := range page.Items {
				if page.Items[i].ID == id {
					page.Items[i] = patch.Apply(page.Items[i])
				}
			}
			return page
		},
		func(ctx context.Context) (*domain.Link, error) {
			return s.api.UpdateLink(ctx, id, patch)
		},
		cache.MutateOptions[domain.Link, *domain.Link]{
			Reconcile: func(page domain.ListResponse[domain.Link], updated *domain.Link) domain.ListResponse[domain.Link] {
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

func (s *LinkService) Delete(ctx context.Context, id int64) error {
	_, err := cache.MutateOptimistic(ctx, s.links,
		removeIDs(func(l domain.Link) int64 { return l.ID }, idSet([]int64{id})),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.api.DeleteLink(ctx, id)
		},
		cache.MutateOptions[domain.Link, struct{}]{},
	)
	return err
}

// BulkUpdateStatus sets isActive on every id. The collection is revalidated
// afterwards whatever the outcome; ids that succeeded stay changed.
func (s *LinkService) BulkUpdateStatus(ctx context.Context, ids []int64, isActive bool) error {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return domain.ErrNoIDs
	}
	selected := idSet(ids)

	_, err := cache.MutateOptimistic(ctx, s.links,
		func(page domain.ListResponse[domain.Link]) domain.ListResponse[domain.Link] {
			for i := range page.Items {
				if selected[page.Items[i].ID] {
					page.Items[i].IsActive = isActive
				}
			}
			return page
		},
		func(ctx context.Context) (struct{}, error) {
			if s.serverBulk {
				return struct{}{}, s.api.BulkSetLinkStatus(ctx, ids, isActive)
			}
			return struct{}{}, fanOut(ctx, "bulk status", ids, func(ctx context.Context, id int64) error {
				_, err := s.api.UpdateLink(ctx, id, domain.LinkPatch{IsActive: &isActive})
				return err
			})
		},
		cache.MutateOptions[domain.Link, struct{}]{Revalidate: true},
	)
	if err != nil {
		s.logger.Printf("links: bulk status failed: %v", err)
	}
	return err
}

func (s *LinkService) BulkDelete(ctx context.Context, ids []int64) error {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return domain.ErrNoIDs
	}

	_, err := cache.MutateOptimistic(ctx, s.links,
		removeIDs(func(l domain.Link) int64 { return l.ID }, idSet(ids)),
		func(ctx context.Context) (struct{}, error) {
			if s.serverBulk {
				return struct{}{}, s.api.BulkDeleteLinks(ctx, ids)
			}
			return struct{}{}, fanOut(ctx, "bulk delete", ids, s.api.DeleteLink)
		},
		cache.MutateOptions[domain.Link, struct{}]{Revalidate: true},
	)
	if err != nil {
		s.logger.Printf("links: bulk delete failed: %v", err)
	}
	return err
}

// removeIDs drops the selected rows from a page and lowers TotalCount by the
// number actually removed.
func removeIDs[T any](id func(T) int64, selected map[int64]bool) func(domain.ListResponse[T]) domain.ListResponse[T] {
	return func(page domain.ListResponse[T]) domain.ListResponse[T] {
		kept := page.Items[:0]
		for _, item := range page.Items {
			if !selected[id(item)] {
				kept = append(kept, item)
			}
		}
		removed := len(page.Items) - len(kept)
		page.Items = kept
		page.TotalCount -= removed
		if page.TotalCount < 0 {
			page.TotalCount = 0
		}
		return page
	}
}
