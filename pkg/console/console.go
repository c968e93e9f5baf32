// Package console wires the API client, token store, collection cache and
// services into one object for front ends.
package console

import (
	"context"
	"log"

	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/apiclient"
	"github.com/wadjakorntonsri/golinks-console/pkg/adapters/tokenstore"
	"github.com/wadjakorntonsri/golinks-console/pkg/config"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/cache"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/services"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
)

type App struct {
	Client  *apiclient.Client
	Tokens  tokenstore.Store
	Cache   *cache.Store
	Session *services.SessionService
	Links   *services.LinkService
	Users   *services.UserService
	Stats   *services.StatsService
}

type Options struct {
	Logger    *log.Logger
	Navigator ports.Navigator
	// Tokens overrides the store named by TOKEN_STORE_URL
	Tokens tokenstore.Store
	// ClientOptions are appended to the defaults derived from cfg
	ClientOptions []apiclient.Option
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	tokens := opts.Tokens
	if tokens == nil {
		var err error
		tokens, err = tokenstore.Open(ctx, cfg.TokenStoreURL)
		if err != nil {
			return nil, err
		}
	}

	clientOpts := append([]apiclient.Option{
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(logger, cfg.IsDevelopment()),
	}, opts.ClientOptions...)
	client := apiclient.New(cfg.APIURL, tokens, clientOpts...)

	store := cache.NewStore(cache.Config{DedupeInterval: cfg.CacheDedupeInterval, Logger: logger})
	session := services.NewSessionService(client, tokens, opts.Navigator, logger)
	client.OnUnauthorized(session.HandleUnauthorized)

	return &App{
		Client:  client,
		Tokens:  tokens,
		Cache:   store,
		Session: session,
		Links:   services.NewLinkService(client, store, cfg.BulkMode == config.BulkModeServer, logger),
		Users:   services.NewUserService(client, store, logger),
		Stats:   services.NewStatsService(client, cfg.StatsDedupeInterval),
	}, nil
}

// Close stops background fetches and releases the token store
func (a *App) Close() error {
	a.Cache.Close()
	return a.Tokens.Close()
}
