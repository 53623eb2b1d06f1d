// Package app wires the client together. One App owns every store, the API
// client, and the cache; nothing in this module lives in package-level
// state, so two Apps in one process stay fully independent.
package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/config"
	"github.com/hearth-app/hearth-client/internal/logging"
	"github.com/hearth-app/hearth-client/internal/persist"
	"github.com/hearth-app/hearth-client/internal/session"
	"github.com/hearth-app/hearth-client/internal/store"
)

type App struct {
	cfg   config.Config
	log   *zap.Logger
	cache *persist.Cache
	api   *apiclient.Client

	Auth          *store.Auth
	Feed          *store.Feed
	Communities   *store.Communities
	Notifications *store.Notifications
	Moments       *store.Moments
	Proposals     *store.Proposals
}

func New(cfg config.Config) (*App, error) {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var cacheKey []byte
	if cfg.CacheKey != "" {
		cacheKey, err = hex.DecodeString(cfg.CacheKey)
		if err != nil {
			return nil, fmt.Errorf("invalid cache key: %w", err)
		}
	}
	cache, err := persist.Open(cfg.CachePath, cacheKey, log)
	if err != nil {
		return nil, err
	}

	tokens := &apiclient.TokenStore{}
	api := apiclient.New(cfg.APIBaseURL, cfg.RequestTimeout, tokens, log)

	return &App{
		cfg:           cfg,
		log:           log,
		cache:         cache,
		api:           api,
		Auth:          store.NewAuth(api, cache, tokens, log),
		Feed:          store.NewFeed(api, cache, log),
		Communities:   store.NewCommunities(api, log),
		Notifications: store.NewNotifications(api, log),
		Moments:       store.NewMoments(api, log),
		Proposals:     store.NewProposals(api, log),
	}, nil
}

// Initialize restores whatever the device cache holds. No network.
func (a *App) Initialize() {
	a.Auth.Initialize()
	a.Feed.Hydrate()
}

// JoinGame dials the realtime channel for one game session using the
// current login.
func (a *App) JoinGame(ctx context.Context, gameID string) (*session.Session, error) {
	u, err := url.Parse(a.cfg.SocketURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("game", gameID)
	u.RawQuery = q.Encode()
	return session.Dial(ctx, u.String(), a.Auth.Token(), a.log)
}

func (a *App) Logger() *zap.Logger { return a.log }

func (a *App) Close() error {
	err := a.cache.Close()
	// stderr sync failures are noise, not errors worth surfacing alone
	if syncErr := a.log.Sync(); syncErr != nil && err != nil {
		err = multierr.Append(err, syncErr)
	}
	return err
}
