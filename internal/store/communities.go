package store

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/model"
)

// Communities mirrors the communities the user can browse and join.
type Communities struct {
	notifier

	api   *apiclient.Client
	log   *zap.Logger
	locks keyedLocks

	mu      sync.Mutex
	items   []model.Community
	loading bool
	err     string
}

type CommunitiesState struct {
	Items     []model.Community
	IsLoading bool
	Error     string
}

func NewCommunities(api *apiclient.Client, log *zap.Logger) *Communities {
	return &Communities{api: api, log: log}
}

func (c *Communities) State() CommunitiesState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CommunitiesState{Items: slices.Clone(c.items), IsLoading: c.loading, Error: c.err}
}

func (c *Communities) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.err = ""
	c.mu.Unlock()
	c.broadcast()

	items, err := c.api.Communities(ctx)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.err = err.Error()
		c.mu.Unlock()
		c.broadcast()
		return err
	}
	c.items = items
	c.mu.Unlock()
	c.broadcast()
	return nil
}

// Join marks membership immediately; the member count follows along.
func (c *Communities) Join(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	prev, ok := c.update(id, func(cm *model.Community) {
		if !cm.IsMember {
			cm.IsMember = true
			cm.MyRole = "member"
			cm.MembersCount++
		}
	})
	if !ok || prev.IsMember {
		return nil
	}

	if err := c.api.JoinCommunity(ctx, id); err != nil {
		c.restore(prev, err)
		return err
	}
	return nil
}

func (c *Communities) Leave(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	prev, ok := c.update(id, func(cm *model.Community) {
		if cm.IsMember {
			cm.IsMember = false
			cm.MyRole = ""
			cm.MembersCount--
		}
	})
	if !ok || !prev.IsMember {
		return nil
	}

	if err := c.api.LeaveCommunity(ctx, id); err != nil {
		c.restore(prev, err)
		return err
	}
	return nil
}

func (c *Communities) update(id string, mutate func(*model.Community)) (model.Community, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			prev := c.items[i]
			mutate(&c.items[i])
			if c.items[i] != prev {
				defer c.broadcast()
			}
			return prev, true
		}
	}
	return model.Community{}, false
}

func (c *Communities) restore(prev model.Community, cause error) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == prev.ID {
			c.items[i] = prev
			break
		}
	}
	c.err = cause.Error()
	c.mu.Unlock()
	c.broadcast()
}
