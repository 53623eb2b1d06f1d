package store

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/model"
)

type Notifications struct {
	notifier

	api   *apiclient.Client
	log   *zap.Logger
	locks keyedLocks

	mu      sync.Mutex
	items   []model.Notification
	loading bool
	err     string
}

type NotificationsState struct {
	Items       []model.Notification
	UnreadCount int
	IsLoading   bool
	Error       string
}

func NewNotifications(api *apiclient.Client, log *zap.Logger) *Notifications {
	return &Notifications{api: api, log: log}
}

func (n *Notifications) State() NotificationsState {
	n.mu.Lock()
	defer n.mu.Unlock()
	unread := 0
	for _, item := range n.items {
		if !item.Read {
			unread++
		}
	}
	return NotificationsState{
		Items:       slices.Clone(n.items),
		UnreadCount: unread,
		IsLoading:   n.loading,
		Error:       n.err,
	}
}

func (n *Notifications) Refresh(ctx context.Context) error {
	n.mu.Lock()
	n.loading = true
	n.err = ""
	n.mu.Unlock()
	n.broadcast()

	items, err := n.api.Notifications(ctx)

	n.mu.Lock()
	n.loading = false
	if err != nil {
		n.err = err.Error()
		n.mu.Unlock()
		n.broadcast()
		return err
	}
	n.items = items
	n.mu.Unlock()
	n.broadcast()
	return nil
}

// MarkRead clears the badge for one notification optimistically.
func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	unlock := n.locks.Lock(id)
	defer unlock()

	n.mu.Lock()
	idx := slices.IndexFunc(n.items, func(item model.Notification) bool { return item.ID == id })
	if idx < 0 || n.items[idx].Read {
		n.mu.Unlock()
		return nil
	}
	prev := n.items[idx]
	n.items[idx].Read = true
	n.mu.Unlock()
	n.broadcast()

	if err := n.api.MarkNotificationRead(ctx, id); err != nil {
		n.mu.Lock()
		for i := range n.items {
			if n.items[i].ID == prev.ID {
				n.items[i] = prev
				break
			}
		}
		n.err = err.Error()
		n.mu.Unlock()
		n.broadcast()
		return err
	}
	return nil
}
