package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/model"
)

// Moments mirrors the ephemeral content rail. Expired moments are filtered
// on every read rather than garbage-collected on a timer.
type Moments struct {
	notifier

	api *apiclient.Client
	log *zap.Logger
	now func() time.Time

	mu      sync.Mutex
	items   []model.Moment
	loading bool
	err     string
}

type MomentsState struct {
	Items     []model.Moment
	IsLoading bool
	Error     string
}

func NewMoments(api *apiclient.Client, log *zap.Logger) *Moments {
	return &Moments{api: api, log: log, now: time.Now}
}

func (m *Moments) State() MomentsState {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	live := make([]model.Moment, 0, len(m.items))
	for _, item := range m.items {
		if !item.Expired(now) {
			live = append(live, item)
		}
	}
	return MomentsState{Items: live, IsLoading: m.loading, Error: m.err}
}

func (m *Moments) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.err = ""
	m.mu.Unlock()
	m.broadcast()

	items, err := m.api.Moments(ctx)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.err = err.Error()
		m.mu.Unlock()
		m.broadcast()
		return err
	}
	m.items = items
	m.mu.Unlock()
	m.broadcast()
	return nil
}

// Post publishes a moment and prepends the server's record.
func (m *Moments) Post(ctx context.Context, mediaURL, caption string) (model.Moment, error) {
	moment, err := m.api.PostMoment(ctx, mediaURL, caption)
	if err != nil {
		m.mu.Lock()
		m.err = err.Error()
		m.mu.Unlock()
		m.broadcast()
		return model.Moment{}, err
	}

	m.mu.Lock()
	m.items = slices.Insert(slices.Clone(m.items), 0, moment)
	m.mu.Unlock()
	m.broadcast()
	return moment, nil
}
