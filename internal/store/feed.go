package store

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/model"
	"github.com/hearth-app/hearth-client/internal/persist"
)

const (
	// maxFeedPosts caps in-memory feed growth; older pages fall off the end.
	maxFeedPosts    = 200
	defaultPageSize = 20
)

// Feed mirrors the home timeline: newest first, paginated by cursor.
type Feed struct {
	notifier

	api   *apiclient.Client
	cache *persist.Cache
	guard *apiclient.Guard
	log   *zap.Logger
	locks keyedLocks

	mu      sync.Mutex
	posts   []model.Post
	cursor  string
	hasMore bool
	loading bool
	err     string
}

type FeedState struct {
	Posts     []model.Post
	HasMore   bool
	IsLoading bool
	Error     string
}

func NewFeed(api *apiclient.Client, cache *persist.Cache, log *zap.Logger) *Feed {
	return &Feed{api: api, cache: cache, guard: apiclient.NewGuard(), log: log, hasMore: true}
}

func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FeedState{
		Posts:     slices.Clone(f.posts),
		HasMore:   f.hasMore,
		IsLoading: f.loading,
		Error:     f.err,
	}
}

// Hydrate seeds the feed from the device cache so there is something to
// render before the first refresh lands.
func (f *Feed) Hydrate() {
	cached := f.cache.LoadFeed()
	if len(cached) == 0 {
		return
	}
	f.mu.Lock()
	if len(f.posts) == 0 {
		f.posts = cached
	}
	f.mu.Unlock()
	f.broadcast()
}

// Refresh replaces the feed with the first page. A refresh that loses the
// race against a newer one is dropped.
func (f *Feed) Refresh(ctx context.Context) error {
	ticket := f.guard.Ticket("feed")

	f.mu.Lock()
	f.loading = true
	f.err = ""
	f.mu.Unlock()
	f.broadcast()

	page, err := f.api.Feed(ctx, "", defaultPageSize)
	if !f.guard.Current("feed", ticket) {
		return nil
	}

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.err = err.Error()
		f.mu.Unlock()
		f.broadcast()
		return err
	}
	f.posts = dedupePosts(nil, page.Posts)
	f.cursor = page.Cursor
	f.hasMore = page.Cursor != ""
	persisted := slices.Clone(f.posts)
	f.mu.Unlock()

	if err := f.cache.SaveFeed(persisted); err != nil {
		f.log.Warn("failed to persist feed slice", zap.Error(err))
	}
	f.broadcast()
	return nil
}

// LoadMore appends the next page. Posts already present (the server may
// shift pages under us) are skipped, and the total is capped.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.loading || !f.hasMore {
		f.mu.Unlock()
		return nil
	}
	cursor := f.cursor
	f.loading = true
	f.mu.Unlock()
	f.broadcast()

	page, err := f.api.Feed(ctx, cursor, defaultPageSize)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.err = err.Error()
		f.mu.Unlock()
		f.broadcast()
		return err
	}
	f.posts = dedupePosts(f.posts, page.Posts)
	if len(f.posts) > maxFeedPosts {
		f.posts = f.posts[:maxFeedPosts]
	}
	f.cursor = page.Cursor
	f.hasMore = page.Cursor != ""
	f.mu.Unlock()
	f.broadcast()
	return nil
}

// LikePost flips the heart immediately and reverts it if the server
// disagrees. Repeat calls on one post are serialized, never interleaved.
func (f *Feed) LikePost(ctx context.Context, id string) error {
	unlock := f.locks.Lock(id)
	defer unlock()

	prev, ok := f.updatePost(id, func(p *model.Post) {
		if !p.Liked {
			p.Liked = true
			p.LikesCount++
		}
	})
	if !ok || prev.Liked {
		return nil
	}

	if err := f.api.LikePost(ctx, id); err != nil {
		f.restorePost(prev, err)
		return err
	}
	return nil
}

// UnlikePost is the exact inverse of LikePost.
func (f *Feed) UnlikePost(ctx context.Context, id string) error {
	unlock := f.locks.Lock(id)
	defer unlock()

	prev, ok := f.updatePost(id, func(p *model.Post) {
		if p.Liked {
			p.Liked = false
			p.LikesCount--
		}
	})
	if !ok || !prev.Liked {
		return nil
	}

	if err := f.api.UnlikePost(ctx, id); err != nil {
		f.restorePost(prev, err)
		return err
	}
	return nil
}

// CreatePost waits for the server-assigned record, then prepends it.
func (f *Feed) CreatePost(ctx context.Context, params apiclient.CreatePostParams) (model.Post, error) {
	post, err := f.api.CreatePost(ctx, params)
	if err != nil {
		f.mu.Lock()
		f.err = err.Error()
		f.mu.Unlock()
		f.broadcast()
		return model.Post{}, err
	}

	f.mu.Lock()
	f.posts = dedupePosts([]model.Post{post}, f.posts)
	if len(f.posts) > maxFeedPosts {
		f.posts = f.posts[:maxFeedPosts]
	}
	f.mu.Unlock()
	f.broadcast()
	return post, nil
}

// DeletePost removes optimistically and reinserts at the original position
// on failure.
func (f *Feed) DeletePost(ctx context.Context, id string) error {
	unlock := f.locks.Lock(id)
	defer unlock()

	f.mu.Lock()
	idx := slices.IndexFunc(f.posts, func(p model.Post) bool { return p.ID == id })
	if idx < 0 {
		f.mu.Unlock()
		return nil
	}
	removed := f.posts[idx]
	f.posts = slices.Delete(slices.Clone(f.posts), idx, idx+1)
	f.mu.Unlock()
	f.broadcast()

	if err := f.api.DeletePost(ctx, id); err != nil {
		f.mu.Lock()
		if idx > len(f.posts) {
			idx = len(f.posts)
		}
		f.posts = slices.Insert(slices.Clone(f.posts), idx, removed)
		f.err = err.Error()
		f.mu.Unlock()
		f.broadcast()
		return err
	}
	return nil
}

// updatePost mutates one post in place and returns the pre-mutation copy.
func (f *Feed) updatePost(id string, mutate func(*model.Post)) (model.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			prev := f.posts[i]
			mutate(&f.posts[i])
			changed := f.posts[i] != prev
			if changed {
				defer f.broadcast()
			}
			return prev, true
		}
	}
	return model.Post{}, false
}

func (f *Feed) restorePost(prev model.Post, cause error) {
	f.mu.Lock()
	for i := range f.posts {
		if f.posts[i].ID == prev.ID {
			f.posts[i] = prev
			break
		}
	}
	f.err = cause.Error()
	f.mu.Unlock()
	f.broadcast()
}

// dedupePosts appends page onto existing, skipping ids already present.
func dedupePosts(existing, page []model.Post) []model.Post {
	seen := make(map[string]bool, len(existing))
	out := slices.Clone(existing)
	for _, p := range existing {
		seen[p.ID] = true
	}
	for _, p := range page {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
