package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/model"
)

func newCommunitiesFixture(t *testing.T, handler http.HandlerFunc) *Communities {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api := apiclient.New(srv.URL, 5*time.Second, &apiclient.TokenStore{}, zap.NewNop())
	return NewCommunities(api, zap.NewNop())
}

func communityList() []model.Community {
	return []model.Community{
		{ID: "c-1", Name: "Game Night", MembersCount: 10},
		{ID: "c-2", Name: "Book Club", MembersCount: 5, IsMember: true, MyRole: "member"},
	}
}

func TestJoinAppliesImmediately(t *testing.T) {
	c := newCommunitiesFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/communities" {
			_ = json.NewEncoder(w).Encode(map[string]any{"communities": communityList()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Join(ctx, "c-1"))

	got := c.State().Items[0]
	assert.True(t, got.IsMember)
	assert.Equal(t, "member", got.MyRole)
	assert.Equal(t, 11, got.MembersCount)
}

func TestFailedJoinRollsBack(t *testing.T) {
	c := newCommunitiesFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/communities" {
			_ = json.NewEncoder(w).Encode(map[string]any{"communities": communityList()})
			return
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":"invite_only","message":"invite only"}}`))
	})

	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	before := c.State().Items

	require.Error(t, c.Join(ctx, "c-1"))

	after := c.State()
	assert.Equal(t, before, after.Items)
	assert.Equal(t, "invite only", after.Error)
}

func TestLeaveInvertsJoin(t *testing.T) {
	c := newCommunitiesFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/communities" {
			_ = json.NewEncoder(w).Encode(map[string]any{"communities": communityList()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	before := c.State().Items[1]

	require.NoError(t, c.Leave(ctx, "c-2"))
	left := c.State().Items[1]
	assert.False(t, left.IsMember)
	assert.Equal(t, before.MembersCount-1, left.MembersCount)

	require.NoError(t, c.Join(ctx, "c-2"))
	back := c.State().Items[1]
	assert.Equal(t, before.IsMember, back.IsMember)
	assert.Equal(t, before.MembersCount, back.MembersCount)
}

func TestJoinWhenAlreadyMemberIsNoop(t *testing.T) {
	c := newCommunitiesFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/communities" {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"communities": communityList()})
	})

	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Join(ctx, "c-2"))

	assert.Equal(t, 5, c.State().Items[1].MembersCount)
}
