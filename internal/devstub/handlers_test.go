package devstub

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/session"
	"github.com/hearth-app/hearth-client/pkg/wire"
)

// These run the real client against the stub, so a contract drift between
// the two shows up here first.

func stubServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zap.NewNop()
	reg := NewRegistry(context.Background(), log)
	t.Cleanup(reg.Shutdown)
	srv := httptest.NewServer(Routes(reg, log))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstStubREST(t *testing.T) {
	srv := stubServer(t)
	tokens := &apiclient.TokenStore{}
	api := apiclient.New(srv.URL, 5*time.Second, tokens, zap.NewNop())
	ctx := context.Background()

	result, err := api.Login(ctx, apiclient.Credentials{Email: "dev@hearth.app", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "devuser", result.User.Username)
	tokens.Set(result.Token)

	page, err := api.Feed(ctx, "", 20)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 20)
	assert.NotEmpty(t, page.Cursor)

	page2, err := api.Feed(ctx, page.Cursor, 20)
	require.NoError(t, err)
	assert.NotEqual(t, page.Posts[0].ID, page2.Posts[0].ID)

	communities, err := api.Communities(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, communities)

	proposals, err := api.Proposals(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, proposals)

	voted, err := api.CastVote(ctx, proposals[0].ID, "for")
	require.NoError(t, err)
	assert.Equal(t, "for", voted.MyVote)
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	srv := stubServer(t)
	api := apiclient.New(srv.URL, 5*time.Second, &apiclient.TokenStore{}, zap.NewNop())

	_, err := api.Login(context.Background(), apiclient.Credentials{})
	require.Error(t, err)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad_credentials", apiErr.Code)
}

func TestClientSessionAgainstStubSocket(t *testing.T) {
	srv := stubServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?game=g-test"

	s, err := session.Dial(context.Background(), wsURL, "token", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	ch, cancel := s.Subscribe()
	defer cancel()

	// wait for the room's initial state to land in the mirror
	require.Eventually(t, func() bool {
		return s.State().State.Phase == wire.PhaseTeamSetup
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Send("ready", nil))

	require.Eventually(t, func() bool {
		return s.State().State.Phase == wire.PhaseFaceoff
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.State().Pending == 0
	}, 2*time.Second, 10*time.Millisecond, "the stub acks every action")

	// drain the subscription to make sure snapshots flowed as well
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}
