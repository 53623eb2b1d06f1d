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

func newProposalsFixture(t *testing.T, handler http.HandlerFunc) *Proposals {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api := apiclient.New(srv.URL, 5*time.Second, &apiclient.TokenStore{}, zap.NewNop())
	return NewProposals(api, zap.NewNop())
}

func proposalList() []model.Proposal {
	return []model.Proposal{{
		ID: "pr-1", CommunityID: "c-1", Title: "proposal",
		Status: "open", VotesFor: 4, VotesAgainst: 2,
	}}
}

func TestVoteMergesServerTally(t *testing.T) {
	p := newProposalsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/proposals" {
			_ = json.NewEncoder(w).Encode(map[string]any{"proposals": proposalList()})
			return
		}
		// server counted one more than our local arithmetic expected
		_ = json.NewEncoder(w).Encode(map[string]any{"proposal": model.Proposal{
			ID: "pr-1", CommunityID: "c-1", Title: "proposal",
			Status: "open", VotesFor: 6, VotesAgainst: 2, MyVote: "for",
		}})
	})

	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx, ""))
	require.NoError(t, p.Vote(ctx, "pr-1", "for"))

	got := p.State().Items[0]
	assert.Equal(t, "for", got.MyVote)
	assert.Equal(t, 6, got.VotesFor, "server tally wins")
}

func TestFailedVoteRollsBack(t *testing.T) {
	p := newProposalsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/proposals" {
			_ = json.NewEncoder(w).Encode(map[string]any{"proposals": proposalList()})
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"closed","message":"voting closed"}}`))
	})

	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx, ""))
	before := p.State().Items

	require.Error(t, p.Vote(ctx, "pr-1", "against"))

	after := p.State()
	assert.Equal(t, before, after.Items)
	assert.Equal(t, "voting closed", after.Error)
}

func TestChangedVoteMovesTallyLocally(t *testing.T) {
	gotChoice := ""
	p := newProposalsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/proposals" {
			items := proposalList()
			items[0].MyVote = "against"
			_ = json.NewEncoder(w).Encode(map[string]any{"proposals": items})
			return
		}
		var body struct {
			Choice string `json:"choice"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotChoice = body.Choice
		_ = json.NewEncoder(w).Encode(map[string]any{"proposal": model.Proposal{
			ID: "pr-1", CommunityID: "c-1", Title: "proposal",
			Status: "open", VotesFor: 5, VotesAgainst: 1, MyVote: "for",
		}})
	})

	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx, ""))
	require.NoError(t, p.Vote(ctx, "pr-1", "for"))

	assert.Equal(t, "for", gotChoice)
	got := p.State().Items[0]
	assert.Equal(t, 5, got.VotesFor)
	assert.Equal(t, 1, got.VotesAgainst)
}

func TestVoteSameChoiceIsNoop(t *testing.T) {
	p := newProposalsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/proposals" {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
		items := proposalList()
		items[0].MyVote = "for"
		_ = json.NewEncoder(w).Encode(map[string]any{"proposals": items})
	})

	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx, ""))
	require.NoError(t, p.Vote(ctx, "pr-1", "for"))

	assert.Equal(t, 4, p.State().Items[0].VotesFor)
}
