package store

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/model"
)

// Proposals mirrors community governance items and the user's votes.
type Proposals struct {
	notifier

	api   *apiclient.Client
	log   *zap.Logger
	locks keyedLocks

	mu      sync.Mutex
	items   []model.Proposal
	loading bool
	err     string
}

type ProposalsState struct {
	Items     []model.Proposal
	IsLoading bool
	Error     string
}

func NewProposals(api *apiclient.Client, log *zap.Logger) *Proposals {
	return &Proposals{api: api, log: log}
}

func (p *Proposals) State() ProposalsState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProposalsState{Items: slices.Clone(p.items), IsLoading: p.loading, Error: p.err}
}

func (p *Proposals) Refresh(ctx context.Context, communityID string) error {
	p.mu.Lock()
	p.loading = true
	p.err = ""
	p.mu.Unlock()
	p.broadcast()

	items, err := p.api.Proposals(ctx, communityID)

	p.mu.Lock()
	p.loading = false
	if err != nil {
		p.err = err.Error()
		p.mu.Unlock()
		p.broadcast()
		return err
	}
	p.items = items
	p.mu.Unlock()
	p.broadcast()
	return nil
}

// Vote applies the tally change locally, including moving a changed vote
// off the previous side, then reconciles with the server's record.
func (p *Proposals) Vote(ctx context.Context, id, choice string) error {
	if choice != "for" && choice != "against" {
		return nil
	}
	unlock := p.locks.Lock(id)
	defer unlock()

	p.mu.Lock()
	idx := slices.IndexFunc(p.items, func(item model.Proposal) bool { return item.ID == id })
	if idx < 0 || p.items[idx].MyVote == choice {
		p.mu.Unlock()
		return nil
	}
	prev := p.items[idx]
	next := prev
	switch prev.MyVote {
	case "for":
		next.VotesFor--
	case "against":
		next.VotesAgainst--
	}
	if choice == "for" {
		next.VotesFor++
	} else {
		next.VotesAgainst++
	}
	next.MyVote = choice
	p.items[idx] = next
	p.mu.Unlock()
	p.broadcast()

	updated, err := p.api.CastVote(ctx, id, choice)

	p.mu.Lock()
	defer func() {
		p.mu.Unlock()
		p.broadcast()
	}()
	for i := range p.items {
		if p.items[i].ID != id {
			continue
		}
		if err != nil {
			p.items[i] = prev
			p.err = err.Error()
			return err
		}
		// server tally wins over our local arithmetic
		p.items[i] = updated
		return nil
	}
	return err
}
