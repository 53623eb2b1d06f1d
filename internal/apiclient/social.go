package apiclient

import (
	"context"
	"net/http"

	"github.com/hearth-app/hearth-client/internal/model"
)

type communitiesResponse struct {
	Communities []model.Community `json:"communities" validate:"dive"`
}

func (c *Client) Communities(ctx context.Context) ([]model.Community, error) {
	v, err := c.getShared("communities", func() (any, error) {
		var out communitiesResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/communities", nil, &out); err != nil {
			return nil, err
		}
		return out.Communities, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Community), nil
}

func (c *Client) JoinCommunity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/communities/"+id+"/members", nil, nil)
}

func (c *Client) LeaveCommunity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/communities/"+id+"/members", nil, nil)
}

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications" validate:"dive"`
}

func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	v, err := c.getShared("notifications", func() (any, error) {
		var out notificationsResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil, &out); err != nil {
			return nil, err
		}
		return out.Notifications, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Notification), nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/notifications/"+id+"/read", nil, nil)
}

type momentsResponse struct {
	Moments []model.Moment `json:"moments" validate:"dive"`
}

func (c *Client) Moments(ctx context.Context) ([]model.Moment, error) {
	var out momentsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/moments", nil, &out)
	return out.Moments, err
}

type momentResponse struct {
	Moment model.Moment `json:"moment"`
}

func (c *Client) PostMoment(ctx context.Context, mediaURL, caption string) (model.Moment, error) {
	var out momentResponse
	payload := struct {
		MediaURL string `json:"media_url"`
		Caption  string `json:"caption"`
	}{mediaURL, caption}
	err := c.do(ctx, http.MethodPost, "/api/v1/moments", payload, &out)
	return out.Moment, err
}

type proposalsResponse struct {
	Proposals []model.Proposal `json:"proposals" validate:"dive"`
}

func (c *Client) Proposals(ctx context.Context, communityID string) ([]model.Proposal, error) {
	path := "/api/v1/proposals"
	if communityID != "" {
		path += "?community_id=" + communityID
	}
	var out proposalsResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Proposals, err
}

type proposalResponse struct {
	Proposal model.Proposal `json:"proposal"`
}

// CastVote records a vote and returns the server's updated tally.
func (c *Client) CastVote(ctx context.Context, proposalID, choice string) (model.Proposal, error) {
	var out proposalResponse
	payload := struct {
		Choice string `json:"choice"`
	}{choice}
	err := c.do(ctx, http.MethodPost, "/api/v1/proposals/"+proposalID+"/votes", payload, &out)
	return out.Proposal, err
}
