package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hearth-app/hearth-client/internal/model"
)

type FeedPage struct {
	Posts  []model.Post `json:"posts" validate:"dive"`
	Cursor string       `json:"cursor"`
}

// Feed fetches one page. Identical concurrent calls share one request.
func (c *Client) Feed(ctx context.Context, cursor string, limit int) (FeedPage, error) {
	key := fmt.Sprintf("feed:%s:%d", cursor, limit)
	v, err := c.getShared(key, func() (any, error) {
		q := url.Values{}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		if limit > 0 {
			q.Set("limit", fmt.Sprint(limit))
		}
		path := "/api/v1/feed"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
		var out FeedPage
		if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return FeedPage{}, err
		}
		return out, nil
	})
	if err != nil {
		return FeedPage{}, err
	}
	return v.(FeedPage), nil
}

type CreatePostParams struct {
	Body        string `json:"body"`
	CommunityID string `json:"community_id,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type postResponse struct {
	Post model.Post `json:"post"`
}

func (c *Client) CreatePost(ctx context.Context, params CreatePostParams) (model.Post, error) {
	var out postResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/posts", params, &out)
	return out.Post, err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/posts/"+id, nil, nil)
}

func (c *Client) LikePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/posts/"+id+"/like", nil, nil)
}

func (c *Client) UnlikePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/posts/"+id+"/like", nil, nil)
}

type commentsResponse struct {
	Comments []model.Comment `json:"comments" validate:"dive"`
}

func (c *Client) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	var out commentsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/posts/"+postID+"/comments", nil, &out)
	return out.Comments, err
}

type commentResponse struct {
	Comment model.Comment `json:"comment"`
}

func (c *Client) AddComment(ctx context.Context, postID, body string) (model.Comment, error) {
	var out commentResponse
	payload := struct {
		Body string `json:"body"`
	}{body}
	err := c.do(ctx, http.MethodPost, "/api/v1/posts/"+postID+"/comments", payload, &out)
	return out.Comment, err
}
