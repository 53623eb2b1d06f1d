package model

import "time"

// Records mirrored from the /api/v1 backend. The server is authoritative for
// every field here; the client only caches. Fields tagged validate:"required"
// must be present for a response to be accepted at all.

type User struct {
	ID          string    `json:"id" validate:"required"`
	Username    string    `json:"username" validate:"required"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID          string `json:"id" validate:"required"`
	AuthorID    string `json:"author_id" validate:"required"`
	Author      *User  `json:"author,omitempty"`
	CommunityID string `json:"community_id,omitempty"`
	Body        string `json:"body"`
	ImageURL    string `json:"image_url,omitempty"`
	// LikesCount and Liked are computed per-viewer by the server.
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	Liked         bool      `json:"liked"`
	CreatedAt     time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id" validate:"required"`
	PostID    string    `json:"post_id" validate:"required"`
	AuthorID  string    `json:"author_id"`
	Author    *User     `json:"author,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Community struct {
	ID           string    `json:"id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	Description  string    `json:"description"`
	IconURL      string    `json:"icon_url,omitempty"`
	MembersCount int       `json:"members_count"`
	IsMember     bool      `json:"is_member"`
	MyRole       string    `json:"my_role,omitempty"` // "member" | "admin", empty if not joined
	CreatedAt    time.Time `json:"created_at"`
}

type Notification struct {
	ID         string    `json:"id" validate:"required"`
	Type       string    `json:"type"` // like, comment, follow, mention, proposal
	ActorID    string    `json:"actor_id"`
	Actor      *User     `json:"actor,omitempty"`
	TargetID   string    `json:"target_id"`
	TargetType string    `json:"target_type"` // post, comment, user, proposal
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Moment is an ephemeral piece of content that disappears after ExpiresAt.
type Moment struct {
	ID        string    `json:"id" validate:"required"`
	AuthorID  string    `json:"author_id"`
	Author    *User     `json:"author,omitempty"`
	MediaURL  string    `json:"media_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (m Moment) Expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && now.After(m.ExpiresAt)
}

// Proposal is a community governance item members can vote on.
type Proposal struct {
	ID           string    `json:"id" validate:"required"`
	CommunityID  string    `json:"community_id"`
	AuthorID     string    `json:"author_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Status       string    `json:"status"` // open, passed, rejected
	VotesFor     int       `json:"votes_for"`
	VotesAgainst int       `json:"votes_against"`
	MyVote       string    `json:"my_vote,omitempty"` // "for" | "against", empty if not voted
	ClosesAt     time.Time `json:"closes_at"`
	CreatedAt    time.Time `json:"created_at"`
}
