package devstub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/model"
)

// devSecret signs fixture tokens. Real authentication lives on the real
// backend; this only gives the client a structurally valid JWT to cache.
var devSecret = []byte("hearth-devserver-secret")

// Routes builds the fixture REST API plus the /ws game endpoint.
func Routes(reg *Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	f := fixtures()

	r.Post("/api/v1/auth/login", f.login)
	r.Post("/api/v1/auth/signup", f.login)
	r.Post("/api/v1/auth/apple", f.appleLogin)
	r.Get("/api/v1/me", f.me)
	r.Get("/api/v1/feed", f.feed)
	r.Post("/api/v1/posts", f.createPost)
	r.Delete("/api/v1/posts/{id}", noContent)
	r.Post("/api/v1/posts/{id}/like", noContent)
	r.Delete("/api/v1/posts/{id}/like", noContent)
	r.Get("/api/v1/posts/{id}/comments", f.comments)
	r.Post("/api/v1/posts/{id}/comments", f.addComment)
	r.Get("/api/v1/communities", f.listCommunities)
	r.Post("/api/v1/communities/{id}/members", noContent)
	r.Delete("/api/v1/communities/{id}/members", noContent)
	r.Get("/api/v1/notifications", f.notifications)
	r.Post("/api/v1/notifications/{id}/read", noContent)
	r.Get("/api/v1/moments", f.moments)
	r.Post("/api/v1/moments", f.postMoment)
	r.Get("/api/v1/proposals", f.proposals)
	r.Post("/api/v1/proposals/{id}/votes", f.castVote)
	r.Get("/healthz", healthz)
	r.Get("/ws", WSHandler(reg, log))
	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func noContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

type fixtureData struct {
	user        model.User
	posts       []model.Post
	communities []model.Community
	nextID      int
}

func fixtures() *fixtureData {
	now := time.Now()
	user := model.User{
		ID:          "u-dev",
		Username:    "devuser",
		DisplayName: "Dev User",
		CreatedAt:   now.Add(-30 * 24 * time.Hour),
	}
	posts := make([]model.Post, 0, 40)
	for i := 0; i < 40; i++ {
		posts = append(posts, model.Post{
			ID:         fmt.Sprintf("p-%02d", i),
			AuthorID:   user.ID,
			Author:     &user,
			Body:       fmt.Sprintf("fixture post %d", i),
			LikesCount: i % 5,
			CreatedAt:  now.Add(-time.Duration(i) * time.Hour),
		})
	}
	return &fixtureData{
		user:  user,
		posts: posts,
		communities: []model.Community{
			{ID: "c-1", Name: "Game Night", Description: "weekly party games", MembersCount: 12, CreatedAt: now},
			{ID: "c-2", Name: "Book Club", MembersCount: 7, IsMember: true, MyRole: "member", CreatedAt: now},
		},
		nextID: 100,
	}
}

func (f *fixtureData) mintToken() (string, error) {
	claims := jwt.MapClaims{
		"sub": f.user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(devSecret)
}

func (f *fixtureData) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusUnauthorized, "bad_credentials", "email and password required")
		return
	}
	token, err := f.mintToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "token signing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": f.user})
}

func (f *fixtureData) appleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IdentityToken string `json:"identity_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IdentityToken == "" {
		writeError(w, http.StatusUnauthorized, "bad_identity_token", "identity token required")
		return
	}
	token, err := f.mintToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "token signing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": f.user})
}

func (f *fixtureData) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": f.user})
}

func (f *fixtureData) feed(w http.ResponseWriter, r *http.Request) {
	const pageSize = 20
	start := 0
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		fmt.Sscanf(cursor, "offset-%d", &start)
	}
	end := min(start+pageSize, len(f.posts))
	next := ""
	if end < len(f.posts) {
		next = fmt.Sprintf("offset-%d", end)
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": f.posts[start:end], "cursor": next})
}

func (f *fixtureData) createPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Body        string `json:"body"`
		CommunityID string `json:"community_id"`
		ImageURL    string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	f.nextID++
	post := model.Post{
		ID:          fmt.Sprintf("p-%d", f.nextID),
		AuthorID:    f.user.ID,
		Author:      &f.user,
		CommunityID: body.CommunityID,
		Body:        body.Body,
		ImageURL:    body.ImageURL,
		CreatedAt:   time.Now(),
	}
	writeJSON(w, http.StatusCreated, map[string]any{"post": post})
}

func (f *fixtureData) comments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{"comments": []model.Comment{
		{ID: "cm-1", PostID: postID, AuthorID: f.user.ID, Body: "nice one", CreatedAt: time.Now()},
	}})
}

func (f *fixtureData) addComment(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	f.nextID++
	writeJSON(w, http.StatusCreated, map[string]any{"comment": model.Comment{
		ID:        fmt.Sprintf("cm-%d", f.nextID),
		PostID:    postID,
		AuthorID:  f.user.ID,
		Body:      body.Body,
		CreatedAt: time.Now(),
	}})
}

func (f *fixtureData) listCommunities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"communities": f.communities})
}

func (f *fixtureData) notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"notifications": []model.Notification{
		{ID: "n-1", Type: "like", ActorID: "u-2", TargetID: "p-01", TargetType: "post", Message: "liked your post", CreatedAt: time.Now()},
		{ID: "n-2", Type: "comment", ActorID: "u-3", TargetID: "p-02", TargetType: "post", Message: "commented", Read: true, CreatedAt: time.Now()},
	}})
}

func (f *fixtureData) moments(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{"moments": []model.Moment{
		{ID: "m-1", AuthorID: f.user.ID, Caption: "right now", CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)},
	}})
}

func (f *fixtureData) postMoment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MediaURL string `json:"media_url"`
		Caption  string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	f.nextID++
	now := time.Now()
	writeJSON(w, http.StatusCreated, map[string]any{"moment": model.Moment{
		ID:        fmt.Sprintf("m-%d", f.nextID),
		AuthorID:  f.user.ID,
		MediaURL:  body.MediaURL,
		Caption:   body.Caption,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}})
}

func (f *fixtureData) proposals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"proposals": []model.Proposal{
		{
			ID: "pr-1", CommunityID: "c-2", Title: "Next book: sci-fi?",
			Status: "open", VotesFor: 4, VotesAgainst: 2,
			ClosesAt: time.Now().Add(48 * time.Hour), CreatedAt: time.Now(),
		},
	}})
}

func (f *fixtureData) castVote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Choice string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || (body.Choice != "for" && body.Choice != "against") {
		writeError(w, http.StatusBadRequest, "bad_choice", "choice must be for or against")
		return
	}
	votesFor, votesAgainst := 4, 2
	if body.Choice == "for" {
		votesFor++
	} else {
		votesAgainst++
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposal": model.Proposal{
		ID: id, CommunityID: "c-2", Title: "Next book: sci-fi?",
		Status: "open", VotesFor: votesFor, VotesAgainst: votesAgainst, MyVote: body.Choice,
		ClosesAt: time.Now().Add(48 * time.Hour), CreatedAt: time.Now(),
	}})
}
