package apiclient

import (
	"context"
	"net/http"

	"github.com/hearth-app/hearth-client/internal/model"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type AuthResult struct {
	Token string     `json:"token" validate:"required"`
	User  model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", creds, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, params SignupParams) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", params, &out)
	return out, err
}

// AppleLogin exchanges an Apple identity token for a session.
func (c *Client) AppleLogin(ctx context.Context, identityToken string) (AuthResult, error) {
	var out AuthResult
	body := struct {
		IdentityToken string `json:"identity_token"`
	}{identityToken}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/apple", body, &out)
	return out, err
}

type meResponse struct {
	User model.User `json:"user"`
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out meResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &out)
	return out.User, err
}
