package store

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/apiclient"
	"github.com/hearth-app/hearth-client/internal/model"
	"github.com/hearth-app/hearth-client/internal/persist"
)

// Auth owns the session: who is logged in and the token every request uses.
type Auth struct {
	notifier

	api    *apiclient.Client
	cache  *persist.Cache
	tokens *apiclient.TokenStore
	log    *zap.Logger

	mu            sync.Mutex
	user          *model.User
	initialized   bool
	authenticated bool
	loading       bool
	err           string
}

type AuthState struct {
	User            *model.User
	IsInitialized   bool
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

func NewAuth(api *apiclient.Client, cache *persist.Cache, tokens *apiclient.TokenStore, log *zap.Logger) *Auth {
	return &Auth{api: api, cache: cache, tokens: tokens, log: log}
}

func (a *Auth) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	var user *model.User
	if a.user != nil {
		u := *a.user
		user = &u
	}
	return AuthState{
		User:            user,
		IsInitialized:   a.initialized,
		IsAuthenticated: a.authenticated,
		IsLoading:       a.loading,
		Error:           a.err,
	}
}

// Token returns the current session token, empty when logged out.
func (a *Auth) Token() string { return a.tokens.Get() }

// Initialize restores the session from the device cache. It makes no
// network call: with no stored token the app simply starts logged out, and
// with one it trusts the cached user until a refresh happens.
func (a *Auth) Initialize() {
	token, ok := a.cache.LoadToken()
	if ok && tokenExpired(token, time.Now()) {
		a.log.Info("cached session token expired, discarding")
		_ = a.cache.DeleteToken()
		_ = a.cache.DeleteUser()
		ok = false
	}

	a.mu.Lock()
	defer func() {
		a.mu.Unlock()
		a.broadcast()
	}()

	a.initialized = true
	if !ok {
		return
	}
	a.tokens.Set(token)
	a.authenticated = true
	if u, found := a.cache.LoadUser(); found {
		a.user = &u
	}
}

// RefreshUser re-fetches the profile behind the cached session.
func (a *Auth) RefreshUser(ctx context.Context) error {
	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.user = &user
	a.mu.Unlock()
	_ = a.cache.SaveUser(user)
	a.broadcast()
	return nil
}

func (a *Auth) Login(ctx context.Context, email, password string) error {
	return a.establish(func() (apiclient.AuthResult, error) {
		return a.api.Login(ctx, apiclient.Credentials{Email: email, Password: password})
	})
}

func (a *Auth) Signup(ctx context.Context, email, password, username string) error {
	return a.establish(func() (apiclient.AuthResult, error) {
		return a.api.Signup(ctx, apiclient.SignupParams{Email: email, Password: password, Username: username})
	})
}

func (a *Auth) AppleLogin(ctx context.Context, identityToken string) error {
	return a.establish(func() (apiclient.AuthResult, error) {
		return a.api.AppleLogin(ctx, identityToken)
	})
}

// establish runs one credential exchange. Success persists the session;
// failure leaves the store logged out with the error set.
func (a *Auth) establish(exchange func() (apiclient.AuthResult, error)) error {
	a.mu.Lock()
	a.loading = true
	a.err = ""
	a.mu.Unlock()
	a.broadcast()

	result, err := exchange()

	a.mu.Lock()
	a.loading = false
	if err != nil {
		a.user = nil
		a.authenticated = false
		a.err = err.Error()
		a.mu.Unlock()
		a.broadcast()
		return err
	}
	user := result.User
	a.user = &user
	a.authenticated = true
	a.mu.Unlock()

	a.tokens.Set(result.Token)
	if err := a.cache.SaveToken(result.Token); err != nil {
		a.log.Warn("failed to persist session token", zap.Error(err))
	}
	_ = a.cache.SaveUser(user)
	a.broadcast()
	return nil
}

// Logout drops the session locally. The server keeps its own bookkeeping.
func (a *Auth) Logout() {
	a.tokens.Set("")
	_ = a.cache.DeleteToken()
	_ = a.cache.DeleteUser()

	a.mu.Lock()
	a.user = nil
	a.authenticated = false
	a.err = ""
	a.mu.Unlock()
	a.broadcast()
}

// tokenExpired checks the exp claim without verifying the signature; the
// client has no key and the server re-checks everything anyway. Opaque
// (non-JWT) tokens are kept and left for the server to judge.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
