// Package github holds the two GitHub-facing adapters: the OAuth code
// exchanger used to prove a contributor's identity, and the contents-API
// publisher that writes accepted submissions into the target repository.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/contrib-gateway/internal/config"
	"github.com/contrib-gateway/internal/domain"
)

// Exchanger trades an OAuth authorization code for a verified identity.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*domain.OAuthIdentity, error)
}

type oauthClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	apiBaseURL   string
	http         *http.Client
}

// NewExchanger creates the production exchanger against github.com.
func NewExchanger(cfg *config.Config) Exchanger {
	return &oauthClient{
		clientID:     cfg.GitHub.ClientID,
		clientSecret: cfg.GitHub.ClientSecret,
		redirectURI:  cfg.GitHub.RedirectURI,
		tokenURL:     "https://github.com/login/oauth/access_token",
		apiBaseURL:   "https://api.github.com",
		http:         &http.Client{Timeout: cfg.GitHub.APITimeout},
	}
}

// Exchange performs the code-for-token exchange and fetches the token holder's
// profile. The authorization code is single-use on the provider side, so a
// failed exchange is never retried here. Provider rejection of the code maps
// to domain.ErrOAuthInvalidCode; network or provider errors map to
// domain.ErrOAuthExchange. The access token lives only in the returned
// identity and is never logged.
func (c *oauthClient) Exchange(ctx context.Context, code string) (*domain.OAuthIdentity, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"redirect_uri":  {c.redirectURI},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", domain.ErrOAuthExchange)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint: %w", domain.ErrOAuthExchange)
	}
	defer resp.Body.Close()

	var tok struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", domain.ErrOAuthExchange)
	}
	switch {
	case tok.Error == "bad_verification_code":
		return nil, domain.ErrOAuthInvalidCode
	case tok.Error != "" || tok.AccessToken == "":
		return nil, fmt.Errorf("token endpoint refused: %w", domain.ErrOAuthExchange)
	}

	login, email, err := c.fetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	return &domain.OAuthIdentity{
		Login:       login,
		Email:       email,
		AccessToken: tok.AccessToken,
	}, nil
}

func (c *oauthClient) fetchProfile(ctx context.Context, token string) (login, email string, err error) {
	var user struct {
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := c.getJSON(ctx, token, "/user", &user); err != nil {
		return "", "", err
	}
	if user.Email != "" {
		return user.Login, user.Email, nil
	}

	// Profile email is often unset; the primary verified address needs the
	// user:email scope. Its absence is tolerated; the identity-binding
	// policy decides downstream whether an empty email is acceptable.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := c.getJSON(ctx, token, "/user/emails", &emails); err == nil {
		for _, e := range emails {
			if e.Primary && e.Verified {
				return user.Login, e.Email, nil
			}
		}
	}
	return user.Login, "", nil
}

func (c *oauthClient) getJSON(ctx context.Context, token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build profile request: %w", domain.ErrOAuthExchange)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("profile fetch: %w", domain.ErrOAuthExchange)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile fetch status %d: %w", resp.StatusCode, domain.ErrOAuthExchange)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
