package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/volm-robotics/volm-backend/internal/config"
)

// YandexProfile is the subset of login.yandex.ru/info we store.
type YandexProfile struct {
	ID           string `json:"id"`
	DefaultEmail string `json:"default_email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

type YandexClient struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	infoURL      string
	httpClient   *http.Client
}

func NewYandexClient(cfg config.Yandex) *YandexClient {
	return &YandexClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		infoURL:    cfg.InfoURL,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (c *YandexClient) HasClientID() bool { return c.clientID != "" }

func (c *YandexClient) HasCredentials() bool {
	return c.clientID != "" && c.clientSecret != ""
}

func (c *YandexClient) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint:     c.endpoint,
		RedirectURL:  redirectURI,
	}
}

// AuthCodeURL builds the authorize URL; redirectURI is query-encoded.
func (c *YandexClient) AuthCodeURL(redirectURI string) string {
	return c.oauthConfig(redirectURI).AuthCodeURL("")
}

// Exchange trades an authorization code for an access token and fetches the
// user's profile with it.
func (c *YandexClient) Exchange(ctx context.Context, code string) (*YandexProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauthConfig("").Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	return c.fetchProfile(ctx, token.AccessToken)
}

func (c *YandexClient) fetchProfile(ctx context.Context, accessToken string) (*YandexProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build info request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info endpoint returned status %d", resp.StatusCode)
	}

	var profile YandexProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if profile.ID == "" {
		return nil, errors.New("user info has no id")
	}
	return &profile, nil
}
