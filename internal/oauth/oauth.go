package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Config holds what is needed to trade a refresh token for an access token.
type Config struct {
	AuthURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// AccessToken exchanges the configured refresh token at the token endpoint
// and returns the new access token.
func AccessToken(ctx context.Context, cfg Config) (string, error) {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("refreshing access token at %s: %w", cfg.TokenURL, err)
	}

	if token.AccessToken == "" {
		return "", errors.New("token endpoint returned an empty access token")
	}

	return token.AccessToken, nil
}
