package ingest

import (
	"context"
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/oauth"
	"github.com/nhle/case-ingest/internal/source"
	"github.com/nhle/case-ingest/internal/source/email"
	"github.com/nhle/case-ingest/internal/source/local"
	"github.com/nhle/case-ingest/internal/store"
)

// SecretResolver turns configured secret values (literals or references)
// into plain secrets.
type SecretResolver interface {
	Resolve(name, value string) (string, error)
}

// TokenExchanger trades a refresh token for an access token.
type TokenExchanger func(ctx context.Context, cfg oauth.Config) (string, error)

// FromConfig validates cfg and builds the Runner for it. Configuration
// problems are reported before any network or file I/O.
func FromConfig(
	ctx context.Context,
	cfg *model.AppConfig,
	secrets SecretResolver,
	exchange TokenExchanger,
	logger *log.Logger,
) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src, err := buildSource(ctx, cfg, secrets, exchange, logger)
	if err != nil {
		return nil, err
	}

	return NewRunner(src, store.NewJSONStore(cfg.OutputDir), cfg.Sheets, cfg.TempDir, logger), nil
}

func buildSource(
	ctx context.Context,
	cfg *model.AppConfig,
	secrets SecretResolver,
	exchange TokenExchanger,
	logger *log.Logger,
) (source.Source, error) {
	if cfg.Mode == model.ModeLocal {
		logger.Info("using local spreadsheet", "file", cfg.FilePath)
		return local.NewAdapter(cfg.FilePath), nil
	}

	pattern, err := regexp.Compile(cfg.AttachmentPattern)
	if err != nil {
		return nil, &model.ConfigError{Field: "attachment_pattern", Message: err.Error()}
	}

	criteria, err := email.ParseQuery(cfg.Query)
	if err != nil {
		return nil, &model.ConfigError{Field: "query", Message: err.Error()}
	}

	creds, err := credentials(ctx, cfg, secrets, exchange)
	if err != nil {
		return nil, err
	}

	client := email.NewIMAPClient(cfg.Server, cfg.Port, creds)

	return email.NewAdapter(client, email.Options{
		Mailbox:     cfg.Mailbox,
		Criteria:    criteria,
		FetchSize:   cfg.FetchSize,
		Pattern:     pattern,
		LocalOffset: email.LocalOffset(),
	}, logger), nil
}

func credentials(
	ctx context.Context,
	cfg *model.AppConfig,
	secrets SecretResolver,
	exchange TokenExchanger,
) (email.Credentials, error) {
	switch cfg.LoginType {
	case model.LoginPassword:
		password, err := secrets.Resolve("password", cfg.Password)
		if err != nil {
			return nil, &model.ConfigError{Field: "password", Message: err.Error()}
		}
		return email.PasswordCredentials{User: cfg.User, Password: password}, nil

	case model.LoginOAuth2:
		clientSecret, err := secrets.Resolve("client_secret", cfg.ClientSecret)
		if err != nil {
			return nil, &model.ConfigError{Field: "client_secret", Message: err.Error()}
		}
		refreshToken, err := secrets.Resolve("refresh_token", cfg.RefreshToken)
		if err != nil {
			return nil, &model.ConfigError{Field: "refresh_token", Message: err.Error()}
		}

		token, err := exchange(ctx, oauth.Config{
			AuthURL:      cfg.AuthURL,
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: clientSecret,
			RefreshToken: refreshToken,
		})
		if err != nil {
			return nil, &source.AuthError{
				SourceType: source.SourceTypeEmail,
				Message:    fmt.Sprintf("failed to obtain access token: %v", err),
				Err:        err,
			}
		}

		return email.BearerCredentials{
			User:        cfg.User,
			AccessToken: token,
			Mechanism:   email.Mechanism(cfg.SASLMechanism),
		}, nil

	default:
		return nil, &model.ConfigError{Field: "login_type", Message: fmt.Sprintf("unknown login method %q", cfg.LoginType)}
	}
}
