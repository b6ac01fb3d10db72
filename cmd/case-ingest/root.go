package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nhle/case-ingest/internal/credential"
	"github.com/nhle/case-ingest/internal/ingest"
	"github.com/nhle/case-ingest/internal/logging"
	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/oauth"
)

// usageError marks errors cobra has already printed.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "case-ingest",
		Short: "Ingest the published case-statistics spreadsheet into JSON artifacts",
		Long: "case-ingest locates the newest statistics spreadsheet in an IMAP mailbox\n" +
			"(or takes a local file), checks that it is newer than the last ingested\n" +
			"revision, and writes the extracted series, status tree and news list as JSON.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := model.LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return &model.ConfigError{Field: "log_level", Message: err.Error()}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			runner, err := ingest.FromConfig(ctx, cfg, credential.NewResolver(), oauth.AccessToken, logger)
			if err != nil {
				return err
			}

			_, err = runner.Run(ctx)
			return err
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(c.ErrOrStderr(), "%v\n\n%s", err, c.UsageString())
		return &usageError{err: err}
	})

	cmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath, "Path to a YAML configuration file")

	flags := cmd.Flags()
	flags.String("mode", "", "Run mode: remote (IMAP) or local (file)")
	flags.String("login-type", "", "IMAP login method: password or oauth2")
	flags.String("server", "", "IMAP server address")
	flags.Int("port", 993, "IMAP server port")
	flags.String("user", "", "IMAP user name")
	flags.String("password", "", "Password, keyring:<key>, or prompt")
	flags.String("mailbox", "INBOX", "Mailbox to search")
	flags.String("query", "", `IMAP SEARCH keys, e.g. 'FROM "stats@example.org" SINCE 1-Apr-2023'`)
	flags.Int("fetch-size", 4, "Maximum number of messages fetched per request")
	flags.String("auth-url", "", "OAuth2 authorization URL")
	flags.String("token-url", "", "OAuth2 token URL")
	flags.String("client-id", "", "OAuth2 client ID")
	flags.String("client-secret", "", "OAuth2 client secret or keyring:<key>")
	flags.String("refresh-token", "", "OAuth2 refresh token or keyring:<key>")
	flags.String("sasl-mechanism", "xoauth2", "SASL mechanism for oauth2 login: xoauth2 or oauthbearer")
	flags.String("file-path", "", "Spreadsheet path for local mode")
	flags.String("output-dir", "./data/", "Directory the JSON artifacts are written to")
	flags.String("temp-dir", "./tmp/", "Directory for downloaded attachments")
	flags.String("attachment-pattern", `[0-9]{8}data\.xlsx$`, "Regular expression an attachment name must match")
	flags.String("sheet-positives", "日毎の陽性者数", "Worksheet with daily positive counts")
	flags.String("sheet-tests", "PCR検査件数", "Worksheet with cumulative test counts and the status row")
	flags.String("sheet-news", "最新の情報", "Worksheet with news items")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	cmd.AddCommand(newCredentialCmd())

	cmd.SetContext(context.Background())

	return cmd
}
