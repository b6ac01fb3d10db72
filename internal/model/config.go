package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mode selects where the spreadsheet comes from.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// LoginType selects how the mailbox session is authenticated.
type LoginType string

const (
	LoginPassword LoginType = "password"
	LoginOAuth2   LoginType = "oauth2"
)

// EnvPrefix prefixes environment variables that override configuration keys.
const EnvPrefix = "CASE_INGEST"

// DefaultConfigPath is read when no --config flag is given. A missing file
// is not an error.
const DefaultConfigPath = "case-ingest.yaml"

// SheetsConfig names the three worksheets that are extracted.
type SheetsConfig struct {
	Positives string `mapstructure:"positives" yaml:"positives"`
	Tests     string `mapstructure:"tests" yaml:"tests"`
	News      string `mapstructure:"news" yaml:"news"`
}

// AppConfig is the complete configuration of one ingestion run.
type AppConfig struct {
	Mode      Mode      `mapstructure:"mode" yaml:"mode"`
	LoginType LoginType `mapstructure:"login_type" yaml:"login_type"`

	Server  string `mapstructure:"server" yaml:"server"`
	Port    int    `mapstructure:"port" yaml:"port"`
	User    string `mapstructure:"user" yaml:"user"`
	Mailbox string `mapstructure:"mailbox" yaml:"mailbox"`
	Query   string `mapstructure:"query" yaml:"query"`

	// FetchSize is the number of messages requested per FETCH.
	FetchSize int `mapstructure:"fetch_size" yaml:"fetch_size"`

	// Password may be a literal, "keyring:<key>" or "prompt".
	Password string `mapstructure:"password" yaml:"password"`

	AuthURL       string `mapstructure:"auth_url" yaml:"auth_url"`
	TokenURL      string `mapstructure:"token_url" yaml:"token_url"`
	ClientID      string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret  string `mapstructure:"client_secret" yaml:"client_secret"`
	RefreshToken  string `mapstructure:"refresh_token" yaml:"refresh_token"`
	SASLMechanism string `mapstructure:"sasl_mechanism" yaml:"sasl_mechanism"`

	FilePath string `mapstructure:"file_path" yaml:"file_path"`

	OutputDir         string       `mapstructure:"output_dir" yaml:"output_dir"`
	TempDir           string       `mapstructure:"temp_dir" yaml:"temp_dir"`
	AttachmentPattern string       `mapstructure:"attachment_pattern" yaml:"attachment_pattern"`
	Sheets            SheetsConfig `mapstructure:"sheets" yaml:"sheets"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// ConfigError reports a missing or invalid configuration key.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (--%s): %s", strings.ReplaceAll(e.Field, "_", "-"), e.Message)
}

// IsConfigError reports whether err (or any error in its chain) is a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// configKeys lists every key so that environment overrides reach Unmarshal
// even when the key has no default and is absent from the file.
var configKeys = []string{
	"mode", "login_type",
	"server", "port", "user", "mailbox", "query", "fetch_size", "password",
	"auth_url", "token_url", "client_id", "client_secret", "refresh_token", "sasl_mechanism",
	"file_path", "output_dir", "temp_dir", "attachment_pattern",
	"sheets.positives", "sheets.tests", "sheets.news",
	"log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 993)
	v.SetDefault("mailbox", "INBOX")
	v.SetDefault("fetch_size", 4)
	v.SetDefault("sasl_mechanism", "xoauth2")
	v.SetDefault("output_dir", "./data/")
	v.SetDefault("temp_dir", "./tmp/")
	v.SetDefault("attachment_pattern", `[0-9]{8}data\.xlsx$`)
	v.SetDefault("sheets.positives", "日毎の陽性者数")
	v.SetDefault("sheets.tests", "PCR検査件数")
	v.SetDefault("sheets.news", "最新の情報")
	v.SetDefault("log_level", "info")
}

// LoadConfig merges defaults, the YAML file at path, CASE_INGEST_* environment
// variables and any flags that were set explicitly, in increasing priority.
// A missing file is tolerated only at DefaultConfigPath; an explicitly
// named file that does not exist is a ConfigError.
func LoadConfig(path string, flags *pflag.FlagSet) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding environment for %s: %w", key, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if strings.HasPrefix(key, "sheet_") {
				key = "sheets." + strings.TrimPrefix(key, "sheet_")
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("binding flag --%s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		switch {
		case missing && path != DefaultConfigPath:
			return nil, &ConfigError{Field: "config", Message: fmt.Sprintf("file %s does not exist", path)}
		case !missing:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))
	cfg.LoginType = LoginType(strings.ToLower(string(cfg.LoginType)))
	cfg.SASLMechanism = strings.ToLower(cfg.SASLMechanism)

	return cfg, nil
}

// Validate checks that every key required by the selected mode and login
// method is present. The first missing key is reported.
func (c *AppConfig) Validate() error {
	switch c.Mode {
	case ModeLocal:
		return requireKeys(map[string]string{"file_path": c.FilePath}, "file_path")

	case ModeRemote:
		if err := requireKeys(map[string]string{
			"login_type": string(c.LoginType),
			"server":     c.Server,
			"user":       c.User,
			"query":      c.Query,
		}, "login_type", "server", "user", "query"); err != nil {
			return err
		}

		if c.Port <= 0 || c.Port > 65535 {
			return &ConfigError{Field: "port", Message: fmt.Sprintf("invalid port %d", c.Port)}
		}
		if c.FetchSize < 1 {
			return &ConfigError{Field: "fetch_size", Message: fmt.Sprintf("must be at least 1, got %d", c.FetchSize)}
		}

		switch c.LoginType {
		case LoginPassword:
			return requireKeys(map[string]string{"password": c.Password}, "password")

		case LoginOAuth2:
			if err := requireKeys(map[string]string{
				"auth_url":      c.AuthURL,
				"token_url":     c.TokenURL,
				"client_id":     c.ClientID,
				"client_secret": c.ClientSecret,
				"refresh_token": c.RefreshToken,
			}, "auth_url", "token_url", "client_id", "client_secret", "refresh_token"); err != nil {
				return err
			}

			switch c.SASLMechanism {
			case "xoauth2", "oauthbearer":
				return nil
			default:
				return &ConfigError{Field: "sasl_mechanism", Message: fmt.Sprintf("unknown mechanism %q", c.SASLMechanism)}
			}

		default:
			return &ConfigError{Field: "login_type", Message: fmt.Sprintf("unknown login method %q (expected password or oauth2)", c.LoginType)}
		}

	case "":
		return &ConfigError{Field: "mode", Message: "is required (remote or local)"}

	default:
		return &ConfigError{Field: "mode", Message: fmt.Sprintf("unknown mode %q (expected remote or local)", c.Mode)}
	}
}

func requireKeys(values map[string]string, order ...string) error {
	for _, key := range order {
		if strings.TrimSpace(values[key]) == "" {
			return &ConfigError{Field: key, Message: "is required for this mode"}
		}
	}
	return nil
}
