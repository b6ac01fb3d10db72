package credential

import (
	"fmt"
	"strings"

	"github.com/99designs/keyring"
	"github.com/charmbracelet/huh"
)

const serviceName = "case-ingest"

// Reference prefixes accepted by Resolve.
const (
	KeyringPrefix = "keyring:"
	PromptValue   = "prompt"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/case-ingest/credentials",
		FilePasswordFunc:         Prompt,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Label: serviceName + " " + key,
		Data:  []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Prompt asks for a secret on the terminal without echoing it.
func Prompt(title string) (string, error) {
	var secret string

	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&secret).
		Run()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(title), err)
	}

	return secret, nil
}

// Resolver turns configured secret values into plain secrets.
type Resolver struct {
	get    func(key string) (string, error)
	prompt func(title string) (string, error)
}

// NewResolver returns a Resolver backed by the system keyring and the
// terminal.
func NewResolver() *Resolver {
	return &Resolver{get: Get, prompt: Prompt}
}

// Resolve returns the secret for value. "keyring:<key>" is looked up in the
// keyring, "prompt" is asked for interactively using name as the title, and
// anything else is returned unchanged.
func (r *Resolver) Resolve(name, value string) (string, error) {
	switch {
	case strings.HasPrefix(value, KeyringPrefix):
		key := strings.TrimPrefix(value, KeyringPrefix)
		if key == "" {
			return "", fmt.Errorf("%s: empty keyring reference", name)
		}
		secret, err := r.get(key)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		return secret, nil

	case value == PromptValue:
		return r.prompt(name)

	default:
		return value, nil
	}
}
