// Package credentials keeps cloud API keys in the OS secure credential store.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const Service = "hotmic"

var (
	ErrNotFound        = errors.New("credential not found")
	ErrUnknownProvider = errors.New("unknown cloud provider")
)

// Providers lists the cloud providers that take an API key, with the
// environment variable consulted when the keychain has no entry.
var Providers = map[string]string{
	"openai":   "OPENAI_API_KEY",
	"deepgram": "DEEPGRAM_API_KEY",
}

// Store reads and writes provider keys.
type Store struct {
	service string
	getenv  func(string) string
}

func New() *Store {
	return &Store{service: Service, getenv: os.Getenv}
}

// Get returns the key for provider, falling back to its environment variable.
func (s *Store) Get(provider string) (string, error) {
	envName, ok := Providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	secret, err := keyring.Get(s.service, provider)
	switch {
	case err == nil && strings.TrimSpace(secret) != "":
		return strings.TrimSpace(secret), nil
	case err != nil && !errors.Is(err, keyring.ErrNotFound):
		return "", fmt.Errorf("failed to read %s credential: %w", provider, err)
	}

	if v := strings.TrimSpace(s.getenv(envName)); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

func (s *Store) Set(provider, secret string) error {
	if _, ok := Providers[provider]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("credential must not be empty")
	}
	if err := keyring.Set(s.service, provider, secret); err != nil {
		return fmt.Errorf("failed to store %s credential: %w", provider, err)
	}
	return nil
}

// Delete removes the stored key. Deleting a missing key is not an error.
func (s *Store) Delete(provider string) error {
	if _, ok := Providers[provider]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if err := keyring.Delete(s.service, provider); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s credential: %w", provider, err)
	}
	return nil
}
