// Package apikey implements ports.ApiKeyPort by resolving named secrets
// (LLM provider keys, webhook tokens) from the process environment,
// optionally seeded from a .env file at startup.
package apikey

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// EnvStore resolves key IDs to environment variable values. A key ID like
// "openai" resolves to the OPENAI_API_KEY variable by default; callers can
// register explicit overrides for key IDs that don't follow that
// convention.
type EnvStore struct {
	mu        sync.RWMutex
	overrides map[string]string
}

// NewEnvStore builds an EnvStore. Pass one or more .env file paths to load
// before environment lookups begin; a missing file is not an error, since
// production deployments set real environment variables directly.
func NewEnvStore(dotenvPaths ...string) (*EnvStore, error) {
	for _, path := range dotenvPaths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("apikey: load %s: %w", path, err)
		}
	}
	return &EnvStore{overrides: make(map[string]string)}, nil
}

// WithOverride registers an explicit environment variable name for a key
// ID that doesn't follow the "<KEY_ID>_API_KEY" convention.
func (s *EnvStore) WithOverride(keyID, envVar string) *EnvStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[keyID] = envVar
	return s
}

// Get resolves keyID to its environment variable's value.
func (s *EnvStore) Get(ctx context.Context, keyID string) (string, error) {
	s.mu.RLock()
	envVar, overridden := s.overrides[keyID]
	s.mu.RUnlock()
	if !overridden {
		envVar = defaultEnvVar(keyID)
	}

	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("apikey: %s not set (resolved from key %q)", envVar, keyID)
	}
	return value, nil
}

func defaultEnvVar(keyID string) string {
	return strings.ToUpper(strings.ReplaceAll(keyID, "-", "_")) + "_API_KEY"
}
