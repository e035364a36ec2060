// Package env loads .env files that supply variables to test
// modules (command probes, env probes) and identifies which of
// those values are secrets to be masked in output.
package env

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/joho/godotenv"
)

// Loader defines the interface for environment variable
// management.
type Loader interface {
	// Load reads variables from a .env file. Later files
	// override earlier ones.
	Load(path string) error
	// Get retrieves a variable; the process environment takes
	// precedence over loaded files.
	Get(key string) string
	// GetRequired retrieves a variable or returns an error.
	GetRequired(key string) (string, error)
	// GetWithDefault retrieves a variable with a fallback.
	GetWithDefault(key, defaultValue string) string
	// Set records a variable for child processes.
	Set(key, value string)
	// All returns the loaded variables.
	All() map[string]string
	// Environ returns the process environment extended with
	// the loaded variables, in KEY=VALUE form.
	Environ() []string
}

// DefaultLoader implements Loader on top of godotenv.
type DefaultLoader struct {
	mu     sync.RWMutex
	vars   map[string]string
	loaded []string
}

// NewLoader creates an empty loader.
func NewLoader() *DefaultLoader {
	return &DefaultLoader{vars: make(map[string]string)}
}

// Load parses path with godotenv without touching the process
// environment.
func (l *DefaultLoader) Load(path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range values {
		l.vars[k] = v
	}
	l.loaded = append(l.loaded, path)
	return nil
}

// Files returns the paths loaded so far.
func (l *DefaultLoader) Files() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.loaded...)
}

// Get returns the process value of key, falling back to the
// loaded value.
func (l *DefaultLoader) Get(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.vars[key]
}

// GetRequired returns key or an error when it is unset.
func (l *DefaultLoader) GetRequired(key string) (string, error) {
	v := l.Get(key)
	if v == "" {
		return "", fmt.Errorf(
			"required environment variable %s is not set", key,
		)
	}
	return v, nil
}

// GetWithDefault returns key or defaultValue when unset.
func (l *DefaultLoader) GetWithDefault(key, defaultValue string) string {
	if v := l.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// Set records a variable for child processes. The process
// environment is left unchanged.
func (l *DefaultLoader) Set(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vars[key] = value
}

// All returns a copy of the loaded variables.
func (l *DefaultLoader) All() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make(map[string]string, len(l.vars))
	for k, v := range l.vars {
		result[k] = v
	}
	return result
}

// Environ returns os.Environ() followed by the loaded
// variables not already set in the process, sorted by key.
func (l *DefaultLoader) Environ() []string {
	environ := os.Environ()

	l.mu.RLock()
	keys := make([]string, 0, len(l.vars))
	for k := range l.vars {
		if _, ok := os.LookupEnv(k); !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		environ = append(environ, k+"="+l.vars[k])
	}
	l.mu.RUnlock()

	return environ
}

// Secrets returns the loaded values whose keys look like
// credentials.
func (l *DefaultLoader) Secrets() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var secrets []string
	for k, v := range l.vars {
		if IsSecretKey(k) && v != "" {
			secrets = append(secrets, v)
		}
	}
	sort.Strings(secrets)
	return secrets
}
