// Package test holds helpers for tests that talk to real cloud services.
package test

import (
	"os"
	"testing"
)

// EnvVars is a set of environment variables a test depends on.
type EnvVars map[string]string

// NewEnvVars skips t unless every key is set.
func NewEnvVars(t testing.TB, keys ...string) EnvVars {
	t.Helper()

	vars := make(EnvVars, len(keys))
	for _, key := range keys {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			t.Skipf("%s is not set", key)
		}
		vars[key] = v
	}
	return vars
}

// Get returns the value of key. key must be one passed to NewEnvVars.
func (x EnvVars) Get(key string) string {
	v, ok := x[key]
	if !ok {
		panic("test env var is not declared: " + key)
	}
	return v
}
