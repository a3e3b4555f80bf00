// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. A .env file in the same directory supplies keys
// that have no file of their own, and process environment variables override both.
//
// Supported keys: anthropic-api-key, openai-api-key, neo4j-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Well-known secret names.
const (
	AnthropicAPIKey = "anthropic-api-key"
	OpenAIAPIKey    = "openai-api-key"
	Neo4jPassword   = "neo4j-password"
)

const envFile = ".env"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	hasEnv := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == envFile {
			hasEnv = true
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	if hasEnv {
		vars, err := godotenv.Read(filepath.Join(dir, envFile))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not parse %s: %v\n", envFile, err)
			return secrets, nil
		}
		for k, v := range vars {
			name := KeyName(k)
			v = strings.TrimSpace(v)
			if _, ok := secrets[name]; !ok && v != "" {
				secrets[name] = v
			}
		}
	}

	return secrets, nil
}

// Lookup returns the value for key, preferring the environment variable
// named by EnvName(key) over the loaded secrets.
func Lookup(secrets map[string]string, key string) string {
	if v := strings.TrimSpace(os.Getenv(EnvName(key))); v != "" {
		return v
	}
	return secrets[key]
}

// EnvName maps a key name to its environment variable, e.g.
// anthropic-api-key to ANTHROPIC_API_KEY.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// KeyName is the inverse of EnvName.
func KeyName(env string) string {
	return strings.ToLower(strings.ReplaceAll(env, "_", "-"))
}
