// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials for the search backends. Each file in
// the secrets directory holds one secret: the filename is the key and the
// trimmed contents are the value. Keys missing from the directory fall back
// to environment variables (semantic-scholar-api-key reads
// LITSWEEP_SECRET_SEMANTIC_SCHOLAR_API_KEY).
//
// Known keys: semantic-scholar-api-key, openalex-email.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets/"

// EnvPrefix prefixes the environment fallback for a secret key.
const EnvPrefix = "LITSWEEP_SECRET_"

// KnownKeys lists the secrets the pipeline reads.
var KnownKeys = []string{"semantic-scholar-api-key", "openalex-email"}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, eris.Wrapf(err, "reading secrets directory %s", dir)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			zap.L().Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadWithEnv is Load followed by the environment fallback for every key in
// KnownKeys that the directory did not provide.
func LoadWithEnv(dir string) (map[string]string, error) {
	secrets, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for _, key := range KnownKeys {
		if _, ok := secrets[key]; ok {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(EnvName(key))); v != "" {
			secrets[key] = v
		}
	}
	return secrets, nil
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
