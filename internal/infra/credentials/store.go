package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	SourceNone = "none"
	SourceEnv  = "env"
	SourceFile = "file"
)

// Store resolves the fal.ai API key. An explicit value (from FAL_KEY or
// VITE_FAL_KEY) wins over a key file such as a mounted secret.
type Store struct {
	value    string
	filePath string
}

func NewStore(value, filePath string) *Store {
	return &Store{value: strings.TrimSpace(value), filePath: strings.TrimSpace(filePath)}
}

// FalAPIKey returns the key and where it came from. A missing key yields an
// empty string and SourceNone, never an error.
func (s *Store) FalAPIKey(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", SourceNone, err
	}
	if s.value != "" {
		return s.value, SourceEnv, nil
	}
	if s.filePath == "" {
		return "", SourceNone, nil
	}
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", SourceNone, nil
		}
		return "", SourceNone, fmt.Errorf("credentials: read key file: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", SourceNone, nil
	}
	return key, SourceFile, nil
}
