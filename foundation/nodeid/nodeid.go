// Package nodeid provides the identity a node is credited under when it
// mines a block.
package nodeid

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// New returns a random identity: a version 4 uuid without its dashes.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Load returns the identity stored in the file at path. When path is empty
// a random identity is returned. When the file does not exist a random
// identity is generated and written to it so the node keeps its identity
// across restarts.
func Load(path string) (string, error) {
	if path == "" {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		id := New()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("creating identity folder: %w", err)
		}
		if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
			return "", fmt.Errorf("writing identity: %w", err)
		}
		return id, nil

	case err != nil:
		return "", fmt.Errorf("reading identity: %w", err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("identity file %q is empty", path)
	}

	return id, nil
}
