package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unimarket/authctx/pkg/domain"
)

const valueExt = ".val"

// Tier implements ports.Tier using the local filesystem.
// It stores one file per key in a configured directory, so every process
// pointed at the same directory shares it (the cross-tab tier).
type Tier struct {
	BasePath string
}

// NewTier creates a new Tier with the given base path.
// If basePath is empty, it defaults to ".unimarket/storage".
func NewTier(basePath string) *Tier {
	if basePath == "" {
		basePath = filepath.Join(".unimarket", "storage")
	}
	return &Tier{BasePath: basePath}
}

func (t *Tier) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(t.BasePath, key+valueExt), nil
}

// keyOf maps a file name back to its key. Temp files and foreign files are rejected.
func keyOf(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "tmp-") || filepath.Ext(base) != valueExt {
		return "", false
	}
	return strings.TrimSuffix(base, valueExt), true
}

// Set persists the value atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (t *Tier) Set(ctx context.Context, key, value string) error {
	destPath, err := t.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(t.BasePath, 0o700); err != nil {
		return fmt.Errorf("%w: failed to ensure storage directory: %v", domain.ErrStorageUnavailable, err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(t.BasePath, "tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", domain.ErrStorageUnavailable, err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.WriteString(value); err != nil {
		return fmt.Errorf("%w: failed to write temp file: %v", domain.ErrStorageUnavailable, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("%w: failed to fsync temp file: %v", domain.ErrStorageUnavailable, err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", domain.ErrStorageUnavailable, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("%w: failed to rename temp file: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Get reads the value stored under key.
func (t *Tier) Get(ctx context.Context, key string) (string, error) {
	p, err := t.path(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: failed to read %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	return string(data), nil
}

// Delete removes the files of the given keys.
func (t *Tier) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		p, err := t.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: failed to delete %s: %v", domain.ErrStorageUnavailable, key, err)
		}
	}
	return nil
}

// List returns every stored key.
func (t *Tier) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(t.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if key, ok := keyOf(entry.Name()); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
