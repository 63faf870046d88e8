package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes assets under Dir and serves them from PublicURL.
// The API mounts Dir at /assets, so PublicURL is usually
// "<host>/assets".
type LocalStore struct {
	Dir       string
	PublicURL string
}

// NewLocalStore creates the base directory if it does not exist.
func NewLocalStore(dir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir, PublicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Store writes data to Dir/key and returns its public URL. contentType is
// implied by the key's extension when served.
func (s *LocalStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	absPath := filepath.Join(s.Dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", err
	}

	// Rename into place; readers never see a partial asset.
	tmp := absPath + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, absPath); err != nil {
		os.Remove(tmp)
		return "", err
	}

	return s.PublicURL + "/" + clean, nil
}

// Path returns the local path for a key previously stored.
func (s *LocalStore) Path(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, filepath.FromSlash(clean)), nil
}

// LocalPath maps a URL returned by Store back to its file. ok is false for
// URLs outside PublicURL.
func (s *LocalStore) LocalPath(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, s.PublicURL+"/")
	if !ok {
		return "", false
	}
	path, err := s.Path(rest)
	if err != nil {
		return "", false
	}
	return path, true
}

func cleanKey(key string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + key))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	return clean, nil
}
