package credential

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"golang.org/x/crypto/blake2s"
)

// FileStore keeps the credential in a single file. Writes replace the file
// atomically so a concurrent reader sees either the old or the new token.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by path. The parent directory is
// created on the first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NewServerFileStore returns a FileStore under dir whose file name is derived
// from serverURL, so credentials for different API servers never collide.
// An empty dir selects "<user config dir>/taskflow/credentials".
func NewServerFileStore(dir, serverURL string) (*FileStore, error) {
	if dir == "" {
		root, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = filepath.Join(root, "taskflow", "credentials")
	}
	return NewFileStore(filepath.Join(dir, serverFileName(serverURL))), nil
}

func serverFileName(serverURL string) string {
	h := blake2s.Sum256([]byte(strings.TrimRight(serverURL, "/")))
	return hex.EncodeToString(h[:]) + ".token"
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return string(data), true, nil
}

func (s *FileStore) Set(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := atomic.WriteFile(s.path, strings.NewReader(token)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) Clear(context.Context) error {
	err := os.Remove(s.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
