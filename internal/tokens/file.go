package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит пару в JSON-файле с ключами accessToken/refreshToken.
// Запись атомарная: временный файл + rename, права 0600.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	const op = "tokens.NewFileStore"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &FileStore{path: path}, nil
}

// DefaultPath — ~/.config/flashcards/session.json (или аналог ОС).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "flashcards", "session.json"), nil
}

func (f *FileStore) Load(context.Context) (Pair, error) {
	const op = "tokens.FileStore.Load"

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Pair{}, nil
	}
	if err != nil {
		return Pair{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(data) == 0 {
		return Pair{}, nil
	}

	var p Pair
	if err := json.Unmarshal(data, &p); err != nil {
		return Pair{}, fmt.Errorf("%s: decode: %w", op, err)
	}

	return p, nil
}

func (f *FileStore) Save(_ context.Context, p Pair) error {
	const op = "tokens.FileStore.Save"

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: write: %w", op, err)
	}

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: chmod: %w", op, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", op, err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%s: rename: %w", op, err)
	}

	return nil
}

func (f *FileStore) Clear(context.Context) error {
	const op = "tokens.FileStore.Clear"

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
