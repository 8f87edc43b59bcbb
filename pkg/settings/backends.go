package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"selection_assistant/models/models"
	"sync"

	"github.com/mitchellh/go-homedir"
)

type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string]models.Settings
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string]models.Settings)}
}

func (m *MemoryBackend) Load(ctx context.Context, key string) (models.Settings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryBackend) Save(ctx context.Context, key string, s models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = s
	return nil
}

func (m *MemoryBackend) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// FileBackend 把所有 key 存在一个 JSON 文件里
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// DefaultFilePath ~/.selection_assistant/settings.json
func DefaultFilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".selection_assistant", "settings.json"), nil
}

func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		var err error
		if path, err = DefaultFilePath(); err != nil {
			return nil, err
		}
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand settings path: %w", err)
	}
	return &FileBackend{path: expanded}, nil
}

func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Load(ctx context.Context, key string) (models.Settings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return models.Settings{}, false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (f *FileBackend) Save(ctx context.Context, key string, s models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return err
	}
	items[key] = s
	return f.write(items)
}

func (f *FileBackend) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.write(items)
}

func (f *FileBackend) read() (map[string]models.Settings, error) {
	items := make(map[string]models.Settings)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return items, nil
}

// write 写临时文件后 rename 替换
func (f *FileBackend) write(items map[string]models.Settings) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}
