package settings

import (
	"context"
	"fmt"
	"selection_assistant/models/models"
	"selection_assistant/pkg/logger"
	"sort"
	"sync"
)

const DefaultKey = "sync:settings"

func Defaults() models.Settings {
	return models.Settings{
		BaseURL:     "https://api.openai.com/v1",
		APIKey:      "",
		Model:       "gpt-3.5-turbo",
		TargetLang:  "zh",
		IsValidated: false,
	}
}

// Backend 持久化一份扁平的设置记录
type Backend interface {
	Load(ctx context.Context, key string) (models.Settings, bool, error)
	Save(ctx context.Context, key string, s models.Settings) error
	Remove(ctx context.Context, key string) error
}

// Watcher 由能感知其他设备写入的后端实现（例如 redis 的 pub/sub）
type Watcher interface {
	Watch(ctx context.Context, key string, fn func(models.Settings, bool)) error
}

// Store 设置的唯一数据源，写入整体替换并通知订阅者
type Store struct {
	backend Backend
	key     string

	mu        sync.Mutex
	observers map[int]func(models.Settings)
	nextID    int
}

func NewStore(backend Backend, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{backend: backend, key: key, observers: make(map[int]func(models.Settings))}
}

// Lookup 返回已保存的设置，ok 为 false 表示尚未保存过
func (s *Store) Lookup(ctx context.Context) (models.Settings, bool, error) {
	v, ok, err := s.backend.Load(ctx, s.key)
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}
	return v, ok, nil
}

// Get 返回当前设置，未保存过时返回默认值
func (s *Store) Get(ctx context.Context) (models.Settings, error) {
	v, ok, err := s.Lookup(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if !ok {
		return Defaults(), nil
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, v models.Settings) error {
	if err := s.backend.Save(ctx, s.key, v); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.notify(v)
	return nil
}

// Reset 删除已保存的记录并恢复默认值
func (s *Store) Reset(ctx context.Context) error {
	if err := s.backend.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	s.notify(Defaults())
	return nil
}

// OnChange 注册变更回调，返回取消订阅的函数
func (s *Store) OnChange(fn func(models.Settings)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Watch 把后端感知到的远端写入转发给订阅者，后端不支持时直接返回
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.backend.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, s.key, func(v models.Settings, present bool) {
		if !present {
			v = Defaults()
		}
		s.notify(v)
	})
}

func (s *Store) notify(v models.Settings) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(models.Settings), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.mu.Unlock()

	logger.Logger.Debug("settings changed", "key", s.key, "observers", len(fns), "validated", v.IsValidated)
	for _, fn := range fns {
		fn(v)
	}
}
