package settings

import (
	"context"
	"errors"
	"fmt"
	"selection_assistant/models/models"

	"github.com/zalando/go-keyring"
)

const keyringService = "selection_assistant"

// KeyringBackend 包装另一个后端，apiKey 存进系统钥匙串，其余字段照旧
type KeyringBackend struct {
	inner Backend
}

func NewKeyringBackend(inner Backend) *KeyringBackend {
	return &KeyringBackend{inner: inner}
}

func (k *KeyringBackend) Load(ctx context.Context, key string) (models.Settings, bool, error) {
	s, ok, err := k.inner.Load(ctx, key)
	if err != nil || !ok {
		return s, ok, err
	}
	secret, err := keyring.Get(keyringService, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return s, true, nil
	}
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("read api key from keyring: %w", err)
	}
	s.APIKey = secret
	return s, true, nil
}

func (k *KeyringBackend) Save(ctx context.Context, key string, s models.Settings) error {
	if s.APIKey == "" {
		if err := keyring.Delete(keyringService, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("clear api key in keyring: %w", err)
		}
	} else if err := keyring.Set(keyringService, key, s.APIKey); err != nil {
		return fmt.Errorf("write api key to keyring: %w", err)
	}
	s.APIKey = ""
	return k.inner.Save(ctx, key, s)
}

func (k *KeyringBackend) Remove(ctx context.Context, key string) error {
	if err := keyring.Delete(keyringService, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("clear api key in keyring: %w", err)
	}
	return k.inner.Remove(ctx, key)
}

// Watch 远端广播里不带 apiKey，从钥匙串补上
func (k *KeyringBackend) Watch(ctx context.Context, key string, fn func(models.Settings, bool)) error {
	w, ok := k.inner.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, key, func(s models.Settings, present bool) {
		if present {
			if secret, err := keyring.Get(keyringService, key); err == nil {
				s.APIKey = secret
			}
		}
		fn(s, present)
	})
}
