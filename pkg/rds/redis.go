package rds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"selection_assistant/config"
	"selection_assistant/models/models"
	"selection_assistant/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func NewClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  800 * time.Millisecond,
		WriteTimeout: 800 * time.Millisecond,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis client: %w", err)
	}
	return client, nil
}

func LogStats(ctx context.Context, client *redis.Client) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logger.Logger.Info("redis client pool stats", "stats", client.PoolStats())
		case <-ctx.Done():
			return
		}
	}
}

// SettingsBackend 设置存在 redis 里，多个设备共享同一份；写入后在 channel 上广播
type SettingsBackend struct {
	client *redis.Client
	// 本进程的广播来源标识，Watch 跳过自己发出的消息
	origin string
}

func NewSettingsBackend(client *redis.Client) *SettingsBackend {
	return &SettingsBackend{client: client, origin: uuid.NewString()}
}

func channel(key string) string {
	return key + ":changed"
}

// broadcast 变更广播，Settings 为空表示记录已删除
type broadcast struct {
	Origin   string           `json:"origin"`
	Settings *models.Settings `json:"settings,omitempty"`
}

func (b *SettingsBackend) encode(s *models.Settings) ([]byte, error) {
	return json.Marshal(broadcast{Origin: b.origin, Settings: s})
}

func (b *SettingsBackend) Load(ctx context.Context, key string) (models.Settings, bool, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Settings{}, false, nil
	}
	if err != nil {
		return models.Settings{}, false, err
	}

	var s models.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Settings{}, false, fmt.Errorf("decode settings %s: %w", key, err)
	}
	return s, true, nil
}

func (b *SettingsBackend) Save(ctx context.Context, key string, s models.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	msg, err := b.encode(&s)
	if err != nil {
		return err
	}
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.Publish(ctx, channel(key), msg)
		return nil
	})
	return err
}

func (b *SettingsBackend) Remove(ctx context.Context, key string) error {
	msg, err := b.encode(nil)
	if err != nil {
		return err
	}
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Publish(ctx, channel(key), msg)
		return nil
	})
	return err
}

// Watch 订阅其他进程的变更广播。阻塞直到 ctx 结束
func (b *SettingsBackend) Watch(ctx context.Context, key string, fn func(models.Settings, bool)) error {
	sub := b.client.Subscribe(ctx, channel(key))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel(key), err)
	}

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.receive(msg.Channel, msg.Payload, fn)
		case <-ctx.Done():
			return nil
		}
	}
}

// receive 处理一条广播；本进程写入时 Store 已经通知过观察者
func (b *SettingsBackend) receive(ch, payload string, fn func(models.Settings, bool)) {
	var msg broadcast
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logger.Logger.Error("ignoring malformed settings broadcast", "channel", ch, "error", err.Error())
		return
	}
	if msg.Origin == b.origin {
		return
	}
	if msg.Settings == nil {
		fn(models.Settings{}, false)
		return
	}
	fn(*msg.Settings, true)
}
