package cmd

import (
	"context"
	"fmt"
	"selection_assistant/config"
	"selection_assistant/pkg/bridge"
	"selection_assistant/pkg/completion"
	dbmysql "selection_assistant/pkg/db/mysql"
	"selection_assistant/pkg/logger"
	"selection_assistant/pkg/rds"
	"selection_assistant/pkg/settings"
	"time"
)

// openStore 按 storage.driver 选择设置后端
func openStore(ctx context.Context, cfg *config.AppConfig) (*settings.Store, func(), error) {
	var backend settings.Backend
	closeFn := func() {}

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		backend = settings.NewMemoryBackend()
	case config.StorageFile:
		fb, err := settings.NewFileBackend(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Logger.Debug("using file settings backend", "path", fb.Path())
		backend = fb
	case config.StorageRedis:
		client, err := rds.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Dev {
			go rds.LogStats(ctx, client)
		}
		backend = rds.NewSettingsBackend(client)
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Logger.Error("Error closing redis client", "error", err.Error())
			}
		}
	case config.StorageMysql:
		engine, err := dbmysql.NewEngine(cfg.Mysql)
		if err != nil {
			return nil, nil, err
		}
		backend = dbmysql.NewSettingsBackend(engine)
		closeFn = func() { dbmysql.Close(engine) }
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.Keyring {
		backend = settings.NewKeyringBackend(backend)
	}
	return settings.NewStore(backend, cfg.Storage.Key), closeFn, nil
}

// openBridge bridge.url 为空时在进程内启动后台一侧
func openBridge(ctx context.Context, cfg *config.AppConfig) (*bridge.Client, func()) {
	if cfg.Bridge.URL != "" {
		ttl := time.Duration(cfg.Background.TokenTTLSeconds) * time.Second
		client := bridge.NewClient(bridge.NewHTTPTransport(cfg.Bridge.URL, cfg.Background.Secret, ttl))
		return client, client.Close
	}

	transport := bridge.NewLocalTransport(bridge.NewRouter(completion.New()), 16)
	client := bridge.NewClient(transport)

	ctx, cancel := context.WithCancel(ctx)
	served := make(chan struct{})
	go func() {
		defer close(served)
		transport.Serve(ctx)
	}()

	return client, func() {
		transport.Close()
		cancel()
		<-served
		client.Close()
	}
}
