package mysql

import (
	"context"
	"encoding/json"
	"fmt"
	"selection_assistant/config"
	"selection_assistant/models/models"
	"selection_assistant/models/tables"
	"selection_assistant/pkg/logger"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"xorm.io/xorm"
)

func NewEngine(cfg config.MysqlConfig) (*xorm.Engine, error) {
	engine, err := xorm.NewEngine("mysql", cfg.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to new mysql engine: %w", err)
	}

	engine.SetMaxIdleConns(cfg.MaxIdleCount)
	engine.SetMaxOpenConns(cfg.MaxOpenConns)
	engine.SetConnMaxLifetime(time.Second * time.Duration(cfg.ConnMaxLifetime))

	if err := engine.Sync2(new(tables.UserSettings)); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("failed to sync user_settings table: %w", err)
	}
	return engine, nil
}

func Close(engine *xorm.Engine) {
	err := engine.Close()
	if err != nil {
		logger.Logger.Error("Error closing mysql engine", "error", err.Error())
	}
}

// SettingsBackend 每个 key 一行，value 存 JSON
type SettingsBackend struct {
	engine *xorm.Engine
}

func NewSettingsBackend(engine *xorm.Engine) *SettingsBackend {
	return &SettingsBackend{engine: engine}
}

func (b *SettingsBackend) Load(ctx context.Context, key string) (models.Settings, bool, error) {
	row := tables.UserSettings{}
	has, err := b.engine.Context(ctx).Where("setting_key = ?", key).Get(&row)
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("query settings %s: %w", key, err)
	}
	if !has {
		return models.Settings{}, false, nil
	}

	var s models.Settings
	if err := json.Unmarshal([]byte(row.Value), &s); err != nil {
		return models.Settings{}, false, fmt.Errorf("decode settings %s: %w", key, err)
	}
	return s, true, nil
}

func (b *SettingsBackend) Save(ctx context.Context, key string, s models.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = b.engine.Transaction(func(session *xorm.Session) (interface{}, error) {
		session = session.Context(ctx)
		row := tables.UserSettings{}
		has, err := session.Where("setting_key = ?", key).ForUpdate().Get(&row)
		if err != nil {
			return nil, err
		}
		if !has {
			_, err = session.Insert(&tables.UserSettings{SettingKey: key, Value: string(data), Version: 1})
			return nil, err
		}
		_, err = session.ID(row.Id).Cols("value", "version").Update(&tables.UserSettings{
			Value:   string(data),
			Version: row.Version + 1,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("save settings %s: %w", key, err)
	}
	return nil
}

func (b *SettingsBackend) Remove(ctx context.Context, key string) error {
	_, err := b.engine.Context(ctx).Where("setting_key = ?", key).Delete(&tables.UserSettings{})
	if err != nil {
		return fmt.Errorf("remove settings %s: %w", key, err)
	}
	return nil
}
