package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var Cfg = Default()

type AppConfig struct {
	Dev        bool             `yaml:"dev" mapstructure:"dev"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Background BackgroundConfig `yaml:"background" mapstructure:"background"`
	Bridge     BridgeConfig     `yaml:"bridge" mapstructure:"bridge"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Redis      Redis            `yaml:"redis" mapstructure:"redis"`
	Mysql      MysqlConfig      `yaml:"mysql" mapstructure:"mysql"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Output string `yaml:"output" mapstructure:"output"`
}

// BackgroundConfig 后台（持有 API 凭据的一侧）HTTP 服务配置
type BackgroundConfig struct {
	Listen          string `yaml:"listen" mapstructure:"listen"`
	Secret          string `yaml:"secret" mapstructure:"secret"`
	TokenTTLSeconds int    `yaml:"token_ttl_seconds" mapstructure:"token_ttl_seconds"`
}

// BridgeConfig 前台连接后台的地址，为空时使用进程内通道
type BridgeConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
	Key    string `yaml:"key" mapstructure:"key"`
	// Keyring 为 true 时 apiKey 存系统钥匙串
	Keyring bool `yaml:"keyring" mapstructure:"keyring"`
}

type Redis struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

type MysqlConfig struct {
	DataSourceName  string `yaml:"data_source_name" mapstructure:"data_source_name"`
	MaxIdleCount    int    `yaml:"max_idle_count" mapstructure:"max_idle_count"`
	MaxOpenConns    int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMysql  = "mysql"
)

func Default() *AppConfig {
	return &AppConfig{
		Log: LogConfig{Level: "error", Output: "stderr"},
		Background: BackgroundConfig{
			Listen:          "127.0.0.1:3001",
			TokenTTLSeconds: 60,
		},
		Storage: StorageConfig{Driver: StorageFile, Key: "sync:settings"},
		Redis:   Redis{Host: "127.0.0.1", Port: 6379},
		Mysql: MysqlConfig{
			MaxIdleCount:    2,
			MaxOpenConns:    5,
			ConnMaxLifetime: 300,
		},
	}
}

// Load 读取配置文件，文件不存在时使用默认值
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("SELASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("dev", d.Dev)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("background.listen", d.Background.Listen)
	v.SetDefault("background.secret", d.Background.Secret)
	v.SetDefault("background.token_ttl_seconds", d.Background.TokenTTLSeconds)
	v.SetDefault("bridge.url", d.Bridge.URL)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("storage.keyring", d.Storage.Keyring)
	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.port", d.Redis.Port)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("mysql.data_source_name", d.Mysql.DataSourceName)
	v.SetDefault("mysql.max_idle_count", d.Mysql.MaxIdleCount)
	v.SetDefault("mysql.max_open_conns", d.Mysql.MaxOpenConns)
	v.SetDefault("mysql.conn_max_lifetime", d.Mysql.ConnMaxLifetime)
}

func (c *AppConfig) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageFile, StorageRedis, StorageMysql:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageMysql && c.Mysql.DataSourceName == "" {
		return errors.New("mysql.data_source_name is required for the mysql storage driver")
	}
	if c.Storage.Key == "" {
		return errors.New("storage.key must not be empty")
	}
	if c.Background.TokenTTLSeconds <= 0 {
		return errors.New("background.token_ttl_seconds must be positive")
	}
	return nil
}

// WriteDefault 生成默认配置文件，已存在时不覆盖
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer file.Close()

	enc := yaml.NewEncoder(file)
	defer enc.Close()
	if err := enc.Encode(Default()); err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	return nil
}
