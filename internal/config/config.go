package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port     int `mapstructure:"port"`
	GRPCPort int `mapstructure:"grpc_port"` // 0 表示不启动 gRPC 健康检查
	WorkerID int `mapstructure:"worker_id"` // 雪花 ID 机器号
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql | postgres
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"` // silent | error | warn | info
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	Purchase string `mapstructure:"purchase"`
	Ranking  string `mapstructure:"ranking"`
}

type BusinessConfig struct {
	RankingSize           int  `mapstructure:"ranking_size"`
	RankingCandidates     int  `mapstructure:"ranking_candidates"`
	RankingRefreshMinutes int  `mapstructure:"ranking_refresh_minutes"` // 0 表示只在请求时重算
	LockTimeoutSeconds    int  `mapstructure:"lock_timeout_seconds"`
	MaxRetryCount         int  `mapstructure:"max_retry_count"`
	SeedDemoData          bool `mapstructure:"seed_demo_data"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.grpc_port", 0)
	v.SetDefault("server.worker_id", 1)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("kafka.topic.purchase", "gamestore.purchase")
	v.SetDefault("kafka.topic.ranking", "gamestore.ranking")

	v.SetDefault("business.ranking_size", 5)
	v.SetDefault("business.ranking_candidates", 10)
	v.SetDefault("business.lock_timeout_seconds", 30)
	v.SetDefault("business.max_retry_count", 5)

	v.SetDefault("log.level", "info")
}

// LoadConfig 读取 YAML 配置；.env 与 GAMESTORE_ 前缀的环境变量可覆盖文件内容
// 例如 GAMESTORE_DATABASE_PASSWORD 覆盖 database.password
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("GAMESTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.Business.RankingSize <= 0 {
		return errors.New("business.ranking_size 必须大于 0")
	}
	if c.Business.RankingCandidates < c.Business.RankingSize {
		return errors.New("business.ranking_candidates 不能小于 ranking_size")
	}
	if c.Business.MaxRetryCount < 1 {
		return errors.New("business.max_retry_count 必须大于等于 1")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.enabled 为 true 时必须配置 brokers")
	}
	return nil
}
