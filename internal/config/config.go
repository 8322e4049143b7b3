package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fathima-sithara/notification-service/internal/model"
)

type AppConfig struct {
	Env                 string `mapstructure:"env"`
	Port                int    `mapstructure:"port"`
	ShutdownTimeoutSecs int    `mapstructure:"shutdown_timeout_seconds"`
}

type JWTConfig struct {
	Algorithm     string `mapstructure:"algorithm"`
	HSSecret      string `mapstructure:"hs_secret"`
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	// SeedUsers populates the memory driver, which has no user source.
	SeedUsers []SeedUser `mapstructure:"seed_users"`
}

type SeedUser struct {
	ID       string `mapstructure:"id"`
	FullName string `mapstructure:"full_name"`
	Email    string `mapstructure:"email"`
	Inactive bool   `mapstructure:"inactive"`
}

// Users converts the seed list for the memory store.
func (s StorageConfig) Users() []*model.User {
	out := make([]*model.User, 0, len(s.SeedUsers))
	for _, u := range s.SeedUsers {
		out = append(out, &model.User{ID: u.ID, FullName: u.FullName, Email: u.Email, IsActive: !u.Inactive})
	}
	return out
}

type MongoConfig struct {
	URI                 string `mapstructure:"uri"`
	Database            string `mapstructure:"database"`
	ConnectTimeoutSecs  int    `mapstructure:"connect_timeout_seconds"`
	OperationTimeoutSec int    `mapstructure:"operation_timeout_seconds"`
}

type RedisConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	Prefix             string `mapstructure:"prefix"`
	PresenceTTLSeconds int    `mapstructure:"presence_ttl_seconds"`
}

type KafkaConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Brokers        []string `mapstructure:"brokers"`
	TopicEvents    string   `mapstructure:"topic_events"`
	GroupID        string   `mapstructure:"group_id"`
	DLQTopic       string   `mapstructure:"dlq_topic"`
	MaxRetries     int      `mapstructure:"max_retries"`
	RetryBackoffMs int      `mapstructure:"retry_backoff_ms"`
}

type EmailConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	APIURL        string `mapstructure:"api_url"`
	BrevoAPIKey   string `mapstructure:"brevo_api_key"`
	SenderEmail   string `mapstructure:"sender_email"`
	SenderName    string `mapstructure:"sender_name"`
	FrontendURL   string `mapstructure:"frontend_url"`
	Workers       int    `mapstructure:"workers"`
	QueueSize     int    `mapstructure:"queue_size"`
	PreviewLength int    `mapstructure:"preview_length"`
}

type WSConfig struct {
	PingIntervalSeconds  int    `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int    `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64  `mapstructure:"max_message_size_bytes"`
	SendBufferSize       int    `mapstructure:"send_buffer_size"`
	Heartbeat            string `mapstructure:"heartbeat"`
	IdleTimeoutSeconds   int    `mapstructure:"idle_timeout_seconds"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Email     EmailConfig     `mapstructure:"email"`
	WS        WSConfig        `mapstructure:"ws"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived values
	ShutdownTimeout  time.Duration
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
	PresenceTTL      time.Duration
	PingInterval     time.Duration
	WriteDeadline    time.Duration
	IdleTimeout      time.Duration
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8085)
	v.SetDefault("app.shutdown_timeout_seconds", 15)
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.hs_secret", "")
	v.SetDefault("jwt.public_key_path", "")
	v.SetDefault("storage.driver", DriverMongo)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "notifications")
	v.SetDefault("mongo.connect_timeout_seconds", 30)
	v.SetDefault("mongo.operation_timeout_seconds", 5)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "notif")
	v.SetDefault("redis.presence_ttl_seconds", 120)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_events", "notification.requested")
	v.SetDefault("kafka.group_id", "notification-service")
	v.SetDefault("kafka.dlq_topic", "notification.requested.dlq")
	v.SetDefault("kafka.max_retries", 5)
	v.SetDefault("kafka.retry_backoff_ms", 500)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.api_url", "https://api.brevo.com/v3/smtp/email")
	v.SetDefault("email.brevo_api_key", "")
	v.SetDefault("email.sender_email", "")
	v.SetDefault("email.sender_name", "Notifications")
	v.SetDefault("email.frontend_url", "http://localhost:3000")
	v.SetDefault("email.workers", 2)
	v.SetDefault("email.queue_size", 100)
	v.SetDefault("email.preview_length", 100)
	v.SetDefault("ws.ping_interval_seconds", 25)
	v.SetDefault("ws.write_deadline_seconds", 10)
	v.SetDefault("ws.max_message_size_bytes", 65536)
	v.SetDefault("ws.send_buffer_size", 256)
	v.SetDefault("ws.heartbeat", "ping")
	v.SetDefault("ws.idle_timeout_seconds", 0)
	v.SetDefault("rate_limit.per_minute", 120)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.level", "")
}

// Load reads path (a missing file is fine), applies environment overrides
// such as MONGO_URI or JWT_HS_SECRET, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.derive()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) derive() {
	c.ShutdownTimeout = time.Duration(c.App.ShutdownTimeoutSecs) * time.Second
	c.ConnectTimeout = time.Duration(c.Mongo.ConnectTimeoutSecs) * time.Second
	c.OperationTimeout = time.Duration(c.Mongo.OperationTimeoutSec) * time.Second
	c.PresenceTTL = time.Duration(c.Redis.PresenceTTLSeconds) * time.Second
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	c.IdleTimeout = time.Duration(c.WS.IdleTimeoutSeconds) * time.Second
}

func (c *Config) validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port %d out of range", c.App.Port)
	}
	switch strings.ToUpper(c.JWT.Algorithm) {
	case "HS256":
		if c.JWT.HSSecret == "" {
			return errors.New("jwt.hs_secret is required for HS256")
		}
	case "RS256":
		if c.JWT.PublicKeyPath == "" {
			return errors.New("jwt.public_key_path is required for RS256")
		}
	default:
		return fmt.Errorf("unsupported jwt.algorithm %q", c.JWT.Algorithm)
	}
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo.uri and mongo.database are required")
		}
	case DriverMemory:
		for i, u := range c.Storage.SeedUsers {
			if u.ID == "" {
				return fmt.Errorf("storage.seed_users[%d].id is required", i)
			}
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.TopicEvents == "") {
		return errors.New("kafka.brokers and kafka.topic_events are required when kafka is enabled")
	}
	if c.Email.Enabled && (c.Email.BrevoAPIKey == "" || c.Email.SenderEmail == "") {
		return errors.New("email.brevo_api_key and email.sender_email are required when email is enabled")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}
