// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTIssuer   string `mapstructure:"JWT_ISSUER"`
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"APP_ENV"`

	DBDriver                      string `mapstructure:"DB_DRIVER"`
	DBSQLitePath                  string `mapstructure:"DB_SQLITE_PATH"`
	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string `mapstructure:"DB_READ_USER"`
	DBReadPassword                string `mapstructure:"DB_READ_PASSWORD"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	StorageDriver    string `mapstructure:"STORAGE_DRIVER"`
	MediaDir         string `mapstructure:"MEDIA_DIR"`
	MediaBaseURL     string `mapstructure:"MEDIA_BASE_URL"`
	S3Endpoint       string `mapstructure:"S3_ENDPOINT"`
	S3Region         string `mapstructure:"S3_REGION"`
	S3AccessKey      string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey      string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket         string `mapstructure:"S3_BUCKET"`
	S3ForcePathStyle bool   `mapstructure:"S3_FORCE_PATH_STYLE"`
	S3PublicBaseURL  string `mapstructure:"S3_PUBLIC_BASE_URL"`

	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaFanoutTopic string `mapstructure:"KAFKA_FANOUT_TOPIC"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`

	FeedSyncFanoutLimit        int `mapstructure:"FEED_SYNC_FANOUT_LIMIT"`
	FanoutRelayIntervalSeconds int `mapstructure:"FANOUT_RELAY_INTERVAL_SECONDS"`
	PhotoMaxUploadSizeMB       int `mapstructure:"PHOTO_MAX_UPLOAD_SIZE_MB"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
	OTLPEndpoint       string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

const defaultJWTSecret = "your-secret-key-change-in-production"

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults are enough to boot.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "insta-lite-api")
	viper.SetDefault("JWT_AUDIENCE", "insta-lite-client")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_SQLITE_PATH", "insta-lite.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "insta_lite")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)

	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "inline_fanout_relay=on,follow_notifications=on")

	viper.SetDefault("STORAGE_DRIVER", "disk")
	viper.SetDefault("MEDIA_DIR", "./media")
	viper.SetDefault("MEDIA_BASE_URL", "/media")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "insta-lite-photos")
	viper.SetDefault("S3_FORCE_PATH_STYLE", true)

	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_FANOUT_TOPIC", "feed.fanout")
	viper.SetDefault("KAFKA_GROUP_ID", "insta-lite-fanout")

	viper.SetDefault("FEED_SYNC_FANOUT_LIMIT", 1000)
	viper.SetDefault("FANOUT_RELAY_INTERVAL_SECONDS", 5)
	viper.SetDefault("PHOTO_MAX_UPLOAD_SIZE_MB", 5)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// KafkaBrokerList splits KAFKA_BROKERS into addresses. Empty means Kafka is disabled.
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PhotoMaxUploadSizeMB <= 0 {
		return errors.New("PHOTO_MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.DBConnMaxLifetimeMinutes <= 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be positive")
	}
	if c.FeedSyncFanoutLimit < 0 {
		return errors.New("FEED_SYNC_FANOUT_LIMIT must not be negative")
	}
	switch c.DBSchemaMode {
	case "", "sql", "auto", "hybrid":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE %q is not one of sql, auto, hybrid", c.DBSchemaMode)
	}
	switch c.StorageDriver {
	case "", "disk", "s3":
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not one of disk, s3", c.StorageDriver)
	}
	if c.StorageDriver == "s3" && c.S3Bucket == "" {
		return errors.New("S3_BUCKET is required when STORAGE_DRIVER is s3")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver != "sqlite" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver != "sqlite" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			return errors.New("ALLOWED_ORIGINS must not be '*' in production")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
