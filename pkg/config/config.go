package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Feed          FeedConfig          `mapstructure:"feed"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Port    int           `mapstructure:"port"`
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Addr 监听地址
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MongoDB    MongoDBConfig    `mapstructure:"mongodb"`
	PostgreSQL PostgreSQLConfig `mapstructure:"postgresql"`
}

// MongoDBConfig MongoDB配置
type MongoDBConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"db_name"`
}

// PostgreSQLConfig PostgreSQL配置
type PostgreSQLConfig struct {
	DSN          string        `mapstructure:"dsn"`
	DBName       string        `mapstructure:"db_name"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Enabled bool     `mapstructure:"enabled"`
}

// ElasticsearchConfig ElasticSearch配置
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// TelemetryConfig 链路追踪配置
type TelemetryConfig struct {
	Exporter   string  `mapstructure:"exporter"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// FeedConfig 信息流配置
type FeedConfig struct {
	SearchIndex       string        `mapstructure:"search_index"`
	RelationCacheTTL  time.Duration `mapstructure:"relation_cache_ttl"`
	EnrichConcurrency int           `mapstructure:"enrich_concurrency"`
	DefaultPageSize   int           `mapstructure:"default_page_size"`
	MaxPageSize       int           `mapstructure:"max_page_size"`
}

// envBindings 沿用各服务统一的环境变量名
var envBindings = map[string]string{
	"app.version":                 "APP_VERSION",
	"app.environment":             "APP_ENV",
	"server.http.port":            "HTTP_PORT",
	"server.http.mode":            "GIN_MODE",
	"database.mongodb.uri":        "MONGODB_URI",
	"database.mongodb.db_name":    "MONGODB_DB",
	"database.postgresql.dsn":     "POSTGRESQL_DSN",
	"database.postgresql.db_name": "POSTGRESQL_DB",
	"redis.addr":                  "REDIS_ADDR",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"kafka.brokers":               "KAFKA_BROKERS",
	"kafka.group_id":              "KAFKA_GROUP_ID",
	"kafka.enabled":               "KAFKA_ENABLED",
	"elasticsearch.addresses":     "ELASTICSEARCH_URL",
	"elasticsearch.username":      "ELASTICSEARCH_USERNAME",
	"elasticsearch.password":      "ELASTICSEARCH_PASSWORD",
	"telemetry.exporter":          "OTEL_EXPORTER",
	"telemetry.sample_rate":       "OTEL_SAMPLE_RATE",
	"logger.level":                "LOG_LEVEL",
	"feed.search_index":           "FEED_SEARCH_INDEX",
	"feed.relation_cache_ttl":     "FEED_RELATION_CACHE_TTL",
	"feed.enrich_concurrency":     "FEED_ENRICH_CONCURRENCY",
	"feed.default_page_size":      "FEED_DEFAULT_PAGE_SIZE",
	"feed.max_page_size":          "FEED_MAX_PAGE_SIZE",
}

// LoadConfig 加载配置：默认值 < 配置文件 < 环境变量
func LoadConfig(serviceName string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../..")

	setDefaults(v, serviceName)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("Config file not found, using default values")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, serviceName string) {
	v.SetDefault("app.name", serviceName)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.http.port", 21020)
	v.SetDefault("server.http.mode", "debug")
	v.SetDefault("server.http.timeout", "30s")

	v.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongodb.db_name", "tripfeed")
	v.SetDefault("database.postgresql.dsn", "host=localhost user=postgres password=postgres dbname=tripfeed port=5432 sslmode=disable TimeZone=Asia/Shanghai")
	v.SetDefault("database.postgresql.db_name", "tripfeed")
	v.SetDefault("database.postgresql.max_idle_conns", 10)
	v.SetDefault("database.postgresql.max_open_conns", 100)
	v.SetDefault("database.postgresql.max_lifetime", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", serviceName+"-group")
	v.SetDefault("kafka.enabled", true)

	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")

	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.sample_rate", 1.0)

	v.SetDefault("logger.level", "info")

	v.SetDefault("feed.search_index", "posts")
	v.SetDefault("feed.relation_cache_ttl", "10m")
	v.SetDefault("feed.enrich_concurrency", 8)
	v.SetDefault("feed.default_page_size", 20)
	v.SetDefault("feed.max_page_size", 100)
}
