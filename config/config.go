package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Bot      BotConfig
	Amo      AmoConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	HTTPPort string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type BotConfig struct {
	Token         string
	APIURL        string
	WebhookSecret string
}

type AmoConfig struct {
	BaseURL     string
	AccessToken string
	PipelineID  int64
}

type AdminConfig struct {
	RootID int64
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: getEnv("HTTP_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "education"),
			Password: getEnv("DB_PASSWORD", "education_password"),
			DBName:   getEnv("DB_NAME", "education"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "redis"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "rabbitmq"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", "admin"),
			Password: getEnv("RABBITMQ_PASSWORD", "admin"),
		},
		Bot: BotConfig{
			Token:         getEnv("BOT_TOKEN", ""),
			APIURL:        getEnv("BOT_API_URL", "https://botapi.max.ru"),
			WebhookSecret: getEnv("BOT_WEBHOOK_SECRET", ""),
		},
		Amo: AmoConfig{
			BaseURL:     getEnv("AMO_BASE_URL", ""),
			AccessToken: getEnv("AMO_ACCESS_TOKEN", ""),
			PipelineID:  getEnvAsInt64("AMO_PIPELINE_ID", 3616530),
		},
		Admin: AdminConfig{
			RootID: getEnvAsInt64("ADMIN_ID", 0),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}
