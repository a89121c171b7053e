package configs

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ENV struct {
	DBHost           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBPort           string
	Port             string
	AppAuthKey       string
	AppEncKey        string
	TokenTTL         time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	KafkaBrokers     []string
	OrderEventsTopic string
	MediaDir         string
	CurrencySymbol   string
	LogLevel         string
}

func LoadEnv() ENV {

	if err := godotenv.Load(".env"); err != nil {
		slog.Warn("no .env file found, using process environment")
	}

	return ENV{
		DBHost:           os.Getenv("DB_HOST"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		DBPort:           getEnv("DB_PORT", "3306"),
		Port:             getEnv("APP_PORT", ":8080"),
		AppAuthKey:       os.Getenv("APP_AUTH_KEY"),
		AppEncKey:        os.Getenv("APP_ENC_KEY"),
		TokenTTL:         getDuration("TOKEN_TTL", 24*time.Hour),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		MediaDir:         getEnv("MEDIA_DIR", "./public/images"),
		CurrencySymbol:   getEnv("CURRENCY_SYMBOL", "$"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

}

func (e ENV) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
