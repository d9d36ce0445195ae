package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tasktrack/tasktracker/internal/constants"
)

// Store drivers
const (
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreFile     = "file"
)

// Session stores
const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Port            string
	GinMode         string
	StoreDriver     string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	SQLitePath      string
	DataDir         string
	SessionStore    string
	RedisHost       string
	RedisPort       string
	SessionSecret   string
	TokenSecret     string
	TokenTTL        time.Duration
	TrustUserHeader bool
	CORSOrigins     []string
	OpenAIAPIKey    string
	LogLevel        string
	LogFile         string
	Location        *time.Location
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	ginMode := getEnv("GIN_MODE", "debug")

	return &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         ginMode,
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBUser:          getEnv("DB_USER", "taskuser"),
		DBPassword:      getEnv("DB_PASSWORD", "taskpassword"),
		DBName:          getEnv("DB_NAME", "task_tracker"),
		SQLitePath:      getEnv("SQLITE_PATH", "tasktracker.db"),
		DataDir:         getEnv("DATA_DIR", ".data"),
		SessionStore:    strings.ToLower(getEnv("SESSION_STORE", SessionStoreCookie)),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		SessionSecret:   getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		TokenSecret:     getEnv("TOKEN_SECRET", "default-token-key-change-me"),
		TokenTTL:        getDuration("TOKEN_TTL", constants.DefaultTokenTTL),
		TrustUserHeader: getBool("TRUST_USER_HEADER", ginMode != "release"),
		CORSOrigins:     getList("CORS_ORIGINS"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		Location:        getLocation("TIMEZONE"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getLocation(key string) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
