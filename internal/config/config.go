package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                 string
	AllowedOrigins       []string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	JWTSecret            string
	GuestTokenTTLHours   int

	EngineStrategy string
	EngineSide     int
	Simulations    int
	TimeLimitMS    int
	QTablePath     string

	AdvisorBaseURL   string
	AdvisorAPIKey    string
	AdvisorModel     string
	AdvisorTimeoutMS int
}

var AppConfig *Config

func LoadConfig() *Config {
	port := GetEnv("PORT", "8080")

	// CORS
	allowedOriginsStr := GetEnv("ALLOWED_ORIGINS", "")
	allowedOrigins := []string{
		"http://localhost:5173", // Local development
	}
	if allowedOriginsStr != "" {
		extras := strings.Split(allowedOriginsStr, ",")
		for _, origin := range extras {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	// Database Config (empty URL disables game history persistence)
	dbURL := GetEnv("DATABASE_URL", "")
	dbMaxOpenConns := GetEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	dbMaxIdleConns := GetEnvAsInt("DB_MAX_IDLE_CONNS", 25)
	dbConnMaxLifetimeMin := GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	// Security
	jwtSecret := GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production")
	guestTokenTTLHours := GetEnvAsInt("GUEST_TOKEN_TTL_HOURS", 24)

	// Engine
	engineStrategy := GetEnv("ENGINE_STRATEGY", "mcts")
	engineSide := GetEnvAsInt("ENGINE_SIDE", 2)
	if engineSide != 1 && engineSide != 2 {
		log.Printf("Invalid ENGINE_SIDE %d, using 2", engineSide)
		engineSide = 2
	}
	simulations := GetEnvAsInt("MCTS_SIMULATIONS", 3000)
	timeLimitMS := GetEnvAsInt("MCTS_TIME_LIMIT_MS", 1000)
	qtablePath := GetEnv("QTABLE_PATH", "")

	// Remote advisor
	advisorBaseURL := GetEnv("ADVISOR_BASE_URL", "https://api.openai.com/v1")
	advisorAPIKey := GetEnv("ADVISOR_API_KEY", "")
	advisorModel := GetEnv("ADVISOR_MODEL", "gpt-4o-mini")
	advisorTimeoutMS := GetEnvAsInt("ADVISOR_TIMEOUT_MS", 5000)

	AppConfig = &Config{
		Port:                 port,
		AllowedOrigins:       allowedOrigins,
		DatabaseURL:          dbURL,
		DBMaxOpenConns:       dbMaxOpenConns,
		DBMaxIdleConns:       dbMaxIdleConns,
		DBConnMaxLifetimeMin: dbConnMaxLifetimeMin,
		JWTSecret:            jwtSecret,
		GuestTokenTTLHours:   guestTokenTTLHours,
		EngineStrategy:       engineStrategy,
		EngineSide:           engineSide,
		Simulations:          simulations,
		TimeLimitMS:          timeLimitMS,
		QTablePath:           qtablePath,
		AdvisorBaseURL:       advisorBaseURL,
		AdvisorAPIKey:        advisorAPIKey,
		AdvisorModel:         advisorModel,
		AdvisorTimeoutMS:     advisorTimeoutMS,
	}

	return AppConfig
}

func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitMS) * time.Millisecond
}

func (c *Config) AdvisorTimeout() time.Duration {
	return time.Duration(c.AdvisorTimeoutMS) * time.Millisecond
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
