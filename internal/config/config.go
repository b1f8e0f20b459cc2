package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// JWT
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	// API
	APIPort      int
	FrontendURL  string
	CookieSecure bool

	// OpenPix
	OpenPixAppID   string
	OpenPixBaseURL string

	// Video resolver
	ResolverAPIURL   string
	ResolverAPIToken string

	// Plan limits
	FreePlanTotalLimit    int
	PremiumPlanDailyLimit int

	// When true, a recurring subscription grants PREMIUM immediately,
	// before the first charge is confirmed by webhook.
	GrantPremiumOnSubscribe bool
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Info().Msg(".env file loaded")
	}

	accessSecret := os.Getenv("JWT_ACCESS_SECRET")
	if accessSecret == "" {
		log.Warn().Msg("JWT_ACCESS_SECRET not set - using insecure default")
		accessSecret = "changeme-access"
	}

	refreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if refreshSecret == "" {
		log.Warn().Msg("JWT_REFRESH_SECRET not set - using insecure default")
		refreshSecret = "changeme-refresh"
	}

	dbPassword := getEnv("DB_PASSWORD", "")
	if dbPassword == "" {
		log.Warn().Msg("DB_PASSWORD not set - this is insecure for production")
		dbPassword = "changeme"
	}

	if os.Getenv("OPENPIX_APP_ID") == "" {
		log.Warn().Msg("OPENPIX_APP_ID not set - payment creation will fail")
	}

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "clipix"),
		DBPassword: dbPassword,
		DBName:     getEnv("DB_NAME", "clipix"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		// JWT
		JWTAccessSecret:  accessSecret,
		JWTRefreshSecret: refreshSecret,
		AccessTokenTTL:   getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		// API
		APIPort:      getEnvInt("API_PORT", 3001),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		CookieSecure: getEnv("APP_ENV", "development") == "production",

		// OpenPix
		OpenPixAppID:   getEnv("OPENPIX_APP_ID", ""),
		OpenPixBaseURL: getEnv("OPENPIX_BASE_URL", "https://api.openpix.com.br/api/v1"),

		// Video resolver
		ResolverAPIURL:   getEnv("RESOLVER_API_URL", "https://www.shopeevideodownloader.com/api/v1/download"),
		ResolverAPIToken: getEnv("RESOLVER_API_TOKEN", ""),

		// Plan limits
		FreePlanTotalLimit:    getEnvInt("FREE_PLAN_TOTAL_LIMIT", 5),
		PremiumPlanDailyLimit: getEnvInt("PREMIUM_PLAN_DAILY_LIMIT", 999999),

		GrantPremiumOnSubscribe: getEnvBool("GRANT_PREMIUM_ON_SUBSCRIBE", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
