package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	GoogleProjectID     string
	FirebaseCredentials string
	AlertsTopic         string

	VAPIDKey              string
	ServerBaseURL         string
	BackgroundContextPath string
	NotificationIcon      string
	MessagingReadyTimeout time.Duration
	MessagingReadyPoll    time.Duration
	DeviceStatePath       string
	KeyringDir            string
	OwnerID               string
	// NotificationPermission presets the permission answer for headless
	// runs. Empty means ask interactively.
	NotificationPermission string
	// KeyringPassword encrypts the file keyring fallback. Empty disables it.
	KeyringPassword string
	// ForegroundLeaseTTL is how long the citizen client's claim on the
	// device's pushes lasts without a heartbeat.
	ForegroundLeaseTTL time.Duration

	RegistrationMaxAttempts int
	HTTPTimeout             time.Duration

	// Assistant
	AIProvider    string
	GeminiAPIKey  string
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string

	MetricsAddr string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		GoogleProjectID:         getEnv("GOOGLE_PROJECT_ID", ""),
		FirebaseCredentials:     getEnv("FIREBASE_CREDENTIALS", ""),
		AlertsTopic:             getEnv("ALERTS_TOPIC", "citizen-alerts"),
		VAPIDKey:                getEnv("VAPID_KEY", ""),
		ServerBaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		BackgroundContextPath:   getEnv("BACKGROUND_CONTEXT_PATH", "/firebase-messaging-sw.js"),
		NotificationIcon:        getEnv("NOTIFICATION_ICON", "/icons/alert.png"),
		MessagingReadyTimeout:   getEnvAsDuration("MESSAGING_READY_TIMEOUT", 5*time.Second),
		MessagingReadyPoll:      getEnvAsDuration("MESSAGING_READY_POLL", 50*time.Millisecond),
		DeviceStatePath:         getEnv("DEVICE_STATE_PATH", defaultStatePath()),
		KeyringDir:              getEnv("KEYRING_DIR", "~/.config/alertsphere/keyring"),
		KeyringPassword:         getEnv("KEYRING_PASSWORD", ""),
		OwnerID:                 getEnv("OWNER_ID", "anonymous"),
		NotificationPermission:  getEnv("NOTIFICATION_PERMISSION", ""),
		ForegroundLeaseTTL:      getEnvAsDuration("FOREGROUND_LEASE_TTL", 15*time.Second),
		RegistrationMaxAttempts: getEnvAsInt("REGISTRATION_MAX_ATTEMPTS", 3),
		HTTPTimeout:             getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		AIProvider:              getEnv("AI_PROVIDER", "auto"),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		GeminiModel:             getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaBaseURL:           getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:             getEnv("OLLAMA_MODEL", "llama3"),
		MetricsAddr:             getEnv("METRICS_ADDR", ""),
	}
}

// ValidateServer reports every key the relay server cannot start without.
func (c *Config) ValidateServer() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	return missingErr(missing)
}

// ValidateClient reports every key the citizen client and push worker need.
func (c *Config) ValidateClient() error {
	var missing []string
	if c.GoogleProjectID == "" {
		missing = append(missing, "GOOGLE_PROJECT_ID")
	}
	if c.VAPIDKey == "" {
		missing = append(missing, "VAPID_KEY")
	}
	if c.BackgroundContextPath == "" {
		missing = append(missing, "BACKGROUND_CONTEXT_PATH")
	}
	if err := missingErr(missing); err != nil {
		return err
	}
	if c.ForegroundLeaseTTL <= 0 {
		return fmt.Errorf("FOREGROUND_LEASE_TTL must be positive, got %s", c.ForegroundLeaseTTL)
	}
	switch c.NotificationPermission {
	case "", "granted", "denied", "default":
	default:
		return fmt.Errorf("NOTIFICATION_PERMISSION must be granted, denied or default, got %q", c.NotificationPermission)
	}
	return nil
}

func missingErr(missing []string) error {
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "alertsphere-device.db"
	}
	return home + "/.config/alertsphere/device.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, def int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int for %s, using default %d: %v", key, def, err)
			return def
		}
		return i
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration for %s, using default %s: %v", key, def, err)
			return def
		}
		return d
	}
	return def
}
