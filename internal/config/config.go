package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime knob. It is constructed once at startup and
// passed explicitly; nothing reads the environment after Load returns.
type Config struct {
	DatabaseURL string
	Port        string

	SecretKey    string
	IPHashSalt   string
	MonitorToken string

	CORSOrigins []string

	MinWordCount   int
	TooFastSeconds int
	MaxBodyBytes   int64

	RewardAmount   int
	RewardCooldown time.Duration

	PaymentRequired bool

	ImagesDir string

	ShadowScoring  bool
	ShadowSnapshot int
}

// Load reads the environment and applies defaults. DATABASE_URL is the only
// required key.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		secret = generateSecret()
		log.Println("[Config] SECRET_KEY not set, generated an ephemeral one")
	}

	cfg := &Config{
		DatabaseURL:     dbURL,
		Port:            getEnv("PORT", "8080"),
		SecretKey:       secret,
		IPHashSalt:      getEnv("IP_HASH_SALT", "local-salt"),
		MonitorToken:    os.Getenv("MONITOR_TOKEN"),
		CORSOrigins:     splitOrigins(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MinWordCount:    getEnvInt("MIN_WORD_COUNT", 60),
		TooFastSeconds:  getEnvInt("TOO_FAST_SECONDS", 5),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 65536)),
		RewardAmount:    getEnvInt("REWARD_AMOUNT", 10),
		RewardCooldown:  time.Duration(getEnvInt("REWARD_COOLDOWN_SECONDS", 86400)) * time.Second,
		PaymentRequired: getEnvBool("PAYMENT_REQUIRED", true),
		ImagesDir:       getEnv("IMAGES_DIR", "images"),
		ShadowScoring:   getEnvBool("SHADOW_SCORING", false),
		ShadowSnapshot:  getEnvInt("SHADOW_SNAPSHOT", 1),
	}
	return cfg, nil
}

// AllowAllOrigins reports whether the CORS allow-list is the wildcard.
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func generateSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("[Config] Failed to generate secret key: %v", err)
	}
	return hex.EncodeToString(buf)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[Config] Ignoring non-integer %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("[Config] Ignoring non-boolean %s=%q, using %v", key, value, fallback)
		return fallback
	}
	return b
}
