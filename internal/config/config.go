package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// WhatsApp Cloud API
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAPIBaseURL    string

	// OpenAI Assistants backend
	OpenAIAPIKey             string
	OpenAIAssistantID        string
	AssistantKnowledgeBaseID string
	AssistantPollInterval    time.Duration
	AssistantMaxPollAttempts int

	// Reply policy
	FallbackMessage  string
	MaxSegmentLength int

	// Dedup window
	DedupCapacity int
	DedupTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// DefaultFallbackMessage is sent when no usable reply could be produced.
const DefaultFallbackMessage = "Sorry, I couldn't process your message right now. Please try again in a moment."

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v19.0"),

		OpenAIAPIKey:             getEnv("OPENAI_API_KEY", ""),
		OpenAIAssistantID:        getEnv("OPENAI_ASSISTANT_ID", ""),
		AssistantKnowledgeBaseID: getEnv("ASSISTANT_KB_ID", ""),
		AssistantPollInterval:    getEnvAsDuration("ASSISTANT_POLL_INTERVAL", 3*time.Second),
		AssistantMaxPollAttempts: getEnvAsInt("ASSISTANT_MAX_POLL_ATTEMPTS", 7),

		FallbackMessage:  getEnv("FALLBACK_MESSAGE", DefaultFallbackMessage),
		MaxSegmentLength: getEnvAsInt("MAX_SEGMENT_LENGTH", 4096),

		DedupCapacity: getEnvAsInt("DEDUP_CAPACITY", 1000),
		DedupTTL:      getEnvAsDuration("DEDUP_TTL", 24*time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

// Validate reports missing required credentials. A non-nil error is
// startup-fatal.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		key   string
		value string
	}{
		{"WHATSAPP_ACCESS_TOKEN", c.WhatsAppAccessToken},
		{"WHATSAPP_PHONE_NUMBER_ID", c.WhatsAppPhoneNumberID},
		{"WHATSAPP_VERIFY_TOKEN", c.WhatsAppVerifyToken},
		{"OPENAI_API_KEY", c.OpenAIAPIKey},
		{"OPENAI_ASSISTANT_ID", c.OpenAIAssistantID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.AssistantMaxPollAttempts <= 0 {
		return errors.New("config: ASSISTANT_MAX_POLL_ATTEMPTS must be positive")
	}
	if c.MaxSegmentLength <= 0 {
		return errors.New("config: MAX_SEGMENT_LENGTH must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
