package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppID          string
	PrivateKey     []byte
	WebhookSecret  string
	Port           string
	DryRun         bool
	LogLevel       string
	MongoDBURI     string
	DatabaseName   string
	TelegramToken  string
	TelegramChatID int64
}

func Load() *Config {
	_ = godotenv.Load()

	required := []string{
		"APP_ID",
		"WEBHOOK_SECRET",
	}

	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		log.Fatalf("Missing required environment variables: %s", strings.Join(missing, ", "))
	}

	key := loadPrivateKey()
	if len(key) == 0 {
		log.Fatalf("Missing private key: set PRIVATE_KEY or PRIVATE_KEY_PATH")
	}

	return &Config{
		AppID:          os.Getenv("APP_ID"),
		PrivateKey:     key,
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		Port:           getEnv("PORT", "8080"),
		DryRun:         os.Getenv("DRY_RUN") != "",
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MongoDBURI:     os.Getenv("MONGODB_URI"),
		DatabaseName:   getEnv("DATABASE_NAME", "issue_move_bot"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: parseChatID(os.Getenv("TELEGRAM_CHAT_ID")),
	}
}

// loadPrivateKey reads the App private key from PRIVATE_KEY directly or from
// the file named by PRIVATE_KEY_PATH. Escaped newlines in PRIVATE_KEY are
// unescaped so the PEM survives single-line env files.
func loadPrivateKey() []byte {
	if v := os.Getenv("PRIVATE_KEY"); v != "" {
		return []byte(strings.ReplaceAll(v, `\n`, "\n"))
	}
	if path := os.Getenv("PRIVATE_KEY_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read private key file: %v", err)
		}
		return data
	}
	return nil
}

func parseChatID(s string) int64 {
	if s == "" {
		return 0
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("Invalid TELEGRAM_CHAT_ID: %q", s)
	}
	return id
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
