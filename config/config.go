// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr    string
	UploadLimitMB int
	LogLevel      slog.Level

	LLM     LLMConfig
	Summary SummaryConfig
	Store   StoreConfig
	Slack   SlackConfig
	Inbox   InboxConfig
}

type LLMConfig struct {
	Provider string // openai | ollama
	APIKey   string
	BaseURL  string
	Url      string
	Model    string
	Timeout  time.Duration
}

type SummaryConfig struct {
	MaxTokensPerChunk  int
	MaxOutputTokens    int
	Temperature        float32
	Workers            int
	MaxDepth           int
	AnswerOutputTokens int
}

type StoreConfig struct {
	Kind     string // file | memory | bolt | redis | postgres
	FilePath string
	BoltPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PgHost string
	PgPort int
	PgUser string
	PgPass string
	PgDB   string
}

type SlackConfig struct {
	Token   string
	Channel string
}

// InboxConfig drives the folder loader.
type InboxConfig struct {
	SourceDir  string
	ArchiveDir string
	BadDir     string
	Settle     time.Duration // how long a file must sit unchanged before it is picked up
	Interval   time.Duration
}

func (s StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		s.PgHost, s.PgPort, s.PgUser, s.PgPass, s.PgDB)
}

// Load builds a Config from environment variables, falling back to defaults
// for unset ones. Malformed numbers are reported rather than ignored.
func Load() (Config, error) {
	var errs []string
	num := func(key string, def int) int {
		v, err := intEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	timeout, err := durationEnv("LLM_TIMEOUT", 60*time.Second)
	if err != nil {
		errs = append(errs, err.Error())
	}
	temperature, err := floatEnv("SUMMARY_TEMPERATURE", 0.5)
	if err != nil {
		errs = append(errs, err.Error())
	} else if temperature <= 0 || temperature > 2 {
		// a zero temperature is dropped from the request and the provider default applies
		errs = append(errs, fmt.Sprintf("SUMMARY_TEMPERATURE: %v is outside (0, 2]", temperature))
	}
	level, err := levelEnv("LOG_LEVEL", slog.LevelInfo)
	if err != nil {
		errs = append(errs, err.Error())
	}
	settle, err := durationEnv("INBOX_SETTLE", 5*time.Second)
	if err != nil {
		errs = append(errs, err.Error())
	}
	interval, err := durationEnv("INBOX_INTERVAL", time.Second)
	if err != nil {
		errs = append(errs, err.Error())
	}

	cfg := Config{
		ServerAddr:    stringEnv("SERVER_ADDR", ":5000"),
		UploadLimitMB: num("UPLOAD_LIMIT_MB", 32),
		LogLevel:      level,
		LLM: LLMConfig{
			Provider: strings.ToLower(stringEnv("LLM_PROVIDER", "openai")),
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			BaseURL:  os.Getenv("OPENAI_BASE_URL"),
			Url:      stringEnv("LLM_URL", "http://localhost:11434"),
			Model:    stringEnv("LLM_MODEL", "gpt-4o-mini"),
			Timeout:  timeout,
		},
		Summary: SummaryConfig{
			MaxTokensPerChunk:  num("SUMMARY_CHUNK_TOKENS", 7000),
			MaxOutputTokens:    num("SUMMARY_OUTPUT_TOKENS", 1500),
			Temperature:        temperature,
			Workers:            num("SUMMARY_WORKERS", 4),
			MaxDepth:           num("SUMMARY_MAX_DEPTH", 3),
			AnswerOutputTokens: num("ANSWER_OUTPUT_TOKENS", 150),
		},
		Store: StoreConfig{
			Kind:          strings.ToLower(stringEnv("SUMMARY_STORE", "file")),
			FilePath:      stringEnv("SUMMARY_FILE", "extracted_summary.txt"),
			BoltPath:      stringEnv("BOLT_PATH", "summary.db"),
			RedisAddr:     stringEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       num("REDIS_DB", 0),
			PgHost:        stringEnv("PG_HOST", "localhost"),
			PgPort:        num("PG_PORT", 5432),
			PgUser:        os.Getenv("PG_USER"),
			PgPass:        os.Getenv("PG_PASS"),
			PgDB:          os.Getenv("PG_DB_NAME"),
		},
		Slack: SlackConfig{
			Token:   os.Getenv("SLACK_API_TOKEN"),
			Channel: stringEnv("SLACK_CHANNEL", "#your-slack-channel"),
		},
		Inbox: InboxConfig{
			SourceDir:  stringEnv("INBOX_DIR", "inbox"),
			ArchiveDir: stringEnv("ARCHIVE_DIR", "archive"),
			BadDir:     stringEnv("BAD_DIR", "bad"),
			Settle:     settle,
			Interval:   interval,
		},
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func stringEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func floatEnv(key string, def float32) (float32, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return float32(f), nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}

func levelEnv(key string, def slog.Level) (slog.Level, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return def, fmt.Errorf("%s: %q is not a log level", key, v)
	}
	return level, nil
}
