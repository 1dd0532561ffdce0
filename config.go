package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = "8000"
	defaultGeminiModel = "gemini-2.5-pro"
	defaultWorkerCount = 3
)

type Config struct {
	Port         string
	DiscordToken string
	GoogleApiKey string
	GeminiModel  string
	DBUrl        string
	RabbitMQUrl  string
	R2           R2Config
	WorkerCount  int
}

// LoadConfig reads settings from the environment, loading a .env file
// first when one exists.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnvDefault("PORT", defaultPort),
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GoogleApiKey: os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:  getEnvDefault("GEMINI_MODEL", defaultGeminiModel),
		DBUrl:        os.Getenv("DB_URL"),
		RabbitMQUrl:  os.Getenv("RABBITMQ_URL"),
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			Bucket:    os.Getenv("R2_BUCKET"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
		},
		WorkerCount: defaultWorkerCount,
	}

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid WORKER_COUNT %q", v)
		}
		cfg.WorkerCount = n
	}

	if err := cfg.validateR2(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c Config) r2Set() bool {
	return c.R2.AccountID != "" || c.R2.Bucket != "" || c.R2.AccessKey != "" || c.R2.SecretKey != ""
}

func (c Config) validateR2() error {
	if !c.r2Set() {
		return nil
	}
	var missing []error
	if c.R2.AccountID == "" {
		missing = append(missing, errors.New("empty R2_ACCOUNT_ID in environment"))
	}
	if c.R2.Bucket == "" {
		missing = append(missing, errors.New("empty R2_BUCKET in environment"))
	}
	if c.R2.AccessKey == "" {
		missing = append(missing, errors.New("empty R2_ACCESS_KEY in environment"))
	}
	if c.R2.SecretKey == "" {
		missing = append(missing, errors.New("empty R2_SECRET_KEY in environment"))
	}
	return errors.Join(missing...)
}

// PipelineEnabled reports whether the async upload pipeline can run.
func (c Config) PipelineEnabled() bool {
	return c.DBUrl != "" && c.RabbitMQUrl != "" && c.r2Set()
}

// ValidateWorker checks everything the consumer pool needs.
func (c Config) ValidateWorker() error {
	var errs []error
	if c.DBUrl == "" {
		errs = append(errs, errors.New("empty DB_URL in environment"))
	}
	if c.RabbitMQUrl == "" {
		errs = append(errs, errors.New("empty RABBITMQ_URL in env"))
	}
	if !c.r2Set() {
		errs = append(errs, errors.New("empty R2 settings in environment"))
	}
	if c.GoogleApiKey == "" {
		errs = append(errs, errors.New("empty GOOGLE_API_KEY in env"))
	}
	return errors.Join(errs...)
}
