// Package config loads the server configuration from the environment.
//
// Values come from, in increasing priority: the envDefault tags below, a
// .env file in the working directory (optional), and the process environment.
// The result is validated once at startup so a bad value fails fast instead
// of surfacing on the first request.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"3000" validate:"min=1,max=65535"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"loglevel"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite" validate:"oneof=sqlite dynamodb"`
	DBPath       string `env:"DB_PATH" envDefault:"data/memes.db" validate:"required_if=StoreBackend sqlite"`

	AWSRegion   string `env:"AWS_REGION" envDefault:"us-east-1" validate:"required"`
	MemesTable  string `env:"DYNAMODB_MEMES_TABLE" envDefault:"MemesTable" validate:"required"`
	UsersTable  string `env:"DYNAMODB_USERS_TABLE" envDefault:"UsersTable" validate:"required"`
	SNSTopicARN string `env:"SNS_TOPIC_ARN"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"public/uploads" validate:"required"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880" validate:"gt=0"`

	// S3 image store. Empty bucket keeps images on local disk.
	S3Bucket    string `env:"S3_BUCKET"`
	S3Prefix    string `env:"S3_PREFIX" envDefault:"uploads/"`
	S3Endpoint  string `env:"S3_ENDPOINT" validate:"omitempty,url"`
	S3AccessKey string `env:"S3_ACCESS_KEY" validate:"required_with=S3SecretKey"`
	S3SecretKey string `env:"S3_SECRET_KEY" validate:"required_with=S3AccessKey"`

	JWTSecret        string  `env:"JWT_SECRET" validate:"omitempty,min=16"`
	AdminRequireAuth bool    `env:"ADMIN_REQUIRE_AUTH" envDefault:"false"`
	LikeMilestones   []int64 `env:"LIKE_MILESTONES" envSeparator:"," envDefault:"10,50,100,500,1000" validate:"dive,gt=0"`
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.String("error", err.Error()))
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}
	return v.Struct(cfg)
}
