// Package config loads the service configuration from the environment.
// A local .env file is honored when present; values are parsed into a typed
// Config struct.
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddress    string        `envconfig:"RUN_ADDRESS" default:"0.0.0.0:8080"`
	DatabaseURI   string        `envconfig:"DATABASE_URI" default:"host=db user=postgres password=password dbname=rewear sslmode=disable"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	JWTSecret     string        `envconfig:"JWT_SECRET" default:"supersecretkey"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"3h"`
	SignupBonus   int           `envconfig:"SIGNUP_BONUS" default:"50"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL" default:""`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD" default:""`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment values")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
