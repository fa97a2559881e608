// Package config loads runtime settings from the environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultPrefix is the environment prefix for settings without a well-known name.
const DefaultPrefix = "GITHUB_STATS"

// Config holds every setting a command run needs.
// The GitHub Actions names (GITHUB_TOKEN, GITHUB_ACTOR, ...) are read without the prefix.
type Config struct {
	Token      string `envconfig:"GITHUB_TOKEN" validate:"required"`
	User       string `envconfig:"GITHUB_ACTOR"`
	APIURL     string `envconfig:"API_URL" default:"https://api.github.com/" validate:"url"`
	GraphQLURL string `split_words:"true" validate:"omitempty,url"`

	ExcludedRepos     []string `envconfig:"EXCLUDED"`
	ExcludedLangs     []string `envconfig:"EXCLUDED_LANGS"`
	IgnoreForkedRepos bool     `envconfig:"EXCLUDE_FORKED_REPOS"`

	Concurrency            int           `default:"1" validate:"gte=1,lte=32"`
	RequestsPerSecond      float64       `split_words:"true" default:"0" validate:"gte=0"`
	RequestTimeout         time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
	SecondaryRateLimitWait time.Duration `split_words:"true" default:"0s" validate:"gte=0"`
}

// Loader reads a Config. Prefix applies to the fields without an explicit envconfig name.
type Loader struct {
	Prefix   string
	validate *validator.Validate
	logger   *log.Logger
}

func NewLoader(prefix string, logger *log.Logger) *Loader {
	return &Loader{Prefix: prefix, validate: validator.New(), logger: logger}
}

// Load reads .env files, then the environment, and checks the result.
// Variables already set in the environment win over .env files.
func (l *Loader) Load() (Config, error) {
	var cfg Config

	loaded, err := readEnvFiles()
	switch {
	case err != nil:
		l.logger.Printf("Skipping env files: %v\n", err)
	case len(loaded) == 0:
		l.logger.Println("No env file in the working directory, using the environment only")
	default:
		l.logger.Printf("Read env files: %s\n", strings.Join(loaded, ", "))
	}

	if err := envconfig.Process(l.Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := l.Check(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Check validates cfg. Callers that change a loaded Config, e.g. from flags, call it again.
func (l *Loader) Check(cfg Config) error {
	if err := l.validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// readEnvFiles loads .env and, when APP_ENV is set, .env.<APP_ENV>.
// Missing files are skipped; the names of the files read are returned.
func readEnvFiles() ([]string, error) {
	candidates := []string{".env"}
	if appEnv := strings.TrimSpace(os.Getenv("APP_ENV")); appEnv != "" {
		candidates = append(candidates, ".env."+appEnv)
	}

	var loaded []string
	for _, name := range candidates {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return loaded, fmt.Errorf("%s: %w", name, err)
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}
