package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures credentials, the trigger to watch for, pacing and the trusted allow-list.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	Bot         BotConfig         `yaml:"bot"`
	Pacing      PacingConfig      `yaml:"pacing"`
	Limits      LimitsConfig      `yaml:"limits"`
	Trust       TrustConfig       `yaml:"trust"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// CredentialsConfig holds the five required secrets. Empty fields are read from the environment.
type CredentialsConfig struct {
	APIKey            string `yaml:"apiKey"`
	APISecret         string `yaml:"apiSecret"`
	AccessToken       string `yaml:"accessToken"`
	AccessTokenSecret string `yaml:"accessTokenSecret"`
	BearerToken       string `yaml:"bearerToken"`
}

type BotConfig struct {
	// Handle (without @) whose mentions are searched
	TargetHandle  string `yaml:"targetHandle"`
	TriggerPhrase string `yaml:"triggerPhrase"`
}

type PacingConfig struct {
	PollInterval   time.Duration `yaml:"pollInterval"`
	MinAPIInterval time.Duration `yaml:"minApiInterval"`
	BackoffMin     time.Duration `yaml:"backoffMin"`
	BackoffMax     time.Duration `yaml:"backoffMax"`
	// Sleep after an unhandled error in the loop
	ErrorSleep time.Duration `yaml:"errorSleep"`
}

type LimitsConfig struct {
	SeenCapacity   int `yaml:"seenCapacity"`
	SearchResults  int `yaml:"searchResults"`
	RecentPosts    int `yaml:"recentPosts"`
	Followers      int `yaml:"followers"`
	ReplyMaxLength int `yaml:"replyMaxLength"`
}

type TrustConfig struct {
	// Handles matched case-sensitively against follower usernames
	Accounts []string `yaml:"accounts"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Credential environment variable names, in the order they are reported.
const (
	EnvAPIKey            = "API_KEY"
	EnvAPISecret         = "API_SECRET"
	EnvAccessToken       = "ACCESS_TOKEN"
	EnvAccessTokenSecret = "ACCESS_TOKEN_SECRET"
	EnvBearerToken       = "BEARER_TOKEN"
)

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Bot: BotConfig{TargetHandle: "projectrugguard", TriggerPhrase: "riddle me this"},
		Pacing: PacingConfig{
			PollInterval:   60 * time.Second,
			MinAPIInterval: 2 * time.Second,
			BackoffMin:     60 * time.Second,
			BackoffMax:     15 * time.Minute,
			ErrorSleep:     60 * time.Second,
		},
		Limits: LimitsConfig{
			SeenCapacity:   100,
			SearchResults:  10,
			RecentPosts:    100,
			Followers:      1000,
			ReplyMaxLength: 280,
		},
		Trust:   TrustConfig{Accounts: append([]string(nil), DefaultTrustedAccounts...)},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Listen: ""},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&c.Credentials.APIKey, EnvAPIKey)
	fill(&c.Credentials.APISecret, EnvAPISecret)
	fill(&c.Credentials.AccessToken, EnvAccessToken)
	fill(&c.Credentials.AccessTokenSecret, EnvAccessTokenSecret)
	fill(&c.Credentials.BearerToken, EnvBearerToken)
	fill(&c.Metrics.Listen, "METRICS_ADDR")
}

// MissingCredentials lists the environment variable names of credentials that are still empty.
func (c Config) MissingCredentials() []string {
	var missing []string
	for _, f := range []struct {
		name, val string
	}{
		{EnvAPIKey, c.Credentials.APIKey},
		{EnvAPISecret, c.Credentials.APISecret},
		{EnvAccessToken, c.Credentials.AccessToken},
		{EnvAccessTokenSecret, c.Credentials.AccessTokenSecret},
		{EnvBearerToken, c.Credentials.BearerToken},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// LoadDotEnv loads a .env file into the process environment without overriding set variables.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads YAML config from path over the defaults. An empty path or missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
