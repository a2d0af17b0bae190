package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ZohoAccountsURL  string `yaml:"zoho_accounts_url"`
	ZohoDeskURL      string `yaml:"zoho_desk_url"`
	ZohoClientID     string `yaml:"zoho_client_id"`
	ZohoClientSecret string `yaml:"zoho_client_secret"`
	ZohoRefreshToken string `yaml:"zoho_refresh_token"`
	ZohoOrgID        string `yaml:"zoho_org_id"`

	InputFile       string `yaml:"input_file"`
	DBPath          string `yaml:"db_path"`
	LexiconPath     string `yaml:"lexicon_path"`
	DirectionFilter string `yaml:"direction_filter"` // inbound, outbound, or both
	Workers         int    `yaml:"workers"`
	MaxRetries      int    `yaml:"max_retries"`
	RunTimeoutMins  int    `yaml:"run_timeout_minutes"`

	SlackBotToken    string `yaml:"slack_bot_token"`
	SummaryChannelID string `yaml:"summary_channel_id"`
	AlertChannelID   string `yaml:"alert_channel_id"`
	RunSchedule      string `yaml:"run_schedule"` // 5-field cron expression; empty disables
	Timezone         string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ZohoAccountsURL, "ZOHO_ACCOUNTS_URL")
	envOverride(&cfg.ZohoDeskURL, "ZOHO_DESK_URL")
	envOverride(&cfg.ZohoClientID, "ZOHO_CLIENT_ID")
	envOverride(&cfg.ZohoClientSecret, "ZOHO_CLIENT_SECRET")
	envOverride(&cfg.ZohoRefreshToken, "ZOHO_REFRESH_TOKEN")
	envOverride(&cfg.ZohoOrgID, "ZOHO_ORG_ID")
	envOverride(&cfg.InputFile, "INPUT_FILE")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.LexiconPath, "LEXICON_PATH")
	envOverride(&cfg.DirectionFilter, "DIRECTION_FILTER")
	envOverrideInt(&cfg.Workers, "WORKERS")
	envOverrideInt(&cfg.MaxRetries, "MAX_RETRIES")
	envOverrideInt(&cfg.RunTimeoutMins, "RUN_TIMEOUT_MINUTES")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SummaryChannelID, "SUMMARY_CHANNEL_ID")
	envOverride(&cfg.AlertChannelID, "ALERT_CHANNEL_ID")
	envOverride(&cfg.RunSchedule, "RUN_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.ZohoAccountsURL == "" {
		cfg.ZohoAccountsURL = "https://accounts.zoho.in"
	}
	if cfg.ZohoDeskURL == "" {
		cfg.ZohoDeskURL = "https://desk.zoho.in"
	}
	if cfg.InputFile == "" {
		cfg.InputFile = "./tickets.csv"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./sentimentbot.db"
	}
	if cfg.DirectionFilter == "" {
		cfg.DirectionFilter = "inbound"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields. Credential values are never logged.
	required := map[string]string{
		"zoho_client_id":     cfg.ZohoClientID,
		"zoho_client_secret": cfg.ZohoClientSecret,
		"zoho_refresh_token": cfg.ZohoRefreshToken,
		"zoho_org_id":        cfg.ZohoOrgID,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	switch cfg.DirectionFilter {
	case "inbound", "outbound", "both":
	default:
		log.Fatalf("direction_filter must be 'inbound', 'outbound', or 'both', got '%s'", cfg.DirectionFilter)
	}
	if cfg.Workers < 1 {
		log.Fatalf("invalid workers '%d': must be >= 1", cfg.Workers)
	}
	if cfg.MaxRetries < 1 {
		log.Fatalf("invalid max_retries '%d': must be >= 1", cfg.MaxRetries)
	}
	if cfg.RunTimeoutMins < 0 {
		log.Fatalf("invalid run_timeout_minutes '%d': must be >= 0", cfg.RunTimeoutMins)
	}
	if cfg.LexiconPath != "" {
		if _, err := LoadLexicon(cfg.LexiconPath); err != nil {
			log.Fatalf("invalid lexicon_path '%s': %v", cfg.LexiconPath, err)
		}
	}
	if (cfg.SummaryChannelID != "" || cfg.AlertChannelID != "") && cfg.SlackBotToken == "" {
		log.Fatalf("slack_bot_token is required when a Slack channel is configured")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && (c.SummaryChannelID != "" || c.AlertChannelID != "")
}

func (c Config) RunTimeout() time.Duration {
	if c.RunTimeoutMins <= 0 {
		return 0
	}
	return time.Duration(c.RunTimeoutMins) * time.Minute
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
