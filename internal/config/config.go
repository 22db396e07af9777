package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Medium     MediumConfig     `yaml:"medium"`
	WordPress  WordPressConfig  `yaml:"wordpress"`
	Translator TranslatorConfig `yaml:"translator"`
	Events     EventsConfig     `yaml:"events"`
	Sync       SyncConfig       `yaml:"sync"`
	LogLevel   string           `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

type MediumConfig struct {
	APIKey  string        `yaml:"api_key"`
	APIHost string        `yaml:"api_host"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type WordPressConfig struct {
	URL         string        `yaml:"url"`
	Username    string        `yaml:"username"`
	AppPassword string        `yaml:"app_password"`
	AuthorName  string        `yaml:"author_name"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TranslatorConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	TargetLanguage string        `yaml:"target_language"`
	Timeout        time.Duration `yaml:"timeout"`
}

type EventsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type SyncConfig struct {
	Keywords     []string `yaml:"keywords"`
	MaxArticles  int      `yaml:"max_articles"`
	RecentDays   int      `yaml:"recent_days"`
	PostStatus   string   `yaml:"post_status"`
	Category     string   `yaml:"category"`
	ScheduleHour int      `yaml:"schedule_hour"`
	ScheduleMin  int      `yaml:"schedule_minute"`
	Timezone     string   `yaml:"timezone"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Medium.APIHost == "" {
		c.Medium.APIHost = "medium2.p.rapidapi.com"
	}
	if c.Medium.Timeout == 0 {
		c.Medium.Timeout = 15 * time.Second
	}
	if c.Medium.Retry.MaxAttempts == 0 {
		c.Medium.Retry.MaxAttempts = 3
	}
	if c.Medium.Retry.InitialBackoff == 0 {
		c.Medium.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Medium.Retry.MaxBackoff == 0 {
		c.Medium.Retry.MaxBackoff = 30 * time.Second
	}
	if c.WordPress.AuthorName == "" {
		c.WordPress.AuthorName = "Editorial Team"
	}
	if c.WordPress.Timeout == 0 {
		c.WordPress.Timeout = 30 * time.Second
	}
	if c.Translator.Endpoint == "" {
		c.Translator.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if c.Translator.Model == "" {
		c.Translator.Model = "gpt-4o-mini"
	}
	if c.Translator.TargetLanguage == "" {
		c.Translator.TargetLanguage = "pt"
	}
	if c.Translator.Timeout == 0 {
		c.Translator.Timeout = 60 * time.Second
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "medium_syncer"
	}
	if c.Events.RoutingKey == "" {
		c.Events.RoutingKey = "sync_events"
	}
	if c.Events.QueueName == "" {
		c.Events.QueueName = "sync_events"
	}
	if c.Sync.MaxArticles == 0 {
		c.Sync.MaxArticles = 2
	}
	if c.Sync.RecentDays == 0 {
		c.Sync.RecentDays = 30
	}
	if c.Sync.PostStatus == "" {
		c.Sync.PostStatus = "draft"
	}
	if c.Sync.Category == "" {
		c.Sync.Category = "Technology"
	}
	if c.Sync.ScheduleHour == 0 && c.Sync.ScheduleMin == 0 {
		c.Sync.ScheduleHour = 8
	}
	if c.Sync.Timezone == "" {
		c.Sync.Timezone = "UTC"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	var missing []string
	if c.Medium.APIKey == "" {
		missing = append(missing, "medium.api_key")
	}
	if c.WordPress.URL == "" {
		missing = append(missing, "wordpress.url")
	}
	if c.WordPress.Username == "" {
		missing = append(missing, "wordpress.username")
	}
	if c.WordPress.AppPassword == "" {
		missing = append(missing, "wordpress.app_password")
	}
	if len(c.Sync.Keywords) == 0 {
		missing = append(missing, "sync.keywords")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.Sync.PostStatus != "draft" && c.Sync.PostStatus != "publish" {
		return fmt.Errorf("sync.post_status must be draft or publish, got %q", c.Sync.PostStatus)
	}
	return nil
}
