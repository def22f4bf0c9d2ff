package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	GitHub   GitHubConfig   `yaml:"github"`
	Storage  StorageConfig  `yaml:"storage"`
	Run      RunConfig      `yaml:"run"`
}

// TelegramConfig contains the chat transport settings.
type TelegramConfig struct {
	BotToken    string `yaml:"botToken,omitempty"`
	ChatID      int64  `yaml:"chatID,omitempty"`
	PollTimeout int    `yaml:"pollTimeout,omitempty"`
}

// OpenAIConfig contains the completion backend settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey,omitempty"`
	BaseURL string `yaml:"baseURL,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// GitHubConfig contains the publish/issue settings.
type GitHubConfig struct {
	Token      string `yaml:"token,omitempty"`
	Repository string `yaml:"repository,omitempty"`
}

// StorageConfig contains the flat-file layout.
type StorageConfig struct {
	Dir       string `yaml:"dir"`
	SkillsDir string `yaml:"skillsDir,omitempty"`
	CacheFile string `yaml:"cacheFile,omitempty"`
}

// RunConfig contains runtime behavior.
type RunConfig struct {
	Mode            string `yaml:"mode"` // "continuous" or "single"
	SkipUpdateCheck bool   `yaml:"skipUpdateCheck,omitempty"`
}

// DefaultConfig returns the defaults used when neither the file nor the
// environment says otherwise.
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 10,
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		GitHub: GitHubConfig{
			Repository: "motyar/agent0",
		},
		Storage: StorageConfig{
			Dir:       "./storage",
			SkillsDir: "./skills",
			CacheFile: "/tmp/gitbutler/telegram_updates.json",
		},
		Run: RunConfig{
			Mode: "continuous",
		},
	}
}

// Load reads the config file when present and layers environment
// variables on top. A missing file is not an error; the environment alone
// is a complete configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables on top of the file config.
func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("⚠️ invalid TELEGRAM_CHAT_ID %q: %v", v, err)
		} else {
			c.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_REPOSITORY"); v != "" {
		c.GitHub.Repository = v
	}
	if v := os.Getenv("RUN_MODE"); v != "" {
		c.Run.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("SKIP_UPDATE_CHECK"); strings.EqualFold(v, "true") {
		c.Run.SkipUpdateCheck = true
	}
}

// Validate checks that everything a processing run needs is present.
// The allowed chat id is mandatory: adopting the first sender's chat at
// runtime would hand the assistant to whoever messages it first.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required (set TELEGRAM_TOKEN)")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram chat id is required (set TELEGRAM_CHAT_ID)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}
	if c.Run.Mode != "continuous" && c.Run.Mode != "single" {
		return fmt.Errorf("unknown run mode %q (want \"continuous\" or \"single\")", c.Run.Mode)
	}
	return nil
}

// Save writes the configuration to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// Contains API keys.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
