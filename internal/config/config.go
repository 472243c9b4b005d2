package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix          = "EDUFORGE"
	defaultAPIBaseURL  = "http://localhost:8000"
	defaultLimit       = 50
	defaultAPITimeout  = 60 * time.Second
	defaultGenTimeout  = 3 * time.Minute
	defaultRefBudget   = 40_000
	configDirName      = "eduforge"
	configFileName     = "config.yaml"
	preferencesFile    = "preferences.yaml"
	defaultExportDir   = "."
	defaultLogFileName = "eduforge.log"
)

// Config is the resolved runtime configuration.
type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Conversations ConversationsConfig `mapstructure:"conversations"`
	UI            UIConfig            `mapstructure:"ui"`
	Export        ExportConfig        `mapstructure:"export"`
	Reference     ReferenceConfig     `mapstructure:"reference"`
	Log           LogConfig           `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Token             string        `mapstructure:"token"`
	Timeout           time.Duration `mapstructure:"timeout"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
}

type ConversationsConfig struct {
	Limit int `mapstructure:"limit"`
}

type UIConfig struct {
	AltScreen       bool   `mapstructure:"alt_screen"`
	PreferencesPath string `mapstructure:"preferences_path"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type ReferenceConfig struct {
	MaxChars int    `mapstructure:"max_chars"`
	CacheDir string `mapstructure:"cache_dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load resolves configuration from defaults, an optional config file, .env
// files and EDUFORGE_* environment variables (highest priority). An empty
// path looks for config.yaml in the user config directory and tolerates its
// absence; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	loadDotEnv()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if dir := Dir(); dir != "" {
		v.SetConfigFile(filepath.Join(dir, configFileName))
		if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", defaultAPIBaseURL)
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", defaultAPITimeout)
	v.SetDefault("api.generation_timeout", defaultGenTimeout)
	v.SetDefault("conversations.limit", defaultLimit)
	v.SetDefault("ui.alt_screen", true)
	v.SetDefault("ui.preferences_path", "")
	v.SetDefault("export.dir", defaultExportDir)
	v.SetDefault("reference.max_chars", defaultRefBudget)
	v.SetDefault("reference.cache_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = defaultAPITimeout
	}
	if c.API.GenerationTimeout <= 0 {
		c.API.GenerationTimeout = defaultGenTimeout
	}
	if c.Conversations.Limit <= 0 {
		c.Conversations.Limit = defaultLimit
	}
	if c.Reference.MaxChars <= 0 {
		c.Reference.MaxChars = defaultRefBudget
	}
	if c.UI.PreferencesPath == "" {
		if dir := Dir(); dir != "" {
			c.UI.PreferencesPath = filepath.Join(dir, preferencesFile)
		} else {
			c.UI.PreferencesPath = preferencesFile
		}
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaultExportDir
	}
}

// Dir returns the EduForge configuration directory, or "" when the user
// config directory cannot be resolved.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, configDirName)
}

// DefaultLogFile is used when logging is enabled without an explicit path.
func DefaultLogFile() string {
	if dir := Dir(); dir != "" {
		return filepath.Join(dir, defaultLogFileName)
	}
	return defaultLogFileName
}

func loadDotEnv() {
	candidates := []string{".env"}
	if dir := Dir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			// Load never overrides variables already set in the environment.
			_ = godotenv.Load(candidate)
		}
	}
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}
