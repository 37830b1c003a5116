package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	xdgAppName = "tasknotes"
	configFile = "config.json"
)

// ErrMissing marks a required setting that is absent or empty.
var ErrMissing = errors.New("missing required configuration")

// Config is built once at start-up and handed to every component.
type Config struct {
	// Secrets and ids, normally from the environment.
	NotionToken        string `mapstructure:"notion_token" json:"-" env:"NOTION_TOKEN" validate:"required"`
	NotionDataSourceID string `mapstructure:"notion_database_id" json:"-" env:"NOTION_DATABASE_ID" validate:"required"`
	NtfyTopic          string `mapstructure:"ntfy_topic" json:"-" env:"NTFY_TOPIC" validate:"required"`
	SessionSecret      string `mapstructure:"session_secret" json:"-" env:"TASKNOTES_SESSION_SECRET" validate:"required"`

	NotionBaseURL string `mapstructure:"notion_base_url" json:"notion_base_url,omitempty"`
	NtfyServer    string `mapstructure:"ntfy_server" json:"ntfy_server,omitempty"`
	Addr          string `mapstructure:"addr" json:"addr,omitempty"`
	Calendar      string `mapstructure:"calendar" json:"calendar,omitempty"`
	APIURL        string `mapstructure:"api_url" json:"api_url,omitempty"`
	APIToken      string `mapstructure:"api_token" json:"-"`

	Properties Properties `mapstructure:"properties" json:"properties"`
	Log        Log        `mapstructure:"log" json:"log"`
}

// Properties names the data source columns.
type Properties struct {
	Task    string `mapstructure:"task" json:"task"`
	Done    string `mapstructure:"done" json:"done"`
	DueDate string `mapstructure:"due_date" json:"due_date"`
	// DoneAt may be empty to disable completion timestamps.
	DoneAt string `mapstructure:"done_at" json:"done_at"`
}

type Log struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

var envBindings = map[string]string{
	"notion_token":        "NOTION_TOKEN",
	"notion_database_id":  "NOTION_DATABASE_ID",
	"notion_base_url":     "NOTION_BASE_URL",
	"ntfy_topic":          "NTFY_TOPIC",
	"ntfy_server":         "NTFY_SERVER",
	"session_secret":      "TASKNOTES_SESSION_SECRET",
	"addr":                "TASKNOTES_ADDR",
	"calendar":            "TASKNOTES_CALENDAR",
	"api_url":             "TASKNOTES_API_URL",
	"api_token":           "TASKNOTES_API_TOKEN",
	"properties.task":     "TASKNOTES_PROPERTY_TASK",
	"properties.done":     "TASKNOTES_PROPERTY_DONE",
	"properties.due_date": "TASKNOTES_PROPERTY_DUE_DATE",
	"properties.done_at":  "TASKNOTES_PROPERTY_DONE_AT",
	"log.level":           "TASKNOTES_LOG_LEVEL",
	"log.format":          "TASKNOTES_LOG_FORMAT",
}

var (
	validate     = validator.New()
	typeOfConfig = reflect.TypeOf(Config{})
)

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("notion_base_url", "https://api.notion.com/v1")
	v.SetDefault("ntfy_server", "https://ntfy.sh")
	v.SetDefault("addr", ":8080")
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("properties.task", "Task")
	v.SetDefault("properties.done", "done")
	v.SetDefault("properties.due_date", "due date")
	v.SetDefault("properties.done_at", "done at")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the default config file (if any) and the environment.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit file. A missing file is not an error;
// environment variables override file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to decode config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the non-secret settings to the default config file.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// RequireStore checks the record store credentials.
func (c *Config) RequireStore() error {
	return c.require("NotionToken", "NotionDataSourceID")
}

// RequireNotify checks the settings of the reminder job.
func (c *Config) RequireNotify() error {
	if err := c.RequireStore(); err != nil {
		return err
	}
	return c.require("NtfyTopic")
}

// RequireServer checks the settings of the HTTP API.
func (c *Config) RequireServer() error {
	if err := c.RequireStore(); err != nil {
		return err
	}
	return c.require("SessionSecret")
}

func (c *Config) require(fields ...string) error {
	err := validate.StructPartial(c, fields...)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, envName(fe.StructField()))
	}
	if len(names) == 1 {
		return fmt.Errorf("%w: missing %s environment variable", ErrMissing, names[0])
	}
	return fmt.Errorf("%w: missing %s environment variables", ErrMissing, strings.Join(names, ", "))
}

func envName(field string) string {
	f, ok := typeOfConfig.FieldByName(field)
	if !ok {
		return field
	}
	if env := f.Tag.Get("env"); env != "" {
		return env
	}
	return field
}
