package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LUNCHCAL_SCHOOL_ID.
const EnvPrefix = "LUNCHCAL"

type SchoolConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
}

type LunchConfig struct {
	Start    string        `mapstructure:"start" yaml:"start"` // HH:MM local time
	Duration time.Duration `mapstructure:"duration" yaml:"duration"`
}

type SchoolCafeConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type CalendarConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	ID       string `mapstructure:"id" yaml:"id"` // calendar path; empty means first discovered
}

type TelegramConfig struct {
	Token  string `mapstructure:"token" yaml:"token"`
	ChatID int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Config struct {
	School              SchoolConfig     `mapstructure:"school" yaml:"school"`
	MealType            string           `mapstructure:"meal_type" yaml:"meal_type"`
	ServingLinePattern  string           `mapstructure:"serving_line_pattern" yaml:"serving_line_pattern"`
	Grade               string           `mapstructure:"grade" yaml:"grade"`
	PersonID            string           `mapstructure:"person_id" yaml:"person_id"`
	EnabledWeekendMenus bool             `mapstructure:"enabled_weekend_menus" yaml:"enabled_weekend_menus"`
	Timezone            string           `mapstructure:"timezone" yaml:"timezone"`
	Lunch               LunchConfig      `mapstructure:"lunch" yaml:"lunch"`
	EventTag            string           `mapstructure:"event_tag" yaml:"event_tag"`
	SchoolCafe          SchoolCafeConfig `mapstructure:"schoolcafe" yaml:"schoolcafe"`
	Calendar            CalendarConfig   `mapstructure:"calendar" yaml:"calendar"`
	DatabasePath        string           `mapstructure:"database_path" yaml:"database_path"`
	Schedule            string           `mapstructure:"schedule" yaml:"schedule"`
	Telegram            TelegramConfig   `mapstructure:"telegram" yaml:"telegram"`
	Log                 LogConfig        `mapstructure:"log" yaml:"log"`

	// Derived by Load
	Location    *time.Location `mapstructure:"-" yaml:"-"`
	LunchHour   int            `mapstructure:"-" yaml:"-"`
	LunchMinute int            `mapstructure:"-" yaml:"-"`
	Pattern     *regexp.Regexp `mapstructure:"-" yaml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		MealType:           "Lunch",
		ServingLinePattern: "Lunch",
		Grade:              "08",
		Timezone:           "America/Chicago",
		Lunch: LunchConfig{
			Start:    "11:30",
			Duration: 30 * time.Minute,
		},
		EventTag: "lunchcal",
		SchoolCafe: SchoolCafeConfig{
			BaseURL: "https://webapis.schoolcafe.com",
			Timeout: 30 * time.Second,
		},
		DatabasePath: "./data/lunchcal.db",
		Schedule:     "0 18 * * 0",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("school.id", d.School.ID)
	v.SetDefault("school.name", d.School.Name)
	v.SetDefault("meal_type", d.MealType)
	v.SetDefault("serving_line_pattern", d.ServingLinePattern)
	v.SetDefault("grade", d.Grade)
	v.SetDefault("person_id", d.PersonID)
	v.SetDefault("enabled_weekend_menus", d.EnabledWeekendMenus)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("lunch.start", d.Lunch.Start)
	v.SetDefault("lunch.duration", d.Lunch.Duration)
	v.SetDefault("event_tag", d.EventTag)
	v.SetDefault("schoolcafe.base_url", d.SchoolCafe.BaseURL)
	v.SetDefault("schoolcafe.timeout", d.SchoolCafe.Timeout)
	v.SetDefault("calendar.url", d.Calendar.URL)
	v.SetDefault("calendar.username", d.Calendar.Username)
	v.SetDefault("calendar.password", d.Calendar.Password)
	v.SetDefault("calendar.id", d.Calendar.ID)
	v.SetDefault("database_path", d.DatabasePath)
	v.SetDefault("schedule", d.Schedule)
	v.SetDefault("telegram.token", d.Telegram.Token)
	v.SetDefault("telegram.chat_id", d.Telegram.ChatID)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads path (YAML) when given, otherwise lunchcal.yaml from the
// working directory or ~/.config/lunchcal if present. Environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("lunchcal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lunchcal"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every setting and fills the derived fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.School.ID) == "" {
		return errors.New("school.id is required")
	}
	if c.MealType == "" {
		return errors.New("meal_type is required")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	c.Location = loc

	start, err := time.Parse("15:04", c.Lunch.Start)
	if err != nil {
		return fmt.Errorf("invalid lunch.start %q, want HH:MM", c.Lunch.Start)
	}
	c.LunchHour, c.LunchMinute = start.Hour(), start.Minute()

	if c.Lunch.Duration <= 0 {
		return fmt.Errorf("invalid lunch.duration %s, must be positive", c.Lunch.Duration)
	}
	if c.SchoolCafe.Timeout <= 0 {
		return fmt.Errorf("invalid schoolcafe.timeout %s, must be positive", c.SchoolCafe.Timeout)
	}

	c.Pattern = nil
	if c.ServingLinePattern != "" {
		re, err := regexp.Compile("(?i)" + c.ServingLinePattern)
		if err != nil {
			return fmt.Errorf("invalid serving_line_pattern: %w", err)
		}
		c.Pattern = re
	}

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when telegram.token is set")
	}
	return nil
}

// PersonIDParam returns nil when no person is configured, which the
// SchoolCafé API expects as PersonId=null.
func (c *Config) PersonIDParam() *string {
	if c.PersonID == "" || strings.EqualFold(c.PersonID, "null") {
		return nil
	}
	id := c.PersonID
	return &id
}

// CalendarConfigured reports whether a CalDAV server is set.
func (c *Config) CalendarConfigured() bool {
	return c.Calendar.URL != ""
}

// HistoryEnabled reports whether runs are persisted.
func (c *Config) HistoryEnabled() bool {
	return c.DatabasePath != ""
}

// TelegramEnabled reports whether run notifications are sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

// WriteDefault writes the default configuration as YAML to path.
// The file is written atomically with 0600 permissions. An existing file
// is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lunchcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
