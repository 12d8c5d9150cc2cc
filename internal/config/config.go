package config

import (
	"fmt"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/aggregate"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/breakdown"

	"github.com/ilyakaznacheev/cleanenv"
)

// Category rule sources
const (
	RulesFromEventStore = "eventstore"
	RulesFromSQLite     = "sqlite"
	RulesFromFile       = "file"
)

// Calendar providers
const (
	CalendarFromEventStore = "eventstore"
	CalendarFromGoogle     = "google"
)

// Config is the engine configuration. Boolean options default to false
// because cleanenv cannot tell an explicit false from an unset field.
type Config struct {
	Env         string           `yaml:"env" env:"ENV" env-default:"local"`
	Log         LogConfig        `yaml:"log"`
	EventStore  EventStoreConfig `yaml:"event_store"`
	Streams     StreamsConfig    `yaml:"streams"`
	Categories  CategoriesConfig `yaml:"categories"`
	StoragePath string           `yaml:"storage_path" env:"STORAGE_PATH" env-default:"./activity-report.db"`
	Calendar    CalendarConfig   `yaml:"calendar"`
	Report      ReportConfig     `yaml:"report"`
	Server      ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	File   string `yaml:"file" env:"LOG_FILE"`
}

type EventStoreConfig struct {
	BaseURL string        `yaml:"base_url" env:"EVENT_STORE_URL" env-default:"http://localhost:5600"`
	Timeout time.Duration `yaml:"timeout" env:"EVENT_STORE_TIMEOUT" env-default:"10s"`
	// Hostname narrows stream discovery to one machine; empty accepts any.
	Hostname string `yaml:"hostname" env:"EVENT_STORE_HOSTNAME"`
}

// StreamsConfig holds the id prefixes used to discover each stream kind
type StreamsConfig struct {
	WindowPrefix    string        `yaml:"window_prefix" env:"STREAM_WINDOW_PREFIX" env-default:"aw-watcher-window"`
	AFKPrefix       string        `yaml:"afk_prefix" env:"STREAM_AFK_PREFIX" env-default:"aw-watcher-afk"`
	BrowserPrefixes []string      `yaml:"browser_prefixes" env:"STREAM_BROWSER_PREFIXES" env-default:"aw-watcher-web"`
	EditorPrefixes  []string      `yaml:"editor_prefixes" env:"STREAM_EDITOR_PREFIXES" env-default:"aw-watcher-vscode,aw-watcher-jetbrains,aw-watcher-vim"`
	CalendarPrefix  string        `yaml:"calendar_prefix" env:"STREAM_CALENDAR_PREFIX" env-default:"aw-import-ical"`
	DiscoveryTTL    time.Duration `yaml:"discovery_ttl" env:"STREAM_DISCOVERY_TTL" env-default:"1m"`
}

type CategoriesConfig struct {
	Source   string        `yaml:"source" env:"CATEGORIES_SOURCE" env-default:"eventstore"`
	File     string        `yaml:"file" env:"CATEGORIES_FILE"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CATEGORIES_CACHE_TTL" env-default:"5m"`
}

type CalendarConfig struct {
	Provider         string   `yaml:"provider" env:"CALENDAR_PROVIDER" env-default:"eventstore"`
	CredentialsFile  string   `yaml:"credentials_file" env:"CALENDAR_CREDENTIALS_FILE"`
	TokenFile        string   `yaml:"token_file" env:"CALENDAR_TOKEN_FILE"`
	CalendarIDs      []string `yaml:"calendar_ids" env:"CALENDAR_IDS" env-default:"primary"`
	ExcludeCancelled bool     `yaml:"exclude_cancelled" env:"CALENDAR_EXCLUDE_CANCELLED"`
	ExcludeAllDay    bool     `yaml:"exclude_all_day" env:"CALENDAR_EXCLUDE_ALL_DAY"`
}

type ReportConfig struct {
	TopN              int      `yaml:"top_n" env:"REPORT_TOP_N" env-default:"10"`
	MinDuration       float64  `yaml:"min_duration" env:"REPORT_MIN_DURATION" env-default:"0"`
	GroupBy           []string `yaml:"group_by" env:"REPORT_GROUP_BY" env-default:"app"`
	ExcludeSystemApps bool     `yaml:"exclude_system_apps" env:"REPORT_EXCLUDE_SYSTEM_APPS"`
	SystemApps        []string `yaml:"system_apps" env:"REPORT_SYSTEM_APPS" env-default:"loginwindow,LockApp.exe,ScreenSaverEngine,unknown"`
	Timezone          string   `yaml:"timezone" env:"REPORT_TIMEZONE"`
	Bucket            string   `yaml:"bucket" env:"REPORT_BUCKET"`
	BrowserApps       []string `yaml:"browser_apps" env:"REPORT_BROWSER_APPS" env-default:"chrome,chromium,firefox,safari,edge,brave,opera,vivaldi,arc"`
	EditorApps        []string `yaml:"editor_apps" env:"REPORT_EDITOR_APPS" env-default:"code,codium,cursor,idea,goland,pycharm,webstorm,vim,nvim,emacs,zed,sublime"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"SERVER_PORT" env-default:"8090"`
}

// LoadConfig reads the YAML file at path, applies environment overrides
// and validates the result. An empty path reads the environment only.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if c.EventStore.BaseURL == "" {
		return fmt.Errorf("event_store.base_url is required")
	}
	if c.EventStore.Timeout <= 0 {
		return fmt.Errorf("event_store.timeout must be positive")
	}
	if c.Streams.WindowPrefix == "" {
		return fmt.Errorf("streams.window_prefix is required")
	}

	switch c.Categories.Source {
	case RulesFromEventStore, RulesFromSQLite:
	case RulesFromFile:
		if c.Categories.File == "" {
			return fmt.Errorf("categories.file is required when categories.source is %q", RulesFromFile)
		}
	default:
		return fmt.Errorf("unknown categories.source %q", c.Categories.Source)
	}

	switch c.Calendar.Provider {
	case CalendarFromEventStore:
	case CalendarFromGoogle:
		if c.Calendar.CredentialsFile == "" || c.Calendar.TokenFile == "" {
			return fmt.Errorf("calendar.credentials_file and calendar.token_file are required for the google provider")
		}
	default:
		return fmt.Errorf("unknown calendar.provider %q", c.Calendar.Provider)
	}

	if c.Report.TopN < 1 {
		return fmt.Errorf("report.top_n must be at least 1")
	}
	if c.Report.MinDuration < 0 {
		return fmt.Errorf("report.min_duration must not be negative")
	}
	if _, err := aggregate.ParseKeys(c.Report.GroupBy); err != nil {
		return fmt.Errorf("report.group_by: %w", err)
	}
	if c.Report.Bucket != "" {
		if _, err := breakdown.ParseSize(c.Report.Bucket); err != nil {
			return fmt.Errorf("report.bucket: %w", err)
		}
	}
	if _, err := c.Report.Location(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}

// Location returns the report timezone, the local zone when unset
func (r ReportConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("report.timezone: %w", err)
	}
	return loc, nil
}
