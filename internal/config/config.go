package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

var daysOfWeek = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

type Config struct {
	App             AppConfig                 `mapstructure:"app"`
	Notify          NotifyConfig              `mapstructure:"notify"`
	DayOfWeek       string                    `mapstructure:"day_of_week"`
	DayOfMonth      int                       `mapstructure:"day_of_month"`
	DataDir         string                    `mapstructure:"data_dir"`
	Timestamps      bool                      `mapstructure:"timestamps"`
	CompressionType string                    `mapstructure:"compression_type"`
	MySQLDumpExe    string                    `mapstructure:"mysql_dump_exe"`
	PgDumpExe       string                    `mapstructure:"pg_dump_exe"`
	Bzip2Exe        string                    `mapstructure:"bzip2_exe"`
	GzipExe         string                    `mapstructure:"gzip_exe"`
	P7zipExe        string                    `mapstructure:"p7zip_exe"`
	DBServers       map[string]DBServerConfig `mapstructure:"db_servers"`
}

type AppConfig struct {
	Name          string `mapstructure:"name"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMode       string `mapstructure:"log_mode"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
	LogCompress   bool   `mapstructure:"log_compress"`
	Schedule      string `mapstructure:"schedule"`
	Workers       int    `mapstructure:"workers"`
	FailureMode   string `mapstructure:"failure_mode"`
	Preflight     bool   `mapstructure:"preflight"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BotToken      string `mapstructure:"bot_token"`
	ChatID        string `mapstructure:"chat_id"`
	OnlyOnFailure bool   `mapstructure:"only_on_failure"`
}

type DBServerConfig struct {
	User      string           `mapstructure:"user"`
	Password  string           `mapstructure:"password"`
	Hostname  string           `mapstructure:"hostname"`
	Port      int              `mapstructure:"port"`
	DBType    string           `mapstructure:"db_type"`
	Databases []DatabaseConfig `mapstructure:"databases"`
}

type DatabaseConfig struct {
	DBName    string `mapstructure:"db_name"`
	Frequency string `mapstructure:"frequency"`
	Compress  *bool  `mapstructure:"compress"`
	Verify    *bool  `mapstructure:"verify"`
}

// NamedServer pairs a db_servers key with its settings.
type NamedServer struct {
	Key    string
	Server DBServerConfig
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		v.SetConfigType("json")
	case ".toml":
		v.SetConfigType("toml")
	default:
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("sqlbackup")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyServerDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sqlbackup")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_mode", "append")
	v.SetDefault("app.log_max_size_mb", 0)
	v.SetDefault("app.log_max_backups", 3)
	v.SetDefault("app.log_max_age_days", 28)
	v.SetDefault("app.log_compress", true)
	v.SetDefault("app.schedule", "0 0 2 * * *")
	v.SetDefault("app.workers", 1)
	v.SetDefault("app.failure_mode", "stderr")

	v.SetDefault("day_of_week", "sunday")
	v.SetDefault("day_of_month", 1)
	v.SetDefault("data_dir", ".")
	v.SetDefault("timestamps", true)
	v.SetDefault("compression_type", "7z")
	v.SetDefault("mysql_dump_exe", "/usr/bin/mysqldump")
	v.SetDefault("pg_dump_exe", "/usr/bin/pg_dump")
	v.SetDefault("bzip2_exe", "/usr/bin/bzip2")
	v.SetDefault("gzip_exe", "/usr/bin/gzip")
	v.SetDefault("p7zip_exe", "/usr/bin/7z")
}

// applyServerDefaults fills per-server and per-database defaults viper
// cannot express for map and list entries.
func (c *Config) applyServerDefaults() {
	for key, srv := range c.DBServers {
		if srv.Hostname == "" {
			srv.Hostname = "localhost"
		}
		for i := range srv.Databases {
			db := &srv.Databases[i]
			if db.Frequency == "" {
				db.Frequency = "daily"
			}
			if db.Compress == nil {
				db.Compress = boolPtr(true)
			}
			if db.Verify == nil {
				db.Verify = boolPtr(true)
			}
		}
		c.DBServers[key] = srv
	}
}

// Validate checks structural settings. Database frequencies are left to the
// backup run, which skips a database with an unknown frequency.
func (c *Config) Validate() error {
	if !isDayOfWeek(c.DayOfWeek) {
		return fmt.Errorf("day_of_week: %q is not a valid day of week", c.DayOfWeek)
	}
	if c.DayOfMonth < 1 || c.DayOfMonth > 31 {
		return fmt.Errorf("day_of_month: %d is out of range 1-31", c.DayOfMonth)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.CompressionType {
	case "bz2", "gz", "7z":
	default:
		return fmt.Errorf("compression_type: unknown value %q", c.CompressionType)
	}

	switch c.App.LogMode {
	case "append", "overwrite":
	default:
		return fmt.Errorf("app.log_mode: unknown value %q", c.App.LogMode)
	}

	if c.App.LogMaxSizeMB < 0 || c.App.LogMaxBackups < 0 || c.App.LogMaxAgeDays < 0 {
		return fmt.Errorf("app.log_max_*: rotation limits cannot be negative")
	}

	if c.App.Workers < 1 {
		return fmt.Errorf("app.workers must be at least 1")
	}

	if len(c.DBServers) == 0 {
		return fmt.Errorf("at least one db_servers entry is required")
	}

	for key, srv := range c.DBServers {
		if srv.User == "" {
			return fmt.Errorf("db_servers.%s: user is required", key)
		}
		if srv.Hostname == "" {
			return fmt.Errorf("db_servers.%s: hostname is required", key)
		}
		if srv.Port < 1 || srv.Port > 65535 {
			return fmt.Errorf("db_servers.%s: port %d is out of range", key, srv.Port)
		}
		if srv.DBType != "mysql" && srv.DBType != "postgresql" {
			return fmt.Errorf("db_servers.%s: db_type must be mysql or postgresql, got %q", key, srv.DBType)
		}
		for i, db := range srv.Databases {
			if db.DBName == "" {
				return fmt.Errorf("db_servers.%s.databases[%d]: db_name is required", key, i)
			}
		}
	}

	if t := c.Notify.Telegram; t.Enabled && (t.BotToken == "" || t.ChatID == "") {
		return fmt.Errorf("notify.telegram: bot_token and chat_id are required when enabled")
	}

	return nil
}

// Servers returns the configured servers ordered by key.
func (c *Config) Servers() []NamedServer {
	keys := make([]string, 0, len(c.DBServers))
	for key := range c.DBServers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	servers := make([]NamedServer, 0, len(keys))
	for _, key := range keys {
		servers = append(servers, NamedServer{Key: key, Server: c.DBServers[key]})
	}
	return servers
}

func isDayOfWeek(s string) bool {
	for _, d := range daysOfWeek {
		if d == s {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool {
	return &b
}
