// Package config resolves the tracker's settings once at startup from the
// environment, an optional .env file, and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultSQLiteFile is used when SQLITE_FILE is not configured.
	DefaultSQLiteFile = "db.sqlite"
	// DefaultPageSize is used when EMBED_PAGE_SIZE is not configured.
	DefaultPageSize = 5
	// DefaultEnvFile is the dotenv file loaded when present.
	DefaultEnvFile = ".env"
)

// Config keys, as they appear in the YAML config file.
const (
	KeyDiscordToken = "discord_token"
	KeySQLiteFile   = "sqlite_file"
	KeyAdminIDs     = "admin_ids"
	KeyPageSize     = "embed_page_size"
)

// ErrInvalidPageSize is returned when EMBED_PAGE_SIZE is set but not an integer.
var ErrInvalidPageSize = errors.New("invalid page size")

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key     string
	EnvVar  string
	Default string
	Secret  bool
}

// Keys lists every setting in display order.
var Keys = []KeyInfo{
	{Key: KeyDiscordToken, EnvVar: "DISCORD_TOKEN", Secret: true},
	{Key: KeySQLiteFile, EnvVar: "SQLITE_FILE", Default: DefaultSQLiteFile},
	{Key: KeyAdminIDs, EnvVar: "ADMIN_IDS"},
	{Key: KeyPageSize, EnvVar: "EMBED_PAGE_SIZE", Default: strconv.Itoa(DefaultPageSize)},
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. It must exist when set.
	ConfigFile string
	// ConfigDir is searched for config.yaml when ConfigFile is empty.
	ConfigDir string
	// EnvFile overrides DefaultEnvFile.
	EnvFile string
	// SkipDotenv disables .env loading entirely.
	SkipDotenv bool
}

// Config is the resolved configuration. It is immutable after Load.
type Config struct {
	token    string
	hasToken bool
	dbPath   string
	hasDB    bool
	adminIDs []string
	pageSize int
	fileUsed string
}

// Load reads every setting once. Environment variables take precedence over
// the config file; variables already present in the process environment are
// never overwritten by the .env file.
func Load(opts LoadOptions) (*Config, error) {
	if !opts.SkipDotenv {
		envFile := opts.EnvFile
		if envFile == "" {
			envFile = DefaultEnvFile
		}
		if err := godotenv.Load(envFile); err != nil {
			if opts.EnvFile != "" || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	for _, k := range Keys {
		if err := v.BindEnv(k.Key, k.EnvVar); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k.EnvVar, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else if opts.ConfigDir != "" {
		v.AddConfigPath(opts.ConfigDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if opts.ConfigFile != "" || opts.ConfigDir != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if opts.ConfigFile != "" || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{fileUsed: v.ConfigFileUsed()}

	if v.IsSet(KeyDiscordToken) {
		cfg.token = v.GetString(KeyDiscordToken)
		cfg.hasToken = cfg.token != ""
	}
	if v.IsSet(KeySQLiteFile) {
		cfg.dbPath = v.GetString(KeySQLiteFile)
		cfg.hasDB = cfg.dbPath != ""
	}

	cfg.adminIDs = splitAdminIDs(v.Get(KeyAdminIDs))

	var raw string
	set := v.IsSet(KeyPageSize)
	if set {
		raw = fmt.Sprint(v.Get(KeyPageSize))
	}
	size, err := ParsePageSize(raw, set)
	if err != nil {
		return nil, err
	}
	cfg.pageSize = size

	return cfg, nil
}

// ParsePageSize applies the EMBED_PAGE_SIZE rule: unset yields
// DefaultPageSize, a set value must parse as an integer.
func ParsePageSize(raw string, set bool) (int, error) {
	if !set {
		return DefaultPageSize, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidPageSize, raw, err)
	}
	return n, nil
}

// splitAdminIDs accepts a comma-separated string (env) or a YAML list.
func splitAdminIDs(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return []string{}
	case string:
		parts = strings.Split(val, ",")
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	case []string:
		parts = val
	default:
		parts = strings.Split(fmt.Sprint(val), ",")
	}

	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// Token returns the bot token and whether it is configured.
func (c *Config) Token() (string, bool) { return c.token, c.hasToken }

// SQLitePath returns SQLITE_FILE and whether it is configured.
func (c *Config) SQLitePath() (string, bool) { return c.dbPath, c.hasDB }

// DatabasePath returns the configured SQLite path or DefaultSQLiteFile.
func (c *Config) DatabasePath() string {
	if c.hasDB {
		return c.dbPath
	}
	return DefaultSQLiteFile
}

// AdminIDs returns a copy of the admin identity list. Never nil.
func (c *Config) AdminIDs() []string {
	out := make([]string, len(c.adminIDs))
	copy(out, c.adminIDs)
	return out
}

// PageSize returns the display page size.
func (c *Config) PageSize() int { return c.pageSize }

// FileUsed returns the config file that was read, or "" if none.
func (c *Config) FileUsed() string { return c.fileUsed }
