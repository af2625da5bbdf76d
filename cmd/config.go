package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zako-ac/issuetracker/internal/config"
	"github.com/zako-ac/issuetracker/internal/output"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "zit"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage zit configuration.

Settings come from the environment (DISCORD_TOKEN, SQLITE_FILE, ADMIN_IDS,
EMBED_PAGE_SIZE), a .env file in the working directory, or config.yaml.
Running bare 'zit config' is the same as 'zit config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# zit configuration
# See: zit config show (for effective values and sources)
# Environment variables override every value in this file.

# Discord bot token (env: DISCORD_TOKEN)
# discord_token: ""

# SQLite database file (env: SQLITE_FILE, default: {{ .DefaultDB }})
sqlite_file: {{ .SQLiteFile }}

# Chat identities allowed to change issue status (env: ADMIN_IDS, comma-separated)
admin_ids:{{ range .AdminIDs }}
  - {{ . }}{{ else }} []{{ end }}

# Issues per page in listings (env: EMBED_PAGE_SIZE, default: {{ .DefaultPageSize }})
embed_page_size: {{ .PageSize }}
`

// configTemplateData holds YAML-encoded scalars, ready to paste into the template.
type configTemplateData struct {
	SQLiteFile      string
	DefaultDB       string
	AdminIDs        []string
	PageSize        int
	DefaultPageSize int
}

func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// yamlScalar encodes s as a double-quoted, single-line YAML scalar.
func yamlScalar(s string) (string, error) {
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
	b, err := yaml.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", s, err)
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Seed the template from the currently effective values.
	data := configTemplateData{
		DefaultDB:       config.DefaultSQLiteFile,
		PageSize:        appConfig.PageSize(),
		DefaultPageSize: config.DefaultPageSize,
	}
	if data.SQLiteFile, err = yamlScalar(appConfig.DatabasePath()); err != nil {
		return err
	}
	for _, id := range appConfig.AdminIDs() {
		quoted, err := yamlScalar(id)
		if err != nil {
			return err
		}
		data.AdminIDs = append(data.AdminIDs, quoted)
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may later hold the bot token.
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

func configShowRun() error {
	cfgPath := appConfig.FileUsed()
	if cfgPath != "" {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	fileValues := readConfigFileValues(cfgPath)

	for _, k := range config.Keys {
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-18s %v  %s\n", k.Key, configDisplayValue(k), source)
	}

	return nil
}

// configDisplayValue renders the effective value of a key, masking secrets.
func configDisplayValue(k config.KeyInfo) string {
	switch k.Key {
	case config.KeyDiscordToken:
		token, ok := appConfig.Token()
		if !ok {
			return "(unset)"
		}
		return output.Mask(token)
	case config.KeySQLiteFile:
		return appConfig.DatabasePath()
	case config.KeyAdminIDs:
		ids := appConfig.AdminIDs()
		if len(ids) == 0 {
			return "(none)"
		}
		return strings.Join(ids, ",")
	case config.KeyPageSize:
		return fmt.Sprint(appConfig.PageSize())
	default:
		return k.Default
	}
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)
	if path == "" {
		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from. Empty
// environment variables count as unset.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}
