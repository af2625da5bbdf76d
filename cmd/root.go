package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zako-ac/issuetracker/internal/admin"
	"github.com/zako-ac/issuetracker/internal/config"
	"github.com/zako-ac/issuetracker/internal/output"
	"github.com/zako-ac/issuetracker/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	appConfig *config.Config
	dataStore store.Store

	cfgFile string
	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "zit",
	Short: "zako issue tracker - record and triage issues from the chat bot",
	Long: `zit drives the zako issue tracker backend.
It records issues submitted through the chat bot, lets admins move them
through their lifecycle, and serves the same store over HTTP and MCP.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	closeStore()
	if err != nil {
		// ui is unset when flag parsing fails before initialization.
		if ui == nil {
			ui = output.New()
		}
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/zit/config.yaml)")
}

func initConfig() {
	opts := config.LoadOptions{ConfigFile: cfgFile}
	if cfgFile == "" {
		dir, err := configDirFunc()
		if err != nil {
			output.New().Error("cannot find home directory: %v", err)
			os.Exit(1)
		}
		opts.ConfigDir = dir
	}

	cfg, err := config.Load(opts)
	if err != nil {
		output.New().Error("%v", err)
		os.Exit(1)
	}
	appConfig = cfg

	// Settings outside the tracker's own keys (LLM, server) go through the
	// global viper instance.
	viper.SetEnvPrefix("ZIT")
	viper.AutomaticEnv()
	_ = viper.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	viper.SetDefault("anthropic.model", defaultLLMModel)
	viper.SetDefault("port", defaultPort)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The store is opened lazily so config/version commands run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := appConfig.DatabasePath()
	ui.VerboseLog("Opening database %s", dbPath)

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("prepare database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

func closeStore() {
	if dataStore != nil {
		_ = dataStore.Close()
		dataStore = nil
	}
}

// getAdmins builds the allow-list from the loaded configuration.
func getAdmins() *admin.Checker {
	return admin.New(appConfig.AdminIDs())
}
