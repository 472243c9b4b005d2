// Package main is the EduForge terminal client: generate course outlines,
// lesson plans, presentations and assessments against an EduForge backend
// and browse the saved conversations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/csheth/eduforge/internal/api"
	"github.com/csheth/eduforge/internal/config"
	"github.com/csheth/eduforge/internal/logger"
	"github.com/csheth/eduforge/internal/prefs"
	"github.com/csheth/eduforge/internal/reference"
	"github.com/csheth/eduforge/internal/tui"
)

var version = "0.1.0"

var (
	v          = viper.New()
	configPath string
	startPath  string
)

var rootCmd = &cobra.Command{
	Use:           "eduforge",
	Short:         "Terminal client for the EduForge course material generators",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the client version and check the server",
	RunE:  runVersion,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/eduforge/config.yaml)")
	flags.String("base-url", "", "EduForge API base URL")
	flags.String("token", "", "API token used to sign in")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-file", "", "write logs to this file")
	flags.String("export-dir", "", "directory for exported DOCX files")
	flags.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	rootCmd.Flags().StringVar(&startPath, "open", "", "route to open at start, e.g. /assessment-generator")

	bindings := map[string]string{
		"api.base_url": "base-url",
		"api.token":    "token",
		"log.level":    "log-level",
		"log.file":     "log-file",
		"export.dir":   "export-dir",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "bind %s: %v\n", flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) (*api.Client, error) {
	return api.New(api.Config{BaseURL: cfg.API.BaseURL, Token: cfg.API.Token})
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	loader, err := reference.NewLoader(reference.Options{
		MaxChars: cfg.Reference.MaxChars,
		CacheDir: cfg.Reference.CacheDir,
	})
	if err != nil {
		logger.Warn("reference material disabled", "err", err)
		loader = nil
	}
	preferences, err := prefs.Load(cfg.UI.PreferencesPath)
	if err != nil {
		logger.Warn("preferences unreadable, using defaults", "path", cfg.UI.PreferencesPath, "err", err)
		preferences = prefs.Defaults()
	}
	exportDir, err := filepath.Abs(cfg.Export.Dir)
	if err != nil {
		return fmt.Errorf("resolve export dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting eduforge", "version", version, "api", client.BaseURL())
	model := tui.New(tui.Config{
		Context:           ctx,
		Backend:           client,
		Token:             cfg.API.Token,
		InitialPath:       startPath,
		ConversationLimit: cfg.Conversations.Limit,
		Timeout:           cfg.API.Timeout,
		GenerationTimeout: cfg.API.GenerationTimeout,
		ExportDir:         exportDir,
		PreferencesPath:   cfg.UI.PreferencesPath,
		Preferences:       preferences,
		Reference:         loader,
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	noAltScreen, _ := cmd.Flags().GetBool("no-alt-screen")
	if cfg.UI.AltScreen && !noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func runVersion(cmd *cobra.Command, _ []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "eduforge %s\n", version)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.API.Timeout)
	defer cancel()
	server, err := client.CheckCompatible(ctx)
	if err != nil {
		return fmt.Errorf("server %s: %w", client.BaseURL(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "server %s (%s)\n", server, client.BaseURL())
	return nil
}
