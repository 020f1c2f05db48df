// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/stmt-import/internal/config"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/logging"

	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

var (
	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "stmt-import",
		Short: "Import card and bank statement exports into a categorized transaction store.",
		Long: `stmt-import reads statement CSV exports from Rakuten, Epos and docomo cards
and Mizuho bank accounts, normalizes them, resolves payees and categories from
the owner's payee mapping table, and saves the result.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[AnnotationNoContainer] == "true" || appContainer != nil {
				return nil
			}
			c, err := buildContainer(cmd)
			if err != nil {
				return err
			}
			appContainer = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				logging.GetLogger().WithError(err).Warn("Failed to close resources")
			}
			appContainer = nil
		},
	}

	// Flags holds the parsed persistent flags.
	Flags = GlobalFlags{}

	appContainer *container.Container
)

// AnnotationNoContainer marks commands that run without configuration.
const AnnotationNoContainer = "no-container"

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&Flags.ConfigFile, "config", "c", "", "Config file (default searches $HOME/.stmt-import, .stmt-import and .)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&Flags.LogFormat, "log-format", "", "Log format override (text or json)")
}

func buildContainer(cmd *cobra.Command) (*container.Container, error) {
	config.LoadEnv()

	cfg, err := config.InitializeConfigFromFile(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if Flags.LogLevel != "" {
		cfg.Log.Level = Flags.LogLevel
	}
	if Flags.LogFormat != "" {
		cfg.Log.Format = Flags.LogFormat
	}

	c, err := container.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return c, nil
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// SetContainer installs c as the container for the next command. Tests use it
// to run commands against in-memory dependencies.
func SetContainer(c *container.Container) {
	appContainer = c
}

// GetLogger returns the container's logger, or the process logger when no
// container is set.
func GetLogger() logging.Logger {
	if appContainer != nil {
		return appContainer.GetLogger()
	}
	return logging.GetLogger()
}
