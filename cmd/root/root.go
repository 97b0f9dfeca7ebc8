// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"fjacquet/bank-ingest/internal/config"
	"fjacquet/bank-ingest/internal/container"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/validation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// UserEnvVar supplies --user when the flag is not given.
const UserEnvVar = "BANK_INGEST_USER"

var (
	// Log is the shared logger for commands. Until the configuration is
	// loaded it writes through the global logrus logger.
	Log = logging.NewLogrusAdapterFromLogger(logrus.StandardLogger())

	// AppConfig is the configuration loaded before any subcommand runs.
	AppConfig *config.Config

	// AppContainer is built lazily by GetContainer.
	AppContainer *container.Container

	// ConfigFile is the --config flag.
	ConfigFile string

	// UserID is the --user flag.
	UserID string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "bank-ingest",
		Short: "Ingest bank statement exports, deduplicate and categorize transactions.",
		Long: `bank-ingest imports Revolut and OTP Bank CSV exports into a local
database, removes duplicate transactions across imports and assigns
categories with a priority-ordered rule set.`,
		SilenceUsage:      true,
		PersistentPreRunE: initialize,
		PersistentPostRun: shutdown,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "config file (default searches $HOME/.bank-ingest, .bank-ingest and .)")
	Cmd.PersistentFlags().StringVarP(&UserID, "user", "u", config.GetEnv(UserEnvVar, ""), "user the command acts for (env "+UserEnvVar+")")
}

func initialize(cmd *cobra.Command, args []string) error {
	cfg, err := config.InitializeConfig(ConfigFile)
	if err != nil {
		return err
	}
	AppConfig = cfg
	Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	Log.Debug("Configuration loaded", logging.F(logging.FieldOperation, cmd.Name()))
	return nil
}

func shutdown(cmd *cobra.Command, args []string) {
	if AppContainer == nil {
		return
	}
	if err := AppContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close resources")
	}
	AppContainer = nil
}

// GetContainer returns the application container, building it on first use.
// opts only apply to that first build.
func GetContainer(ctx context.Context, opts ...container.Option) (*container.Container, error) {
	if AppContainer != nil {
		return AppContainer, nil
	}
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	opts = append([]container.Option{container.WithLogger(Log)}, opts...)
	c, err := container.NewContainer(ctx, AppConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	AppContainer = c
	return c, nil
}

// RequireUser returns the validated --user value.
func RequireUser() (string, error) {
	if UserID == "" {
		return "", fmt.Errorf("--user is required (or set %s)", UserEnvVar)
	}
	if err := validation.ValidateUserID(UserID); err != nil {
		return "", err
	}
	return UserID, nil
}
