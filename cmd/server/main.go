package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agrihealth-server/internal/config"
	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/logging"
)

// app carries what every sub-command needs once configuration is loaded
type app struct {
	configFile string
	manager    domain.ConfigManager
	cfg        *domain.Config
	logger     *logrus.Logger
}

func main() {
	if err := rootCommand(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "agrihealth-server",
		Short:         "AgriHealth plant and livestock diagnosis backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to config file (default: search ., ./config, /etc/agrihealth)")

	rootCmd.AddCommand(
		serveCommand(a),
		migrateCommand(a),
		seedCommand(a),
		reviewsCommand(a),
	)

	return rootCmd
}

// initialize loads and validates configuration and builds the logger
func (a *app) initialize() error {
	var (
		manager *config.Manager
		err     error
	)
	if a.configFile != "" {
		manager, err = config.NewManagerFromFile(a.configFile)
	} else {
		manager, err = config.NewManager()
	}
	if err != nil {
		return err
	}

	if err := manager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	a.manager = manager
	a.cfg = manager.GetConfig()

	logger, err := logging.New(a.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	a.logger = logger

	return nil
}
