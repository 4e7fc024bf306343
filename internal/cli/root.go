package cli

import (
	"io"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhath/ezgrid/internal/config"
	"github.com/nhath/ezgrid/internal/db"
	"github.com/nhath/ezgrid/internal/logging"
)

// RootCommand is the base CLI command that all subcommands are added to.
var RootCommand = &cobra.Command{
	Use:   path.Base(os.Args[0]),
	Short: "Browse large database tables in the terminal",
	Long: `ezgrid displays database tables of any size as a scrollable grid. Only
the rows around the viewport are fetched; sorting and filtering run in the
database.`,
	SilenceUsage: true,
}

type globalParams struct {
	configPath string
	logLevel   string
	logFile    string
}

var globals globalParams

func init() {
	RootCommand.PersistentFlags().StringVar(&globals.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/ezgrid/config.toml)")
	RootCommand.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	RootCommand.PersistentFlags().StringVar(&globals.logFile, "log-file", "", "override the configured log file")
}

// loadConfig reads the config named by --config, or the XDG default
func loadConfig(p globalParams) (*config.Config, error) {
	if p.configPath != "" {
		return config.LoadFile(p.configPath)
	}
	return config.Load()
}

// setupLogging builds the logger from the config and flag overrides. The
// SSH tunnel code logs through the same logger.
func setupLogging(cfg *config.Config, p globalParams) (*logrus.Logger, io.Closer, error) {
	lc := cfg.Log.Logging()
	if p.logLevel != "" {
		lc.Level = p.logLevel
	}
	if p.logFile != "" {
		lc.File = p.logFile
	}
	logger, closer, err := logging.New(lc)
	if err != nil {
		return nil, nil, err
	}
	db.Logger = logger
	return logger, closer, nil
}
