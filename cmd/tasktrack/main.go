package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Joseda-hg/tasktrack/internal/config"
	"github.com/Joseda-hg/tasktrack/internal/db"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPathFlag string
	cfgPath        string
	cfg            config.Config
)

var rootCmd = &cobra.Command{
	Use:           "tasktrack",
	Short:         "Personal task tracker with a web dashboard and a terminal client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath(configPathFlag)
		if err != nil {
			return err
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfgPath = path
		cfg = loaded
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tasktrack %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "config file path")
	rootCmd.AddCommand(versionCmd, serveCmd, tuiCmd, userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

// dataPath places a file next to the config file unless configured.
func dataPath(configured, name string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(filepath.Dir(cfgPath), name)
}

func openStore(dbPath string) (*db.Store, func() error, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return db.NewStore(sqlDB), sqlDB.Close, nil
}
