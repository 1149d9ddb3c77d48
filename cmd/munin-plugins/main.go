package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HWL-RobAt/contrib/internal/config"
)

var (
	// Version info (set by build)
	Version = "dev"

	// Global flags
	cfgFile string
	verbose bool

	cfg config.Config
	log zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "munin-plugins",
	Short: "munin node plugins",
	Long: `munin-plugins bundles a set of munin node plugins in one binary.

Each plugin is a subcommand taking the usual munin argument
(autoconf, config, or nothing for a fetch). Symlinking the binary
under a plugin's name dispatches to that plugin, so the standard
/etc/munin/plugins layout works unchanged.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is /etc/munin/munin-plugins.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newRaidCmd(),
		newChronyCmd(),
		newLoadCmd(),
		newMemoryCmd(),
		newUptimeCmd(),
		newVersionCmd(),
	)
}

func initConfig() {
	if cfgFile == "" {
		viper.SetEnvPrefix("MUNIN_PLUGINS")
		viper.AutomaticEnv()
		cfgFile = viper.GetString("config")
		if cfgFile == "" {
			cfgFile = "/etc/munin/munin-plugins.yaml"
		}
	}
	cfg = config.Load(cfgFile)
	if verbose {
		cfg.LogLevel = zerolog.DebugLevel
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.LogLevel).With().Timestamp().Logger()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("munin-plugins %s\n", Version)
		},
	}
}

var pluginNames = map[string]bool{
	"raid":   true,
	"chrony": true,
	"load":   true,
	"memory": true,
	"uptime": true,
}

func main() {
	// Multicall dispatch: a symlink named after a plugin behaves like
	// that plugin's standalone executable.
	if name := filepath.Base(os.Args[0]); pluginNames[name] {
		rootCmd.SetArgs(append([]string{name}, os.Args[1:]...))
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
