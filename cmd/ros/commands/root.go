package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/panyam/ros/config"
	"github.com/panyam/ros/runtime"
)

var (
	configPath string
	logLevel   string
	envFiles   []string
	noColor    bool

	// Loaded in the persistent pre-run, before any command body runs
	activeConfig = &config.Config{}
)

var rootCmd = &cobra.Command{
	Use:   "ros",
	Short: "ROS (Ruby On Spaces) is a small scripting language interpreter",
	Long: `ROS is a small dynamically typed scripting language with functions,
closures, lists, dicts and modules.  The ros tool runs scripts, inspects
their tokens and syntax trees and provides an interactive REPL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a ros.yaml config (default: $ROS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or off (default: $ROS_LOG_LEVEL or config)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Additional .env files to load")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// AddCommand allows adding subcommands from other files.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// setup loads env files and config and installs the CLI logger.  Flags
// beat the environment which beats the config file.
func setup() (err error) {
	if noColor {
		color.NoColor = true
	}
	if len(envFiles) > 0 {
		if err = config.LoadEnvFiles(envFiles...); err != nil {
			return err
		}
	}

	if configPath != "" {
		activeConfig, err = config.Load(configPath)
	} else {
		activeConfig, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	// The runtime read ROS_LOG_LEVEL at init, before any .env file was
	// loaded, so the variable is read again here.
	level := activeConfig.Level(runtime.GetLogLevel())
	if envLevel := os.Getenv(config.EnvLogLevel); envLevel != "" {
		if level, err = runtime.ParseLogLevel(envLevel); err != nil {
			return fmt.Errorf("%s: %w", config.EnvLogLevel, err)
		}
	}
	if logLevel != "" {
		if level, err = runtime.ParseLogLevel(logLevel); err != nil {
			return err
		}
	}
	installLogger(os.Stderr, level)
	return nil
}

func installLogger(w io.Writer, level runtime.LogLevel) {
	lvar := &slog.LevelVar{}
	handler := NewPrettyHandler(w, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: lvar},
	})
	runtime.SetLogger(runtime.NewLoggerWithHandler(handler, lvar, level))
}

// printError reports a failed command on w.
func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
}
