package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unity-showcase/devlauncher/internal/model"
)

const configName = "devlauncher.yaml"

var (
	userConfigPath = defaultUserConfigPath() // /default/config/path/devlauncher on given OS
	configPath     string                    // actual config file used (if loaded)
	config         model.Config

	closeLog = func() error { return nil }

	v = viper.New()
)

// defaultUserConfigPath is empty when the OS has no user config dir, then
// only ./devlauncher.yaml and the built-in default are used.
func defaultUserConfigPath() string {
	d, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(d, "devlauncher")
}

func main() {
	os.Exit(execute(rootCmd, os.Args[1:]))
}

// execute runs the command tree and returns the process exit code.
func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		slog.Error("devlauncher failed", "err", err)
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	_ = closeLog()
	if err != nil {
		return 1
	}
	return 0
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "devlauncher",
		Short:        "Starts the showcase services locally and watches them",
		SilenceUsage: true,
		// errors are printed by execute
		SilenceErrors:     true,
		PersistentPreRunE: initLauncher,
		RunE:              doRun,
	}

	hint := "Config file to load - default is " + configName + " in current directory"
	if userConfigPath != "" {
		hint += " or in " + userConfigPath
	}
	root.PersistentFlags().String("config", "", hint)
	root.PersistentFlags().Bool("verbose", false, "verbose logging")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	v.SetEnvPrefix("DEVLAUNCHER")
	v.AutomaticEnv()

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "start all services and monitor them until Ctrl+C (default)",
			Args:  cobra.NoArgs,
			RunE:  doRun,
		},
		&cobra.Command{
			Use:   "check",
			Short: "verify commands and working directories without starting anything",
			Args:  cobra.NoArgs,
			RunE:  doCheck,
		},
		&cobra.Command{
			Use:   "list",
			Short: "print configured services with resolved commands",
			Args:  cobra.NoArgs,
			RunE:  doList,
		},
		&cobra.Command{
			Use:   "init [path]",
			Short: "write the built-in configuration to a file",
			Args:  cobra.MaximumNArgs(1),
			RunE:  doInit,
		},
		&cobra.Command{
			Use:   "version",
			Short: "print version information",
			Args:  cobra.NoArgs,
			Run:   doVersion,
		},
	)
	return root
}

func doVersion(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Fprintln(out, "devlauncher: version info not available")
		return
	}

	if configPath != "" {
		fmt.Fprintf(out, "config:      %s\n", configPath)
	}
	fmt.Fprintf(out, "devlauncher: %s\n", info.Main.Version)
	fmt.Fprintf(out, "go:          %s\n", info.GoVersion)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			fmt.Fprintf(out, "commit:      %s\n", s.Value)
		case "vcs.time":
			fmt.Fprintf(out, "date:        %s\n", s.Value)
		case "vcs.modified":
			fmt.Fprintf(out, "dirty:       %s\n", s.Value)
		}
	}
}
