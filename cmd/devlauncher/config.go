package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unity-showcase/devlauncher/internal/log"
	"github.com/unity-showcase/devlauncher/internal/model"
)

// initLauncher finds and parses the configuration and sets up logging.
//
// Lookup order: --config or DEVLAUNCHER_CONFIG, ./devlauncher.yaml,
// devlauncher.yaml in the user config dir, built-in default.
func initLauncher(cmd *cobra.Command, _ []string) error {
	configPath = lookupConfig()

	if configPath == "" {
		config = model.DefaultConfig(cmd.Context())
	} else {
		cfg, err := model.LoadFile(configPath)
		var pathErr *fs.PathError
		if err != nil && !errors.As(err, &pathErr) {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid configuration", d.Attr("detail"))
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", d)
			}
		}
		if err != nil {
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
		config = *cfg
	}

	// --verbose has a precedence over config file
	if v.GetBool("verbose") {
		config.Verbose = true
	}

	w, closer, err := log.Open(config.Log)
	if err != nil {
		return err
	}
	closeLog = closer
	slog.SetDefault(log.New(w, config.Verbose))

	slog.Debug("devlauncher init", "configPath", configPath)
	slog.Debug("devlauncher init", "config", config)
	return nil
}

func lookupConfig() string {
	if path := v.GetString("config"); path != "" {
		return path
	}
	candidates := []string{configName}
	if userConfigPath != "" {
		candidates = append(candidates, filepath.Join(userConfigPath, configName))
	}
	for _, path := range candidates {
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return !errors.Is(err, os.ErrNotExist)
	}
	return info.Mode().IsRegular()
}
