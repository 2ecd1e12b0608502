package service

import (
	"os"
	"path/filepath"
)

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// ResolveInterpreter picks the python used for $PYTHON in service commands.
//
// Order: explicit override, the active conda environment's python,
// python3 on PATH, python.
func ResolveInterpreter(override string, getenv func(string) string, lookPath LookPathFunc) string {
	if override != "" {
		return override
	}
	if getenv("CONDA_DEFAULT_ENV") != "" {
		if prefix := getenv("CONDA_PREFIX"); prefix != "" {
			candidate := filepath.Join(prefix, condaPython)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	if _, err := lookPath("python3"); err == nil {
		return "python3"
	}
	return "python"
}
