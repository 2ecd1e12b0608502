package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unity-showcase/devlauncher/internal/service"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func lookPathOf(found ...string) service.LookPathFunc {
	return func(file string) (string, error) {
		for _, f := range found {
			if f == file {
				return filepath.Join("/usr/bin", file), nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

// condaEnv creates a fake conda prefix holding a python executable.
func condaEnv(t *testing.T) (string, string) {
	t.Helper()
	prefix := t.TempDir()
	python := filepath.Join(prefix, "bin", "python")
	if runtime.GOOS == "windows" {
		python = filepath.Join(prefix, "python.exe")
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(python), 0o755))
	require.NoError(t, os.WriteFile(python, nil, 0o755))
	return prefix, python
}

func TestResolveInterpreter(t *testing.T) {
	t.Parallel()
	prefix, condaPython := condaEnv(t)

	var testCases = []struct {
		scenario string
		override string
		env      map[string]string
		found    []string
		then     string
	}{
		{
			scenario: "override wins",
			override: "/opt/py/bin/python3.12",
			env:      map[string]string{"CONDA_DEFAULT_ENV": "showcase", "CONDA_PREFIX": prefix},
			found:    []string{"python3"},
			then:     "/opt/py/bin/python3.12",
		},
		{
			scenario: "active conda env",
			env:      map[string]string{"CONDA_DEFAULT_ENV": "showcase", "CONDA_PREFIX": prefix},
			found:    []string{"python3"},
			then:     condaPython,
		},
		{
			scenario: "conda prefix without python",
			env:      map[string]string{"CONDA_DEFAULT_ENV": "showcase", "CONDA_PREFIX": t.TempDir()},
			found:    []string{"python3"},
			then:     "python3",
		},
		{
			scenario: "prefix without active env",
			env:      map[string]string{"CONDA_PREFIX": prefix},
			found:    []string{"python3"},
			then:     "python3",
		},
		{
			scenario: "python fallback",
			env:      map[string]string{},
			then:     "python",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			got := service.ResolveInterpreter(tc.override, env(tc.env), lookPathOf(tc.found...))
			require.Equal(t, tc.then, got)
		})
	}
}
