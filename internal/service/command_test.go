package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unity-showcase/devlauncher/internal/model"
	"github.com/unity-showcase/devlauncher/internal/service"
)

func TestArgv(t *testing.T) {
	t.Setenv("DEVLAUNCHER_TEST_SCRIPT", "serve.py")

	svc := model.ServiceConfig{
		Name:    "Gateway API",
		Command: []string{"$PYTHON", "${DEVLAUNCHER_TEST_SCRIPT}", "--port=$PORT", "${PYTHON}"},
	}
	got := service.Argv(svc, "/opt/conda/bin/python")
	require.Equal(t, []string{
		"/opt/conda/bin/python",
		"serve.py",
		"--port=$PORT",
		"/opt/conda/bin/python",
	}, got)
}

func TestWorkDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	abs := filepath.Join(root, "elsewhere")

	require.Equal(t, filepath.Join(root, "ai-backend"), service.WorkDir(model.ServiceConfig{Dir: "ai-backend"}, root))
	require.Equal(t, abs, service.WorkDir(model.ServiceConfig{Dir: abs}, "/ignored"))
	require.Equal(t, "vite-project", service.WorkDir(model.ServiceConfig{Dir: "vite-project/"}, ""))
}

func TestPreflight(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "vite-project"), 0o755))

	svc := model.ServiceConfig{
		Name:    "Frontend (Vite)",
		Port:    5173,
		Command: []string{"npm", "run", "dev"},
		Dir:     "vite-project",
		Env:     map[string]string{"BROWSER": "none"},
	}

	t.Run("ok", func(t *testing.T) {
		cmd, err := service.Preflight(svc, root, "python3", lookPathOf("npm"))
		require.NoError(t, err)
		require.Equal(t, filepath.Join("/usr/bin", "npm"), cmd.Path)
		require.Equal(t, []string{"run", "dev"}, cmd.Args)
		require.Equal(t, filepath.Join(root, "vite-project"), cmd.Dir)
		require.Contains(t, cmd.Env, "BROWSER=none")
		require.False(t, cmd.NewConsole)
	})

	t.Run("command not found", func(t *testing.T) {
		_, err := service.Preflight(svc, root, "python3", lookPathOf())
		require.Error(t, err)
		require.ErrorIs(t, err, service.ErrCommandNotFound)
		var pe *service.PreflightError
		require.True(t, errors.As(err, &pe))
		require.Equal(t, "Frontend (Vite)", pe.Service)
		require.Equal(t, "npm", pe.Path)
	})

	t.Run("directory not found", func(t *testing.T) {
		missing := svc
		missing.Dir = "no-such-dir"
		_, err := service.Preflight(missing, root, "python3", lookPathOf("npm"))
		require.ErrorIs(t, err, service.ErrDirNotFound)
		var pe *service.PreflightError
		require.ErrorAs(t, err, &pe)
		require.Equal(t, filepath.Join(root, "no-such-dir"), pe.Path)
	})

	t.Run("dir is a file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "file"), nil, 0o644))
		file := svc
		file.Dir = "file"
		_, err := service.Preflight(file, root, "python3", lookPathOf("npm"))
		require.ErrorIs(t, err, service.ErrDirNotFound)
	})

	t.Run("python expanded before lookup", func(t *testing.T) {
		py := svc
		py.Command = []string{"$PYTHON", "main.py"}
		_, err := service.Preflight(py, root, "python3.12", lookPathOf("python3"))
		var pe *service.PreflightError
		require.ErrorAs(t, err, &pe)
		require.Equal(t, "python3.12", pe.Path)
	})
}
