package service

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unity-showcase/devlauncher/internal/model"
)

// Command is a ready to spawn service process.
type Command struct {
	Path       string   // resolved executable
	Args       []string // arguments after the executable
	Dir        string
	Env        []string
	NewConsole bool // own visible console, output not captured
}

// Argv expands the service command. Elements starting with $ are expanded,
// $PYTHON to the interpreter and anything else from the environment.
func Argv(svc model.ServiceConfig, python string) []string {
	mapping := func(key string) string {
		if key == model.PythonVar {
			return python
		}
		return os.Getenv(key)
	}
	argv := make([]string, 0, len(svc.Command))
	for _, arg := range svc.Command {
		if strings.HasPrefix(arg, "$") {
			arg = os.Expand(arg, mapping)
		}
		argv = append(argv, arg)
	}
	return argv
}

// WorkDir resolves the service directory against root.
func WorkDir(svc model.ServiceConfig, root string) string {
	if filepath.IsAbs(svc.Dir) || root == "" {
		return filepath.Clean(svc.Dir)
	}
	return filepath.Join(root, svc.Dir)
}

// Preflight resolves svc into a Command, checking the executable is on the
// search path and the working directory exists. Nothing is spawned.
func Preflight(svc model.ServiceConfig, root, python string, lookPath LookPathFunc) (Command, error) {
	argv := Argv(svc, python)
	if len(argv) == 0 || argv[0] == "" {
		return Command{}, &PreflightError{Service: svc.Name, Err: ErrCommandNotFound}
	}
	path, err := lookPath(argv[0])
	if err != nil {
		return Command{}, &PreflightError{Service: svc.Name, Path: argv[0], Err: errors.Join(ErrCommandNotFound, err)}
	}

	dir := WorkDir(svc, root)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Command{}, &PreflightError{Service: svc.Name, Path: dir, Err: ErrDirNotFound}
	}

	return Command{
		Path: path,
		Args: argv[1:],
		Dir:  dir,
		Env:  environ(svc.Env),
	}, nil
}

func environ(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+os.ExpandEnv(extra[k]))
	}
	return env
}
