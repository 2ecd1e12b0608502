package model_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unity-showcase/devlauncher/internal/model"
)

func TestLoadConfig(t *testing.T) {
	yml := `
version: 0
log: discard
console: pipe
timing:
  crash_window: 250ms
services:
  - name: Gateway API
    port: 8000
    command: ["$PYTHON", "gateway_api.py"]
    dir: ai-backend
    url: http://localhost:8000
    env:
      PYTHONUNBUFFERED: "1"
  - name: Frontend (Vite)
    port: 5173
    command: [npm, run, dev]
    dir: vite-project
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, model.LogDiscard, cfg.Log)
	require.Equal(t, model.ConsolePipe, cfg.Console)
	require.False(t, cfg.Verbose)
	require.Nil(t, cfg.Metrics)
	require.False(t, cfg.MetricsEnabled())

	require.Len(t, cfg.Services, 2)
	gw := cfg.Services[0]
	require.Equal(t, "Gateway API", gw.Name)
	require.Equal(t, 8000, gw.Port)
	require.Equal(t, []string{"$PYTHON", "gateway_api.py"}, gw.Command)
	require.Equal(t, "ai-backend", gw.Dir)
	require.Equal(t, "http://localhost:8000", gw.URL)
	require.Equal(t, map[string]string{"PYTHONUNBUFFERED": "1"}, gw.Env)
	require.Empty(t, cfg.Services[1].URL)

	d, err := cfg.Timing.Durations()
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, d.CrashWindow)
	require.Equal(t, time.Second, d.LaunchDelay)
	require.Equal(t, 2*time.Second, d.GracePeriod)
	require.Equal(t, time.Second, d.PollInterval)
}

func TestLoadConfig_Defaults(t *testing.T) {
	yml := `
services:
  - name: echo
    port: 0
    command: [echo]
    dir: .
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Version)
	require.Equal(t, model.LogStderr, cfg.Log)
	require.Equal(t, model.ConsoleAuto, cfg.Console)
	require.Equal(t, model.Timing{
		CrashWindow:  "500ms",
		LaunchDelay:  "1s",
		GracePeriod:  "2s",
		PollInterval: "1s",
	}, cfg.Timing)
}

func TestLoadConfig_Fail(t *testing.T) {
	testCases := []struct {
		scenario string
		yml      string
		path     string
	}{
		{
			scenario: "no services",
			yml:      "services: []\n",
			path:     "services",
		},
		{
			scenario: "empty command",
			yml: `
services:
  - name: x
    port: 1
    command: []
    dir: .
`,
			path: "services.0.command",
		},
		{
			scenario: "bad console",
			yml: `
console: window
services:
  - {name: x, port: 1, command: [x], dir: .}
`,
			path: "console",
		},
		{
			scenario: "bad duration",
			yml: `
timing:
  poll_interval: soon
services:
  - {name: x, port: 1, command: [x], dir: .}
`,
			path: "timing.poll_interval",
		},
		{
			scenario: "port out of range",
			yml: `
services:
  - {name: x, port: 70000, command: [x], dir: .}
`,
			path: "services.0.port",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			_, err := model.LoadConfig(strings.NewReader(tc.yml))
			require.Error(t, err)
			details := model.CueErrDetails(err)
			require.NotEmpty(t, details)
			var found bool
			for _, d := range details {
				if strings.HasPrefix(d.Path, tc.path) {
					found = true
				}
			}
			require.Truef(t, found, "no detail for %s in %+v", tc.path, details)
		})
	}
}

func TestCueErrDetails_Console(t *testing.T) {
	yml := `
console: window
services:
  - {name: x, port: 1, command: [x], dir: .}
`
	_, err := model.LoadConfig(strings.NewReader(yml))
	require.Error(t, err)
	var consoleDetail *model.CueErrorDetail
	for _, d := range model.CueErrDetails(err) {
		if d.Path == "console" {
			consoleDetail = &d
			break
		}
	}
	require.NotNil(t, consoleDetail)
	require.Contains(t, consoleDetail.Message, "possible values")
	require.Contains(t, consoleDetail.Message, "pipe")
}

func TestCueErrDetails_Command(t *testing.T) {
	testCases := []struct {
		scenario string
		command  string
	}{
		{"empty list", "[]"},
		{"empty executable", `[""]`},
		{"empty argument", `[npm, ""]`},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			yml := "services:\n  - {name: x, port: 1, command: " + tc.command + ", dir: .}\n"
			_, err := model.LoadConfig(strings.NewReader(yml))
			require.Error(t, err)

			var detail *model.CueErrorDetail
			for _, d := range model.CueErrDetails(err) {
				if strings.HasPrefix(d.Path, "services.0.command") {
					detail = &d
					break
				}
			}
			require.NotNilf(t, detail, "no command detail in %+v", model.CueErrDetails(err))
			require.NotEqual(t, "validation_error", detail.Code)
			require.Contains(t, detail.Message, "services[0]")
		})
	}
}

func TestTimingDurations(t *testing.T) {
	d, err := model.Timing{}.Durations()
	require.NoError(t, err)
	require.Equal(t, model.DefaultDurations(), d)

	_, err = model.Timing{GracePeriod: "0s"}.Durations()
	require.EqualError(t, err, "timing.grace_period must be positive, got 0s")

	_, err = model.Timing{LaunchDelay: "later"}.Durations()
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing timing.launch_delay")
}

func TestDefaultConfig(t *testing.T) {
	cfg := model.DefaultConfig(t.Context())
	require.Len(t, cfg.Services, 4)
	require.NotEmpty(t, cfg.Root)

	var urls []string
	for _, svc := range cfg.Services {
		urls = append(urls, svc.URL)
	}
	require.Equal(t, []string{
		"http://localhost:8000",
		"http://localhost:8001",
		"http://localhost:8002",
		"http://localhost:5173",
	}, urls)
	require.Equal(t, "$PYTHON", cfg.Services[0].Command[0])
	require.Equal(t, "npm", cfg.Services[3].Command[0])
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "devlauncher.yaml")
	cfg := model.DefaultConfig(t.Context())

	err := model.WriteConfig(path, cfg)
	require.NoError(t, err)

	// the stored default must pass the schema
	loaded, err := model.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Dir(path), loaded.Root)
	require.Equal(t, cfg.Services, loaded.Services)
	require.Equal(t, cfg.Timing, loaded.Timing)

	err = model.WriteConfig(path, cfg)
	require.ErrorIs(t, err, model.ErrConfigExists)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := model.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBytes(t *testing.T) {
	require.Equal(t, "512 B", model.Bytes(512).String())
	require.Equal(t, "1.0 KiB", model.Bytes(1024).String())
	require.Equal(t, "12.5 MiB", model.Bytes(12*1024*1024+512*1024).String())
}

func TestMetricsTCPAddr(t *testing.T) {
	t.Setenv("DEVLAUNCHER_TEST_PORT", "9108")
	addr, err := model.Metrics{Addr: "127.0.0.1:${DEVLAUNCHER_TEST_PORT}"}.TCPAddr()
	require.NoError(t, err)
	require.Equal(t, 9108, addr.Port)

	_, err = model.Metrics{}.TCPAddr()
	require.Error(t, err)
}
