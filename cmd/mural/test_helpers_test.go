package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mural/internal/config"
	"mural/internal/daemon"
	"mural/internal/display"
	"mural/internal/gallery"
	"mural/internal/ipc"
	"mural/internal/logging"
	"mural/internal/notifications"
	"mural/internal/reconcile"
	"mural/internal/runstore"
	"mural/internal/transform"
	"mural/internal/workflow"
)

type emptySource struct{}

func (emptySource) Shuffle(context.Context) error                        { return nil }
func (emptySource) Listing(context.Context) ([]gallery.Candidate, error) { return nil, nil }

type nopPipeline struct{}

func (nopPipeline) Run(context.Context, []gallery.Candidate) []transform.AcceptedAsset { return nil }

type nopCommitter struct{}

func (nopCommitter) Commit([]transform.AcceptedAsset) []reconcile.CommittedAsset { return nil }

type historyStub struct{}

func (historyStub) Load() (map[string]struct{}, error) { return map[string]struct{}{}, nil }
func (historyStub) Append([]string) error              { return nil }

type monitorStub struct{}

func (monitorStub) Monitors(context.Context) ([]display.Geometry, error) { return nil, nil }

type applierStub struct{}

func (applierStub) Apply(context.Context, string) error { return nil }

type cliTestEnv struct {
	cfg        config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := config.Default()
	cfg.Paths.DestinationDir = filepath.Join(base, "dest")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "log")
	cfg.Workflow.PollInterval = 3600

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	store, err := runstore.Open(&cfg)
	if err != nil {
		t.Fatalf("open run store: %v", err)
	}

	logger := logging.NewNop()
	cycle := workflow.NewCycle(workflow.Deps{
		Config:    &cfg,
		Logger:    logger,
		Source:    emptySource{},
		Pipeline:  nopPipeline{},
		Committer: nopCommitter{},
		History:   historyStub{},
		Monitors:  monitorStub{},
		Applier:   applierStub{},
	})
	manager := workflow.NewManager(&cfg, cycle, store, notifications.NewService(&cfg), logger)
	d, err := daemon.New(&cfg, store, manager, notifications.NewService(&cfg), logger)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}

	server, err := ipc.NewServer(context.Background(), cfg.SocketPath(), d, nil, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	server.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     server,
		socketPath: cfg.SocketPath(),
		configPath: configPath,
	}

	t.Cleanup(func() {
		env.server.Close()
		_ = env.daemon.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndestination_dir = %q\nstaging_dir = %q\nstate_dir = %q\nlog_dir = %q\n\n[workflow]\npoll_interval = %d\n",
		cfg.Paths.DestinationDir,
		cfg.Paths.StagingDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Workflow.PollInterval,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
