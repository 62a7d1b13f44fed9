package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rostersync/internal/config"
	"rostersync/internal/daemon"
	"rostersync/internal/directory"
	"rostersync/internal/ipc"
	"rostersync/internal/logging"
	"rostersync/internal/roster"
	"rostersync/internal/testsupport"
)

type stubClient struct {
	members []directory.Entity
	joins   chan directory.JoinEvent
}

func newStubClient(members ...directory.Entity) *stubClient {
	return &stubClient{members: members, joins: make(chan directory.JoinEvent)}
}

func (s *stubClient) Entity(ctx context.Context, id string) (directory.Entity, error) {
	for _, member := range s.members {
		if member.ID == id {
			return member, nil
		}
	}
	return directory.Entity{}, nil
}

func (s *stubClient) Members(ctx context.Context) ([]directory.Entity, error) {
	return s.members, nil
}

func (s *stubClient) AddTags(ctx context.Context, id string, tagIDs []string) error    { return nil }
func (s *stubClient) RemoveTags(ctx context.Context, id string, tagIDs []string) error { return nil }

func (s *stubClient) Tag(ctx context.Context, tagID string) (directory.Tag, error) {
	return directory.Tag{ID: tagID, Rank: 1}, nil
}

func (s *stubClient) ActorRank(ctx context.Context) (int, error) { return 10, nil }

func (s *stubClient) Joins() <-chan directory.JoinEvent { return s.joins }

func (s *stubClient) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *roster.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	client     *stubClient
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T, members ...directory.Entity) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	client := newStubClient(members...)
	d, err := daemon.New(cfg, store, client, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		client:     client,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
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

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[directory]\nbase_url = %q\ntoken = %q\nactor_id = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Directory.BaseURL,
		cfg.Directory.Token,
		cfg.Directory.ActorID,
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
