package main

import (
	"context"
	"strings"
	"testing"

	"rostersync/internal/directory"
)

func TestCLIRecordCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t,
		[]string{"records", "put", "faker", "--tier", "T1", "--position", "MID", "--captain"},
		env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("records put: %v", err)
	}
	requireContains(t, out, "Stored record")

	out, _, err = runCLI(t, []string{"records", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("records list: %v", err)
	}
	requireContains(t, out, "faker")
	requireContains(t, out, "T1")

	out, _, err = runCLI(t, []string{"records", "list", "--unresolved"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("records list --unresolved: %v", err)
	}
	requireContains(t, out, "faker")

	out, _, err = runCLI(t, []string{"records", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("records list --json: %v", err)
	}
	requireContains(t, out, `"handle": "faker"`)

	if _, _, err := runCLI(t, []string{"records", "put", "   "}, env.socketPath, env.configPath); err == nil {
		t.Fatal("records put with blank handle should fail")
	}
}

func TestCLISweepAndAudit(t *testing.T) {
	env := setupCLITestEnv(t, directory.Entity{ID: "ent-1", Handle: "chovy"})
	ctx := context.Background()

	for _, handle := range []string{"chovy", "zeus"} {
		if _, _, err := runCLI(t, []string{"records", "put", handle}, env.socketPath, env.configPath); err != nil {
			t.Fatalf("records put %s: %v", handle, err)
		}
	}

	out, _, err := runCLI(t, []string{"sweep"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	requireContains(t, out, "1 linked")
	requireContains(t, out, "1 unmatched")

	rec, err := env.store.FindByHandle(ctx, "chovy")
	if err != nil {
		t.Fatalf("FindByHandle: %v", err)
	}
	if rec.EntityID != "ent-1" {
		t.Fatalf("sweep did not link record: %+v", rec)
	}

	out, _, err = runCLI(t, []string{"audit"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	requireContains(t, out, "1 unresolved record(s)")
	requireContains(t, out, "zeus")

	out, _, err = runCLI(t, []string{"audit", "--json", "--force"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("audit --json: %v", err)
	}
	requireContains(t, out, `"total": 1`)
	requireContains(t, out, `"emitted": true`)
}

func TestCLIStatusAndNotify(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	requireContains(t, out, `"running": false`)

	out, _, err = runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "notifications not configured")
}

func TestCLIRecordsOfflineFallback(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"records", "put", "keria"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("records put: %v", err)
	}

	env.cancel()
	env.server.Close()

	out, _, err := runCLI(t, []string{"records", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("records list offline: %v", err)
	}
	requireContains(t, out, "keria")

	out, _, err = runCLI(t, []string{"records", "put", "oner"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("records put offline: %v", err)
	}
	if !strings.Contains(out, "Daemon is not running") {
		t.Fatalf("expected offline notice, got %q", out)
	}
}
