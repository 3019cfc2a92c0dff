package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeDaemonLog(t *testing.T, env *cliTestEnv, content string) string {
	t.Helper()
	logDir := filepath.Join(env.baseDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("create log dir: %v", err)
	}
	path := filepath.Join(logDir, "marquee.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
	return path
}

func TestCLIShowLines(t *testing.T) {
	env := setupCLITestEnv(t)
	writeDaemonLog(t, env, "first\nsecond\nthird\n")

	out, _, err := runCLI(t, env.configPath, []string{"show", "--lines", "2"})
	if err != nil {
		t.Fatalf("show --lines: %v", err)
	}
	if !strings.Contains(out, "second") || !strings.Contains(out, "third") {
		t.Fatalf("unexpected show output: %q", out)
	}
	if strings.Contains(out, "first") {
		t.Fatalf("expected first line to be trimmed, got %q", out)
	}
}

func TestCLIShowEmptyLog(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, []string{"show"})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "No log entries available")
}

func TestCLIShowFollow(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := writeDaemonLog(t, env, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", env.configPath, "show", "--follow"})
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("followed\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("show --follow execute: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("show --follow did not exit")
	}

	if !strings.Contains(stdout.String(), "followed") {
		t.Fatalf("expected follow output to include new line, got %q", stdout.String())
	}
}
