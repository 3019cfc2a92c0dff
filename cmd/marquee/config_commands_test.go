package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// config validate works even without a config file
	out, _, err := runCLI(t, "", []string{"config", "validate"})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	// config init to temp location
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, "", []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// a second init without --overwrite refuses to clobber the file
	_, _, err = runCLI(t, "", []string{"config", "init", "--path", target})
	if err == nil {
		t.Fatal("expected config init without --overwrite to fail")
	}
	requireContains(t, err.Error(), "already exists")

	out, _, err = runCLI(t, "", []string{"config", "init", "--path", target, "--overwrite"})
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
}
