package main

// main_test.go — Tests for playbook autodetection and the run entrypoint.

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chdir switches to dir for the duration of the test; equivalent to
// t.Chdir, which needs Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// findPlaybook
// ---------------------------------------------------------------------------

func TestFindPlaybook_PrefersConventionalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.yml"), "[]\n")
	writeFile(t, filepath.Join(dir, "deploy.yml"), "[]\n")
	chdir(t, dir)

	if got := findPlaybook(); got != "site.yml" {
		t.Errorf("findPlaybook() = %q, want site.yml", got)
	}
}

func TestFindPlaybook_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "playbook.yml"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "main.yml"), "[]\n")
	chdir(t, dir)

	if got := findPlaybook(); got != "main.yml" {
		t.Errorf("findPlaybook() = %q, want main.yml", got)
	}
}

func TestFindPlaybook_NoneFound(t *testing.T) {
	chdir(t, t.TempDir())
	if got := findPlaybook(); got != "" {
		t.Errorf("findPlaybook() = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

// setupDeployment builds a minimal tree: one playbook, one host, one role.
func setupDeployment(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "playbook.yml"), `
- hosts: web
  roles:
    - nginx
`)
	writeFile(t, filepath.Join(root, "inventory", ".hosts.yml.example"), `
all:
  children:
    web:
      hosts:
        web1:
`)
	writeFile(t, filepath.Join(root, "roles", "nginx", "meta", "argument_specs.yml"), `
argument_specs:
  main:
    short_description: Web server
    description: Serves web traffic.
    options:
      port:
        type: int
        description: Listen port
        default: 80
`)
	return root
}

func TestRun_GeneratesHostFiles(t *testing.T) {
	root := setupDeployment(t)

	opts := options{processShared: true, logLevel: "info"}
	err := run(context.Background(), discardLogger(), filepath.Join(root, "playbook.yml"), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	normal := filepath.Join(root, "host_vars", "web1", ".web1.yml.example")
	data, err := os.ReadFile(normal)
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}
	if !strings.Contains(string(data), "port: 80") {
		t.Errorf("generated file missing variable line:\n%s", data)
	}
	secrets := filepath.Join(root, "host_vars", "web1", ".web1.secrets.yml.example")
	if _, err := os.Stat(secrets); err != nil {
		t.Errorf("secrets file not written: %v", err)
	}
}

func TestRun_InventoryOverride(t *testing.T) {
	root := setupDeployment(t)
	alt := filepath.Join(root, "hosts-alt.yml")
	writeFile(t, alt, `
all:
  children:
    web:
      hosts:
        staging1:
`)

	opts := options{inventoryFile: alt, processShared: true, logLevel: "info"}
	err := run(context.Background(), discardLogger(), filepath.Join(root, "playbook.yml"), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "host_vars", "staging1", ".staging1.yml.example")); err != nil {
		t.Errorf("override inventory not used: %v", err)
	}
}

func TestRun_MissingPlaybook(t *testing.T) {
	err := run(context.Background(), discardLogger(), filepath.Join(t.TempDir(), "absent.yml"), options{})
	if err == nil {
		t.Fatal("expected error for missing playbook")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRun_NoPlaybookAnywhere(t *testing.T) {
	chdir(t, t.TempDir())
	err := run(context.Background(), discardLogger(), "", options{})
	if err == nil {
		t.Fatal("expected error when autodetection finds nothing")
	}
	if !strings.Contains(err.Error(), "no playbook found") {
		t.Errorf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// flags
// ---------------------------------------------------------------------------

func TestRootCommand_FlagDefaults(t *testing.T) {
	cmd := newRootCommand()

	tests := []struct {
		flag string
		want string
	}{
		{"inventory-file", ""},
		{"process-shared", "true"},
		{"watch", "false"},
		{"log-level", "info"},
	}
	for _, tc := range tests {
		f := cmd.Flags().Lookup(tc.flag)
		if f == nil {
			t.Errorf("flag --%s not registered", tc.flag)
			continue
		}
		if f.DefValue != tc.want {
			t.Errorf("--%s default = %q, want %q", tc.flag, f.DefValue, tc.want)
		}
	}
	if cmd.Flags().ShorthandLookup("i") == nil {
		t.Error("shorthand -i not registered")
	}
}
