package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"refsync/internal/logging"
	"refsync/internal/mapping"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	mappingDir string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		mappingDir: filepath.Join(base, "mappings"),
	}

	content := fmt.Sprintf(`[paths]
mapping_dir = %q
data_dir = %q
backup_dir = %q
log_dir = %q

[resolver]
cache_enabled = true
watch_mappings = false
categories = ["processor", "graphics", "display"]

[logging]
format = "json"
level = "warn"
`,
		env.mappingDir,
		filepath.Join(base, "data"),
		filepath.Join(base, "backups"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return env
}

func (e *cliTestEnv) seedTable(t *testing.T, category string, entries map[string]string) {
	t.Helper()
	if err := os.MkdirAll(e.mappingDir, 0o755); err != nil {
		t.Fatalf("create mapping dir: %v", err)
	}
	store := mapping.NewStore(e.mappingDir, false, logging.NewNop())
	if err := store.Write(category, entries); err != nil {
		t.Fatalf("seed table %s: %v", category, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
