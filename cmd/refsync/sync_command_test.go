package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"refsync/internal/syncer"
)

func TestSyncRunCommitsFeed(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedTable(t, "graphics", map[string]string{
		"RTX 3070": "gid://catalog/Component/42",
	})

	feed := []syncer.ResolvedComponent{
		{Category: "graphics", RawValue: "rx 7800 xt", ReferenceID: "gid://catalog/Component/77", CanonicalName: "RX 7800 XT"},
		{Category: "processor", RawValue: "i7-12700H", ReferenceID: "gid://catalog/Component/78"},
	}
	feedPath := filepath.Join(env.baseDir, "feed.json")
	data, err := json.Marshal(feed)
	if err != nil {
		t.Fatalf("marshal feed: %v", err)
	}
	if err := os.WriteFile(feedPath, data, 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	out, _, err := runCLI(t, []string{"sync", "run", feedPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sync run: %v", err)
	}
	var report syncer.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if report.Status != syncer.StatusCommitted {
		t.Fatalf("expected committed run, got %s (%s)", report.Status, report.Failure)
	}
	if report.Categories["graphics"].Merged != 1 || report.Categories["processor"].Merged != 1 {
		t.Fatalf("unexpected merge counts: %+v", report.Categories)
	}

	out, _, err = runCLI(t, []string{"mappings", "show", "graphics", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("mappings show: %v", err)
	}
	requireContains(t, out, "RX 7800 XT")
	requireContains(t, out, "gid://catalog/Component/77")

	out, _, err = runCLI(t, []string{"backups", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("backups list: %v", err)
	}
	requireContains(t, out, "graphics")
}

func TestSyncRunReportsRollback(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedTable(t, "graphics", map[string]string{
		"RTX 3070": "gid://catalog/Component/42",
	})

	feedPath := filepath.Join(env.baseDir, "feed.json")
	feed := `[{"category":"graphics","raw_value":"bad","reference_id":"not-a-reference-id"}]`
	if err := os.WriteFile(feedPath, []byte(feed), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	out, _, err := runCLI(t, []string{"sync", "run", feedPath, "--json"}, env.configPath)
	if err == nil {
		t.Fatal("expected sync run to fail")
	}
	var report syncer.Report
	if jsonErr := json.Unmarshal([]byte(out), &report); jsonErr != nil {
		t.Fatalf("parse report: %v", jsonErr)
	}
	if report.Status != syncer.StatusRolledBack {
		t.Fatalf("expected rolled_back run, got %s", report.Status)
	}
}
