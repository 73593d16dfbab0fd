package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanschultz/lanes/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/lanes.db")
	if cfg.Database.Path != "/tmp/lanes.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if len(cfg.Board.Columns) != 4 {
		t.Fatalf("expected 4 default columns, got %d", len(cfg.Board.Columns))
	}
	if cfg.Interaction.BlurPolicy != BlurPolicyCancel || cfg.Interaction.CancelKey != "esc" {
		t.Fatalf("unexpected interaction defaults %#v", cfg.Interaction)
	}
	if cfg.Interaction.NotifyDuplicate {
		t.Fatal("expected duplicate notifications off by default")
	}
	if !cfg.TaskFields.ShowPriority || !cfg.TaskFields.ShowDueDate || !cfg.TaskFields.ShowTags {
		t.Fatal("expected priority/due_date/tags enabled by default")
	}
	if cfg.TaskFields.ShowDescription {
		t.Fatal("expected description disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/lanes.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/custom/lanes.db"

[board]
name = "Sprint"

[[board.columns]]
id = "backlog"
title = "Backlog"

[[board.columns]]
id = "doing"
title = "Doing"
max_tasks = 2

[[board.columns]]
id = "done"
title = "Done"

[interaction]
item_height = 3
blur_policy = "commit"
cancel_key = "q"

[task_fields]
show_due_date = false
show_description = true
`)

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/lanes.db" || cfg.Board.Name != "Sprint" {
		t.Fatalf("unexpected overrides %#v", cfg)
	}
	if len(cfg.Board.Columns) != 3 || cfg.Board.Columns[1].MaxTasks != 2 {
		t.Fatalf("expected configured columns to replace defaults, got %#v", cfg.Board.Columns)
	}
	if cfg.Interaction.ItemHeight != 3 || cfg.Interaction.BlurPolicy != BlurPolicyCommit || cfg.Interaction.CancelKey != "q" {
		t.Fatalf("unexpected interaction overrides %#v", cfg.Interaction)
	}
	if cfg.TaskFields.ShowDueDate {
		t.Fatal("expected due_date hidden from config override")
	}
	if !cfg.TaskFields.ShowDescription || !cfg.TaskFields.ShowPriority {
		t.Fatal("expected description shown and priority kept from defaults")
	}
	columns, err := cfg.DomainColumns()
	if err != nil {
		t.Fatalf("DomainColumns() error = %v", err)
	}
	if columns[0].ID != "backlog" || columns[1].MaxTasks != 2 || len(columns[2].TaskIDs) != 0 {
		t.Fatalf("unexpected domain columns %#v", columns)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "blur policy",
			content: `
[interaction]
blur_policy = "weird"
`,
			want: "blur_policy",
		},
		{
			name: "log level",
			content: `
[logging]
level = "loud"
`,
			want: "logging.level",
		},
		{
			name: "item height",
			content: `
[interaction]
item_height = 2
`,
			want: "item_height must be >= 3",
		},
		{
			name: "duplicate column",
			content: `
[[board.columns]]
id = "a"
title = "A"

[[board.columns]]
id = "a"
title = "Again"

[[board.columns]]
id = "c"
title = "C"
`,
			want: "duplicated",
		},
		{
			name: "negative limit",
			content: `
[[board.columns]]
id = "a"
title = "A"
max_tasks = -1

[[board.columns]]
id = "b"
title = "B"

[[board.columns]]
id = "c"
title = "C"
`,
			want: "max_tasks",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content), Default("/tmp/default.db"))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsColumnCount(t *testing.T) {
	path := writeConfig(t, `
[[board.columns]]
id = "a"
title = "A"

[[board.columns]]
id = "b"
title = "B"
`)
	_, err := Load(path, Default("/tmp/default.db"))
	if !errors.Is(err, domain.ErrInvalidColumnCount) {
		t.Fatalf("expected ErrInvalidColumnCount, got %v", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}

func TestSaveWritesLoadableConfig(t *testing.T) {
	cfg := Default("/tmp/saved.db")
	cfg.Board.Columns = cfg.Board.Columns[:3]
	cfg.Interaction.BlurPolicy = BlurPolicyCommit
	cfg.Keys.PickUp = "p"

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path, Default("/tmp/other.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Database.Path != "/tmp/saved.db" || len(loaded.Board.Columns) != 3 {
		t.Fatalf("unexpected loaded config %#v", loaded)
	}
	if loaded.Interaction.BlurPolicy != BlurPolicyCommit || loaded.Keys.PickUp != "p" {
		t.Fatalf("unexpected loaded interaction/keys %#v %#v", loaded.Interaction, loaded.Keys)
	}

	cfg.Interaction.BlurPolicy = "sometimes"
	if err := Save(path, cfg); err == nil || !strings.Contains(err.Error(), "blur_policy") {
		t.Fatalf("expected invalid config to be rejected, got %v", err)
	}
}
