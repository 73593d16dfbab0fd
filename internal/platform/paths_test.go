package platform

import (
	"path/filepath"
	"testing"
)

// TestPathsForLinuxWithXDG verifies XDG overrides win on linux.
func TestPathsForLinuxWithXDG(t *testing.T) {
	p, err := PathsFor("linux", map[string]string{
		"XDG_CONFIG_HOME": "/xdg/config",
		"XDG_DATA_HOME":   "/xdg/data",
	}, "/fallback/config", "/fallback/data", "lanes")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join("/xdg/config", "lanes", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join("/xdg/data", "lanes", "lanes.db"); p.DBPath != want {
		t.Fatalf("unexpected db path %q", p.DBPath)
	}
	if want := filepath.Join("/xdg/data", "lanes", "log"); p.LogDir != want {
		t.Fatalf("unexpected log dir %q", p.LogDir)
	}
}

func TestPathsForWindowsUsesAppData(t *testing.T) {
	p, err := PathsFor("windows", map[string]string{
		"APPDATA":      `C:\Users\me\AppData\Roaming`,
		"LOCALAPPDATA": `C:\Users\me\AppData\Local`,
	}, `C:\fallback\config`, `C:\fallback\data`, "lanes")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Roaming`, "lanes", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Local`, "lanes", "lanes.db"); p.DBPath != want {
		t.Fatalf("unexpected db path %q", p.DBPath)
	}
}

func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", "lanes"); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("darwin", nil, "/cfg", "/data", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

// TestPathsForDarwinIgnoresXDG verifies macOS keeps the user dirs.
func TestPathsForDarwinIgnoresXDG(t *testing.T) {
	support := "/Users/me/Library/Application Support"
	p, err := PathsFor("darwin", map[string]string{
		"XDG_CONFIG_HOME": "/ignored",
		"XDG_DATA_HOME":   "/ignored",
	}, support, support, "lanes")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(support, "lanes", "config.toml"); p.ConfigPath != want {
		t.Fatalf("unexpected config path %q", p.ConfigPath)
	}
	if want := filepath.Join(support, "lanes"); p.DataDir != want {
		t.Fatalf("unexpected data dir %q", p.DataDir)
	}
}

func TestDefaultPathsWithOptionsDevMode(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "lanes-dev" {
		t.Fatalf("expected dev config dir suffix, got %q", p.ConfigPath)
	}
	if filepath.Base(p.DBPath) != "lanes-dev.db" {
		t.Fatalf("expected dev db name, got %q", p.DBPath)
	}
}

func TestResolveDir(t *testing.T) {
	got, err := ResolveDir(".lanes/log", "/work")
	if err != nil {
		t.Fatalf("ResolveDir() error = %v", err)
	}
	if got != filepath.Join("/work", ".lanes", "log") {
		t.Fatalf("unexpected relative resolve %q", got)
	}
	got, err = ResolveDir("/var/log/lanes/", "/work")
	if err != nil {
		t.Fatalf("ResolveDir() error = %v", err)
	}
	if got != "/var/log/lanes" {
		t.Fatalf("unexpected absolute resolve %q", got)
	}
	if _, err := ResolveDir(" ", "/work"); err == nil {
		t.Fatal("expected error for blank dir")
	}
}

func TestDirName(t *testing.T) {
	cases := map[string]struct {
		opts Options
		want string
	}{
		"default":   {opts: Options{}, want: "lanes"},
		"trimmed":   {opts: Options{AppName: " boards "}, want: "boards"},
		"dev":       {opts: Options{AppName: "boards", DevMode: true}, want: "boards-dev"},
		"blank dev": {opts: Options{AppName: " ", DevMode: true}, want: "lanes-dev"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := dirName(tc.opts); got != tc.want {
				t.Fatalf("dirName() = %q, want %q", got, tc.want)
			}
		})
	}
}
