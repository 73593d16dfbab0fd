package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/lanes/internal/domain"
)

// Blur policies accepted by interaction.blur_policy.
const (
	BlurPolicyCancel = "cancel"
	BlurPolicyCommit = "commit"
)

type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Board       BoardConfig       `toml:"board"`
	Interaction InteractionConfig `toml:"interaction"`
	TaskFields  TaskFieldsConfig  `toml:"task_fields"`
	Logging     LoggingConfig     `toml:"logging"`
	Keys        KeyConfig         `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type BoardConfig struct {
	ID              string         `toml:"id"`
	Name            string         `toml:"name"`
	Columns         []ColumnConfig `toml:"columns"`
	ShowWIPWarnings bool           `toml:"show_wip_warnings"`
}

type ColumnConfig struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Color    string `toml:"color"`
	MaxTasks int    `toml:"max_tasks"`
}

// MinItemHeight is the smallest card that still fits a title row, a meta
// row, and the slot row below it.
const MinItemHeight = 3

type InteractionConfig struct {
	// ItemHeight is the row height of one card, used to turn a pointer row
	// into an insertion index.
	ItemHeight      int    `toml:"item_height"`
	BlurPolicy      string `toml:"blur_policy"`
	CancelKey       string `toml:"cancel_key"`
	NotifyDuplicate bool   `toml:"notify_duplicate"`
}

type TaskFieldsConfig struct {
	ShowPriority    bool `toml:"show_priority"`
	ShowDueDate     bool `toml:"show_due_date"`
	ShowTags        bool `toml:"show_tags"`
	ShowAssignee    bool `toml:"show_assignee"`
	ShowDescription bool `toml:"show_description"`
}

type LoggingConfig struct {
	Level   string           `toml:"level"`
	DevFile DevFileLogConfig `toml:"dev_file"`
}

type DevFileLogConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type KeyConfig struct {
	PickUp    string `toml:"pick_up"`
	Drop      string `toml:"drop"`
	NewTask   string `toml:"new_task"`
	Duplicate string `toml:"duplicate"`
	Delete    string `toml:"delete"`
	Edit      string `toml:"edit"`
	Filter    string `toml:"filter"`
	Copy      string `toml:"copy"`
}

func defaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{ID: "todo", Title: "To Do", Color: "12"},
		{ID: "progress", Title: "In Progress", Color: "11", MaxTasks: 5},
		{ID: "review", Title: "Review", Color: "13"},
		{ID: "done", Title: "Done", Color: "10"},
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Board: BoardConfig{
			ID:              "default",
			Name:            "Board",
			Columns:         defaultColumns(),
			ShowWIPWarnings: true,
		},
		Interaction: InteractionConfig{
			ItemHeight:      4,
			BlurPolicy:      BlurPolicyCancel,
			CancelKey:       "esc",
			NotifyDuplicate: false,
		},
		TaskFields: TaskFieldsConfig{
			ShowPriority:    true,
			ShowDueDate:     true,
			ShowTags:        true,
			ShowAssignee:    true,
			ShowDescription: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileLogConfig{
				Enabled: true,
				Dir:     ".lanes/log",
			},
		},
		Keys: KeyConfig{
			PickUp:    "space",
			Drop:      "enter",
			NewTask:   "n",
			Duplicate: "D",
			Delete:    "x",
			Edit:      "e",
			Filter:    "/",
			Copy:      "y",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if err := domain.ValidateColumnCount(len(c.Board.Columns)); err != nil {
		return fmt.Errorf("board.columns: %w", err)
	}
	seenColumnID := map[string]struct{}{}
	for idx, column := range c.Board.Columns {
		id := strings.TrimSpace(column.ID)
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if strings.TrimSpace(column.Title) == "" {
			return fmt.Errorf("board.columns[%d].title is required", idx)
		}
		if column.MaxTasks < 0 {
			return fmt.Errorf("board.columns[%d].max_tasks must be >= 0", idx)
		}
		if _, ok := seenColumnID[id]; ok {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s", idx, id)
		}
		seenColumnID[id] = struct{}{}
	}

	if c.Interaction.ItemHeight < MinItemHeight {
		return fmt.Errorf("interaction.item_height must be >= %d", MinItemHeight)
	}
	switch strings.TrimSpace(strings.ToLower(c.Interaction.BlurPolicy)) {
	case "", BlurPolicyCancel, BlurPolicyCommit:
	default:
		return fmt.Errorf("invalid interaction.blur_policy: %q", c.Interaction.BlurPolicy)
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	return nil
}

// DomainColumns builds the configured columns with empty task lists.
func (c Config) DomainColumns() ([]domain.Column, error) {
	out := make([]domain.Column, 0, len(c.Board.Columns))
	for idx, column := range c.Board.Columns {
		dc, err := domain.NewColumn(column.ID, column.Title, column.Color, column.MaxTasks)
		if err != nil {
			return nil, fmt.Errorf("board.columns[%d]: %w", idx, err)
		}
		out = append(out, dc)
	}
	if err := domain.ValidateColumnCount(len(out)); err != nil {
		return nil, err
	}
	return out, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Save writes cfg to path as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("config path is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
