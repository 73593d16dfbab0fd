package tui

import (
	"strings"
	"time"

	"github.com/evanschultz/lanes/internal/app"
)

// TaskFieldConfig selects which card fields render.
type TaskFieldConfig struct {
	ShowPriority    bool
	ShowDueDate     bool
	ShowTags        bool
	ShowAssignee    bool
	ShowDescription bool
}

type Option func(*Model)

func DefaultTaskFieldConfig() TaskFieldConfig {
	return TaskFieldConfig{
		ShowPriority:    true,
		ShowDueDate:     true,
		ShowTags:        true,
		ShowAssignee:    true,
		ShowDescription: false,
	}
}

func WithTaskFieldConfig(cfg TaskFieldConfig) Option {
	return func(m *Model) {
		m.taskFields = cfg
	}
}

// WithBoardOptions passes options through to Service.OpenBoard.
func WithBoardOptions(opts ...app.Option) Option {
	return func(m *Model) {
		m.boardOpts = append(m.boardOpts, opts...)
	}
}

// WithItemHeight sets the row height of one card. Values below 3 are raised
// to 3; config validation rejects them first.
func WithItemHeight(rows int) Option {
	return func(m *Model) {
		m.itemHeight = max(minItemHeight, rows)
	}
}

func WithShowWIPWarnings(enabled bool) Option {
	return func(m *Model) {
		m.showWIPWarnings = enabled
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

func WithTitle(title string) Option {
	return func(m *Model) {
		if title = strings.TrimSpace(title); title != "" {
			m.title = title
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}
