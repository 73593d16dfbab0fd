package app

import (
	"context"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
)

// BoardRecord is one persisted board: ordered columns with their task ids,
// and every task body.
type BoardRecord struct {
	ID        string
	Name      string
	Columns   []domain.Column
	Tasks     []domain.Task
	UpdatedAt time.Time
}

// Store persists boards and the change-event ledger.
type Store interface {
	LoadBoard(context.Context, string) (BoardRecord, error)
	SaveBoard(context.Context, BoardRecord) error
	AppendChangeEvent(context.Context, domain.ChangeEvent) error
	ListChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)
}

// Logger is the structured logging surface the board writes to. A
// *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}
