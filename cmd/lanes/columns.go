package main

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/evanschultz/lanes/internal/domain"
)

func columnsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Show the board's columns with their colors and WIP limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(o, "columns", true)
			if err != nil {
				return err
			}
			defer s.Close(o.stderr)

			b, err := s.svc.OpenBoard(cmd.Context())
			if err != nil {
				return fmt.Errorf("open board: %w", err)
			}
			_, err = fmt.Fprintln(o.stdout, renderColumnsTable(b.Columns()))
			return err
		},
	}
}

// renderColumnsTable lists columns in board order. Over-limit columns are
// flagged in the WIP cell.
func renderColumnsTable(columns []domain.Column) string {
	rows := make([][]string, 0, len(columns))
	for _, column := range columns {
		swatch := "-"
		if column.ColorTag != "" {
			swatch = lipgloss.NewStyle().Foreground(lipgloss.Color(column.ColorTag)).Render("■■") + " " + column.ColorTag
		}
		limit := "-"
		if column.MaxTasks > 0 {
			limit = strconv.Itoa(column.MaxTasks)
			if column.OverLimit() {
				limit += " !"
			}
		}
		rows = append(rows, []string{column.ID, column.Title, swatch, strconv.Itoa(column.Len()), limit})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("ID", "Title", "Color", "Tasks", "WIP").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}
