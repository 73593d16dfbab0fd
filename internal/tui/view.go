package tui

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/lanes/internal/domain"
	"github.com/evanschultz/lanes/internal/interaction"
)

// Board layout, in terminal rows. Every card is exactly itemHeight rows so
// pointer rows map onto insertion slots without measuring rendered output.
const (
	minItemHeight     = 3
	defaultItemHeight = 4
	// boardTop is the first row of the column boxes: header and a blank line.
	boardTop  = 2
	columnGap = 1
	// columnChromeRows are the title row and the slot row above the first card.
	columnChromeRows = 2
	minColumnWidth   = 18
)

var (
	mutedColor   = lipgloss.Color("241")
	dimColor     = lipgloss.Color("239")
	accentColor  = lipgloss.Color("62")
	warnColor    = lipgloss.Color("203")
	dropColor    = lipgloss.Color("214")
	selectColor  = lipgloss.Color("212")
	overdueColor = lipgloss.Color("196")
)

var priorityColors = map[domain.Priority]color.Color{
	domain.PriorityLow:    lipgloss.Color("244"),
	domain.PriorityMedium: lipgloss.Color("75"),
	domain.PriorityHigh:   lipgloss.Color("214"),
	domain.PriorityUrgent: lipgloss.Color("196"),
}

func (m Model) View() tea.View {
	var content string
	switch {
	case m.err != nil:
		content = "error: " + m.err.Error() + "\n\npress ctrl+r to retry • q quit\n"
	case !m.ready || m.board == nil:
		content = "loading..."
	default:
		content = m.renderScreen()
	}
	v := tea.NewView(content)
	v.AltScreen = true
	v.ReportFocus = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (m Model) renderScreen() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	bodyHeight := max(1, m.height-boardTop-lipgloss.Height(footer))
	var body string
	if overlay := m.renderOverlay(); overlay != "" {
		body = lipgloss.Place(max(1, m.width), bodyHeight, lipgloss.Center, lipgloss.Center, overlay)
	} else {
		body = fitLines(m.renderBoard(), bodyHeight)
	}
	return header + "\n\n" + body + "\n" + footer
}

func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	header := titleStyle.Render(m.title)
	header += statusStyle.Render(fmt.Sprintf("  %d tasks", m.board.State().TaskCount()))
	if f := m.board.Filter(); !f.IsZero() {
		header += statusStyle.Render("  filter: " + formatFilterInput(f))
	}
	if mode := m.board.Interaction().Mode(); mode != interaction.ModeNone {
		header += lipgloss.NewStyle().Foreground(dropColor).Render("  [" + mode.String() + " move]")
	}
	return header
}

func (m Model) renderFooter() string {
	statusLine := lipgloss.NewStyle().Foreground(mutedColor).Render(m.status)
	if m.isTextMode() {
		statusLine = m.input.View()
	}
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	return statusLine + "\n" + helpLine
}

// columnWidth is the outer width of one column box, border included.
func (m Model) columnWidth(count int) int {
	if count <= 0 {
		return minColumnWidth
	}
	return max(minColumnWidth, (m.width-(count-1)*columnGap)/count)
}

// columnHeight is the outer height of one column box.
func (m Model) columnHeight() int {
	footerRows := 1 + lipgloss.Height(m.renderHelpOnly())
	return max(columnChromeRows+m.itemHeight+2, m.height-boardTop-footerRows)
}

func (m Model) renderHelpOnly() string {
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	return lipgloss.NewStyle().BorderTop(true).Render(helpBubble.View(m.keys))
}

// columnRects returns the screen region of each visible column.
func (m Model) columnRects() []interaction.Rect {
	columns := m.board.Visible().Columns
	width := m.columnWidth(len(columns))
	height := m.columnHeight()
	rects := make([]interaction.Rect, len(columns))
	for idx := range columns {
		rects[idx] = interaction.Rect{
			X:      idx * (width + columnGap),
			Y:      boardTop,
			Width:  width,
			Height: height,
		}
	}
	return rects
}

// listRect is the card area inside a column box.
func (m Model) listRect(column interaction.Rect) interaction.Rect {
	top := column.Y + 1 + columnChromeRows
	return interaction.Rect{
		X:      column.X,
		Y:      top,
		Width:  column.Width,
		Height: max(0, column.Y+column.Height-1-top),
	}
}

func (m Model) renderBoard() string {
	visible := m.board.Visible()
	drag, dragging := activeDrag(m.board.Interaction())
	dir := m.board.Direction()
	// A keyboard move with no slot chosen drops in place; nothing to mark.
	keyboard := m.board.Interaction().Mode() == interaction.ModeKeyboard
	width := m.columnWidth(len(visible.Columns))
	innerHeight := m.columnHeight() - 2
	textWidth := max(1, width-4)
	capacity := m.visibleCards()

	views := make([]string, 0, len(visible.Columns))
	for colIdx, column := range visible.Columns {
		full, _ := m.board.State().Column(column.ID)
		colColor := columnColor(column)
		border := dimColor
		if colIdx == m.selectedColumn {
			border = colColor
		}
		if dragging && drag.TargetColumnID == column.ID {
			border = dropColor
		}
		warn := m.showWIPWarnings && full.OverLimit()
		if warn {
			border = warnColor
		}

		lines := []string{m.renderColumnTitle(full, column, colColor, warn, textWidth)}
		indicator := -1
		if dragging && drag.TargetColumnID == column.ID && (drag.TargetIndex.Valid || !keyboard) {
			indicator = dropSlot(drag.TargetIndex, dir, column.Len())
		}
		slot := func(index int) string {
			if index == indicator {
				return lipgloss.NewStyle().Foreground(dropColor).Render(strings.Repeat("─", max(1, textWidth-2)) + " ▸")
			}
			return ""
		}
		tasks := visible.ColumnTasks(column.ID)
		offset := min(m.scroll[column.ID], len(tasks))
		top := slot(offset)
		if top == "" && offset > 0 {
			top = lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf("↑ %d more", offset))
		}
		lines = append(lines, top)
		shown := tasks[offset:min(len(tasks), offset+capacity)]
		for i, task := range shown {
			taskIdx := offset + i
			selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask
			held := dragging && drag.TaskID == task.ID
			below := slot(taskIdx + 1)
			if below == "" && i == len(shown)-1 && taskIdx+1 < len(tasks) {
				below = lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf("↓ %d more", len(tasks)-taskIdx-1))
			}
			lines = append(lines, m.renderCard(task, selected, held, textWidth, below)...)
		}

		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Width(width)
		if colIdx < len(visible.Columns)-1 {
			style = style.MarginRight(columnGap)
		}
		content := lipgloss.NewStyle().MaxWidth(textWidth).Render(strings.Join(lines, "\n"))
		views = append(views, style.Render(fitLines(content, innerHeight)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// dropSlot is the slot row that shows the drop indicator: slot i sits above
// card i. A downward move within one column lands below the hovered card, so
// the indicator moves down with it. An unset target appends.
func dropSlot(target interaction.NullIndex, dir interaction.VerticalDirection, count int) int {
	if !target.Valid {
		return count
	}
	if dir == interaction.DirectionDown {
		return min(target.Index+1, count)
	}
	return target.Index
}

func (m Model) renderColumnTitle(full, visible domain.Column, colColor color.Color, warn bool, width int) string {
	count := fmt.Sprintf("%d", full.Len())
	if visible.Len() != full.Len() {
		count = fmt.Sprintf("%d/%d", visible.Len(), full.Len())
	}
	if full.MaxTasks > 0 {
		count += fmt.Sprintf(" · max %d", full.MaxTasks)
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(colColor).Render(truncate(full.Title, max(1, width-lipgloss.Width(count)-1)))
	countStyle := lipgloss.NewStyle().Foreground(mutedColor)
	if warn {
		countStyle = countStyle.Foreground(warnColor).Bold(true)
		count += " !"
	}
	return title + " " + countStyle.Render(count)
}

// renderCard returns exactly itemHeight lines; the last one is the slot
// below the card.
func (m Model) renderCard(task domain.Task, selected, held bool, width int, slot string) []string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	prefix := "  "
	switch {
	case held:
		titleStyle = titleStyle.Foreground(dimColor).Italic(true)
		prefix = "↕ "
	case selected:
		titleStyle = titleStyle.Foreground(selectColor).Bold(true)
		prefix = "› "
	}
	lines := []string{titleStyle.Render(prefix + truncate(task.Title, max(1, width-2)))}

	meta := make([]string, 0, 3)
	if m.taskFields.ShowPriority && task.Priority != domain.PriorityNone {
		meta = append(meta, lipgloss.NewStyle().Foreground(priorityColors[task.Priority]).Render(string(task.Priority)))
	}
	if m.taskFields.ShowDueDate && task.DueDate != nil {
		dueStyle := lipgloss.NewStyle().Foreground(mutedColor)
		if task.IsOverdue(m.now()) {
			dueStyle = dueStyle.Foreground(overdueColor)
		}
		meta = append(meta, dueStyle.Render(domain.FormatDue(task.DueDate)))
	}
	if m.taskFields.ShowAssignee && task.Assignee != "" {
		meta = append(meta, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("["+domain.Initials(task.Assignee)+"]"))
	}
	lines = append(lines, "  "+strings.Join(meta, " "))

	detail := ""
	switch {
	case m.taskFields.ShowDescription && task.Description != "":
		detail = flattenLine(task.Description)
	case m.taskFields.ShowTags && len(task.Tags) > 0:
		detail = "#" + strings.Join(task.Tags, " #")
	}
	if detail != "" {
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(mutedColor).Render(truncate(detail, max(1, width-2))))
	}

	body := m.itemHeight - 1
	for len(lines) < body {
		lines = append(lines, "")
	}
	return append(lines[:body], slot)
}

func (m Model) renderOverlay() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(max(30, min(m.width-8, 90)))
	hint := lipgloss.NewStyle().Foreground(mutedColor)

	switch m.mode {
	case modeTaskInfo:
		task, ok := m.board.Task(m.infoTaskID)
		if !ok {
			return boxStyle.Render("task no longer exists")
		}
		columnID, _ := m.board.ColumnOf(task.ID)
		column, _ := m.board.State().Column(columnID)
		body := m.markdown.render(taskMarkdown(task, column.Title), max(24, min(m.width-12, 86)))
		return boxStyle.Render(body + "\n\n" + hint.Render("esc close • "+m.keys.copyTask.Help().Key+" copy title"))

	case modeActivityLog:
		lines := []string{lipgloss.NewStyle().Bold(true).Render("Recent activity"), ""}
		if len(m.activity) == 0 {
			lines = append(lines, hint.Render("no changes recorded yet"))
		}
		for _, event := range m.activity {
			lines = append(lines, fmt.Sprintf("%s  %-6s %s", event.OccurredAt.Local().Format("Jan 2 15:04"), event.Operation, m.describeEvent(event)))
		}
		return boxStyle.Render(strings.Join(lines, "\n") + "\n\n" + hint.Render("esc close"))

	case modeConfirmDelete:
		task, _ := m.board.Task(m.infoTaskID)
		return boxStyle.BorderForeground(warnColor).Render(fmt.Sprintf("Delete %q?\n\n", task.Title) + hint.Render("y confirm • n cancel"))
	}
	return ""
}

func (m Model) describeEvent(event domain.ChangeEvent) string {
	label := event.TaskID
	if task, ok := m.board.Task(event.TaskID); ok {
		label = strconv.Quote(task.Title)
	}
	switch event.Operation {
	case domain.ChangeOperationMove:
		return fmt.Sprintf("%s %s → %s", label, event.Metadata["from"], event.Metadata["to"])
	case domain.ChangeOperationUpdate:
		if fields := event.Metadata["fields"]; fields != "" {
			return fmt.Sprintf("%s (%s)", label, fields)
		}
		if title := event.Metadata["title"]; title != "" {
			return "column " + strconv.Quote(title)
		}
	}
	return label
}

func columnColor(column domain.Column) color.Color {
	if tag := strings.TrimSpace(column.ColorTag); tag != "" {
		return lipgloss.Color(tag)
	}
	return accentColor
}

// fitLines pads or truncates content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
