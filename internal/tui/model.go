package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/evanschultz/lanes/internal/interaction"
)

// Service is the slice of app.Service the board screen needs.
type Service interface {
	OpenBoard(context.Context, ...app.Option) (*app.Board, error)
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}

type inputMode int

const (
	modeNone inputMode = iota
	modeAddTask
	modeEditTask
	modeFilter
	modeRenameColumn
	modeColumnLimit
	modeTaskInfo
	modeActivityLog
	modeConfirmDelete
)

const activityLogLimit = 20

type Model struct {
	svc       Service
	board     *app.Board
	boardOpts []app.Option

	ready  bool
	width  int
	height int
	err    error

	status string
	title  string

	help help.Model
	keys keyMap

	taskFields      TaskFieldConfig
	showWIPWarnings bool
	itemHeight      int

	selectedColumn int
	selectedTask   int
	// scroll is the first visible card of each column, by column id.
	scroll map[string]int

	mode          inputMode
	input         textinput.Model
	editingTaskID string
	infoTaskID    string
	activity      []domain.ChangeEvent

	markdown *markdownRenderer
	copyText func(string) error
	now      func() time.Time
}

// loadedMsg carries the opened board.
type loadedMsg struct {
	board *app.Board
	err   error
}

// activityLoadedMsg carries recent change events for the activity overlay.
type activityLoadedMsg struct {
	events []domain.ChangeEvent
	err    error
}

// NewModel constructs the board screen.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	input := textinput.New()
	input.CharLimit = 240
	m := Model{
		svc:             svc,
		status:          "loading...",
		title:           "lanes",
		help:            h,
		keys:            newKeyMap(),
		taskFields:      DefaultTaskFieldConfig(),
		showWIPWarnings: true,
		itemHeight:      defaultItemHeight,
		input:           input,
		markdown:        &markdownRenderer{},
		copyText:        clipboard.WriteAll,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadData
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if out, ok := next.(Model); ok {
		out.syncScroll()
		return out, cmd
	}
	return next, cmd
}

func (m Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, msg.Width-2))
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "error"
			return m, nil
		}
		m.err = nil
		m.board = msg.board
		m.status = "ready"
		m.clampSelections()
		return m, nil

	case activityLoadedMsg:
		if msg.err != nil {
			m.status = "activity log failed: " + msg.err.Error()
			return m, nil
		}
		m.activity = msg.events
		m.mode = modeActivityLog
		return m, nil

	case tea.BlurMsg:
		if m.board == nil {
			return m, nil
		}
		if drag, ok := activeDrag(m.board.Interaction()); ok {
			m.board.Blur()
			if m.board.BlurPolicy() == app.BlurPolicyCommit {
				m.focusTask(drag.TaskID)
				m.status = "focus lost: move committed"
			} else {
				m.status = "focus lost: move cancelled"
			}
			m.clampSelections()
		}
		return m, nil

	case tea.FocusMsg:
		return m, nil

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)
	}

	if m.isTextMode() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) loadData() tea.Msg {
	b, err := m.svc.OpenBoard(context.Background(), m.boardOpts...)
	return loadedMsg{board: b, err: err}
}

func (m Model) loadActivityLog() tea.Msg {
	events, err := m.svc.ListChangeEvents(context.Background(), activityLogLimit)
	return activityLoadedMsg{events: events, err: err}
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if m.board == nil {
		if m.err != nil && key.Matches(msg, m.keys.reload) {
			m.err = nil
			m.status = "loading..."
			return m, m.loadData
		}
		return m, nil
	}

	switch m.board.Interaction().Mode() {
	case interaction.ModeKeyboard:
		return m.handleKeyboardMoveKey(msg)
	case interaction.ModePointer:
		if m.board.HandleKey(msg.String(), "") {
			m.status = "move cancelled"
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.pickUp):
		task, ok := m.focusedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if m.board.HandleKey("space", task.ID) {
			m.status = fmt.Sprintf("moving %q: arrows to aim, %s to drop, %s to cancel", task.Title, m.keys.drop.Help().Key, m.cancelKeyLabel())
		}
	case key.Matches(msg, m.keys.moveLeft):
		m.selectedColumn--
		m.clampSelections()
	case key.Matches(msg, m.keys.moveRight):
		m.selectedColumn++
		m.clampSelections()
	case key.Matches(msg, m.keys.moveUp):
		m.selectedTask--
		m.clampSelections()
	case key.Matches(msg, m.keys.moveDown):
		m.selectedTask++
		m.clampSelections()
	case key.Matches(msg, m.keys.addTask):
		return m, m.startInput(modeAddTask, "new: ", "title !priority #tag @assignee due:YYYY-MM-DD -- description", "")
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.focusedTask()
		if !ok {
			return m, nil
		}
		m.editingTaskID = task.ID
		return m, m.startInput(modeEditTask, "edit: ", "", formatTaskInput(task))
	case key.Matches(msg, m.keys.duplicate):
		task, ok := m.focusedTask()
		if !ok {
			return m, nil
		}
		if dup, ok := m.board.DuplicateTask(task.ID); ok {
			m.focusTask(dup.ID)
			m.status = "duplicated " + strconv.Quote(task.Title)
		}
	case key.Matches(msg, m.keys.deleteTask):
		if task, ok := m.focusedTask(); ok {
			m.infoTaskID = task.ID
			m.mode = modeConfirmDelete
		}
	case key.Matches(msg, m.keys.taskInfo):
		if task, ok := m.focusedTask(); ok {
			m.infoTaskID = task.ID
			m.mode = modeTaskInfo
		}
	case key.Matches(msg, m.keys.copyTask):
		if task, ok := m.focusedTask(); ok {
			m.copyTaskTitle(task)
		}
	case key.Matches(msg, m.keys.filter):
		return m, m.startInput(modeFilter, "filter: ", "text #tag @assignee !priority", formatFilterInput(m.board.Filter()))
	case key.Matches(msg, m.keys.clearFilter):
		if !m.board.Filter().IsZero() {
			m.board.ClearFilter()
			m.clampSelections()
			m.status = "filter cleared"
		}
	case key.Matches(msg, m.keys.renameColumn):
		if column, ok := m.focusedColumn(); ok {
			return m, m.startInput(modeRenameColumn, "column title: ", "", column.Title)
		}
	case key.Matches(msg, m.keys.columnLimit):
		if column, ok := m.focusedColumn(); ok {
			return m, m.startInput(modeColumnLimit, "wip limit: ", "0 clears the limit", strconv.Itoa(column.MaxTasks))
		}
	case key.Matches(msg, m.keys.activityLog):
		return m, m.loadActivityLog
	}
	return m, nil
}

// handleKeyboardMoveKey routes keys while a task is picked up. Vim motions
// and the configured drop key are translated to the names Board.HandleKey
// understands.
func (m Model) handleKeyboardMoveKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	drag, _ := activeDrag(m.board.Interaction())
	k := msg.String()
	switch {
	case key.Matches(msg, m.keys.moveUp):
		k = "up"
	case key.Matches(msg, m.keys.moveDown):
		k = "down"
	case key.Matches(msg, m.keys.moveLeft):
		k = "left"
	case key.Matches(msg, m.keys.moveRight):
		k = "right"
	case key.Matches(msg, m.keys.drop):
		k = "enter"
	}
	if !m.board.HandleKey(k, "") {
		return m, nil
	}
	if m.board.Interaction().Mode() == interaction.ModeNone {
		if k == "enter" {
			m.focusTask(drag.TaskID)
			m.status = "dropped"
		} else {
			m.status = "move cancelled"
		}
		m.clampSelections()
	}
	return m, nil
}

func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeTaskInfo:
		switch {
		case key.Matches(msg, m.keys.copyTask):
			if task, ok := m.board.Task(m.infoTaskID); ok {
				m.copyTaskTitle(task)
			}
		case msg.String() == "esc", msg.String() == "enter", key.Matches(msg, m.keys.taskInfo), key.Matches(msg, m.keys.quit):
			m.mode = modeNone
		}
		return m, nil
	case modeActivityLog:
		switch {
		case msg.String() == "esc", msg.String() == "enter", key.Matches(msg, m.keys.activityLog), key.Matches(msg, m.keys.quit):
			m.mode = modeNone
		}
		return m, nil
	case modeConfirmDelete:
		switch msg.String() {
		case "y", "enter":
			task, _ := m.board.Task(m.infoTaskID)
			if m.board.DeleteTask(m.infoTaskID) {
				m.status = "deleted " + strconv.Quote(task.Title)
			}
			m.mode = modeNone
			m.clampSelections()
		case "n", "esc", "q":
			m.mode = modeNone
			m.status = "delete cancelled"
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		if m.mode == modeFilter {
			m.board.ClearFilter()
			m.clampSelections()
			m.status = "filter cleared"
		}
		m.closeInput()
		return m, nil
	case "enter":
		return m.submitInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilter {
		m.board.SetFilter(parseFilterInput(m.input.Value()))
		m.clampSelections()
	}
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	switch m.mode {
	case modeAddTask:
		draft, err := parseTaskInput(value, m.now())
		if err != nil {
			m.status = "invalid task: " + err.Error()
			return m, nil
		}
		column, ok := m.focusedColumn()
		if !ok {
			return m, nil
		}
		task, ok := m.board.CreateTask(column.ID, draft)
		if !ok {
			m.status = "create failed"
			return m, nil
		}
		m.focusTask(task.ID)
		m.status = "created " + strconv.Quote(task.Title)

	case modeEditTask:
		current, ok := m.board.Task(m.editingTaskID)
		if !ok {
			m.status = "task no longer exists"
			break
		}
		edited, err := parseTaskInput(value, m.now())
		if err != nil {
			m.status = "invalid task: " + err.Error()
			return m, nil
		}
		patch := editPatch(current, edited)
		if patch.IsZero() {
			m.status = "no changes"
			break
		}
		if m.board.UpdateTask(current.ID, patch) {
			m.status = "updated " + strconv.Quote(edited.Title)
		}

	case modeFilter:
		m.board.SetFilter(parseFilterInput(value))
		if m.board.Filter().IsZero() {
			m.status = "filter cleared"
		} else {
			m.status = "filter: " + formatFilterInput(m.board.Filter())
		}

	case modeRenameColumn:
		column, ok := m.focusedColumn()
		if !ok {
			break
		}
		if !m.board.RenameColumn(column.ID, value) {
			m.status = "column title is required"
			return m, nil
		}
		m.status = "renamed column to " + strconv.Quote(value)

	case modeColumnLimit:
		column, ok := m.focusedColumn()
		if !ok {
			break
		}
		limit, err := strconv.Atoi(value)
		if value == "" {
			limit, err = 0, nil
		}
		if err != nil || limit < 0 {
			m.status = "wip limit must be a whole number >= 0"
			return m, nil
		}
		if m.board.SetColumnLimit(column.ID, limit) {
			m.status = fmt.Sprintf("%s wip limit: %d", column.Title, limit)
		}
	}
	m.closeInput()
	m.clampSelections()
	return m, nil
}

func (m *Model) startInput(mode inputMode, prompt, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = modeNone
	m.editingTaskID = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m Model) isTextMode() bool {
	switch m.mode {
	case modeAddTask, modeEditTask, modeFilter, modeRenameColumn, modeColumnLimit:
		return true
	}
	return false
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.board == nil || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	if m.board.Interaction().Mode() != interaction.ModeNone {
		return m, nil
	}
	colIdx, taskIdx, onCard := m.hitTest(msg.X, msg.Y)
	if colIdx < 0 {
		return m, nil
	}
	m.selectedColumn = colIdx
	if !onCard {
		m.clampSelections()
		return m, nil
	}
	m.selectedTask = taskIdx
	m.clampSelections()
	task, ok := m.focusedTask()
	if !ok {
		return m, nil
	}
	column, _ := m.focusedColumn()
	if m.board.StartDrag(task.ID, column.ID) {
		m.board.UpdateTarget(column.ID, interaction.At(taskIdx))
		m.status = fmt.Sprintf("dragging %q", task.Title)
	}
	return m, nil
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.board == nil || m.board.Interaction().Mode() != interaction.ModePointer {
		return m, nil
	}
	columnID, index := m.pointerTarget(msg.X, msg.Y)
	m.board.UpdateTarget(columnID, index)
	return m, nil
}

func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.board == nil || m.board.Interaction().Mode() != interaction.ModePointer {
		return m, nil
	}
	columnID, index := m.pointerTarget(msg.X, msg.Y)
	m.board.UpdateTarget(columnID, index)
	drag, _ := activeDrag(m.board.Interaction())
	if m.board.EndDrag() {
		m.focusTask(drag.TaskID)
		m.status = "dropped"
	} else {
		m.status = "drag ended without a move"
	}
	m.clampSelections()
	return m, nil
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.board == nil || m.mode != modeNone || m.board.Interaction().Mode() != interaction.ModeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.selectedTask--
	case tea.MouseWheelDown:
		m.selectedTask++
	}
	m.clampSelections()
	return m, nil
}

// pointerTarget resolves the column and insertion slot under the pointer.
// Outside every column the target is cleared.
func (m Model) pointerTarget(x, y int) (string, interaction.NullIndex) {
	rects := m.columnRects()
	colIdx := interaction.ResolveColumnAt(rects, x, y)
	columns := m.board.Visible().Columns
	if colIdx < 0 || colIdx >= len(columns) {
		return "", interaction.NullIndex{}
	}
	column := columns[colIdx]
	list := m.listRect(rects[colIdx])
	// Shift the list up by the hidden cards so rows resolve to full indexes.
	list.Y -= m.scroll[column.ID] * m.itemHeight
	index := interaction.ResolveIndexFromPointer(list, y, m.itemHeight, column.Len())
	return column.ID, interaction.At(index)
}

// hitTest returns the visible column and task under (x, y).
func (m Model) hitTest(x, y int) (int, int, bool) {
	rects := m.columnRects()
	colIdx := interaction.ResolveColumnAt(rects, x, y)
	if colIdx < 0 {
		return -1, -1, false
	}
	list := m.listRect(rects[colIdx])
	if !list.Contains(x, y) {
		return colIdx, -1, false
	}
	columns := m.board.Visible().Columns
	taskIdx := m.scroll[columns[colIdx].ID] + (y-list.Y)/m.itemHeight
	if taskIdx >= columns[colIdx].Len() {
		return colIdx, -1, false
	}
	return colIdx, taskIdx, true
}

func (m *Model) copyTaskTitle(task domain.Task) {
	if err := m.copyText(task.Title); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied " + strconv.Quote(task.Title)
}

func (m Model) focusedColumn() (domain.Column, bool) {
	if m.board == nil {
		return domain.Column{}, false
	}
	columns := m.board.Visible().Columns
	if m.selectedColumn < 0 || m.selectedColumn >= len(columns) {
		return domain.Column{}, false
	}
	return columns[m.selectedColumn], true
}

func (m Model) focusedTask() (domain.Task, bool) {
	column, ok := m.focusedColumn()
	if !ok {
		return domain.Task{}, false
	}
	tasks := m.board.Visible().ColumnTasks(column.ID)
	if m.selectedTask < 0 || m.selectedTask >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.selectedTask], true
}

// focusTask moves the selection onto taskID when it is visible.
func (m *Model) focusTask(taskID string) {
	visible := m.board.Visible()
	columnID, ok := visible.ColumnOf(taskID)
	if !ok {
		return
	}
	m.selectedColumn = visible.ColumnIndex(columnID)
	column, _ := visible.Column(columnID)
	m.selectedTask = column.IndexOf(taskID)
}

func (m *Model) clampSelections() {
	if m.board == nil {
		m.selectedColumn, m.selectedTask = 0, 0
		return
	}
	columns := m.board.Visible().Columns
	m.selectedColumn = clamp(m.selectedColumn, 0, len(columns)-1)
	if len(columns) == 0 {
		m.selectedTask = 0
		return
	}
	m.selectedTask = clamp(m.selectedTask, 0, columns[m.selectedColumn].Len()-1)
}

// visibleCards is how many whole cards fit in one column's list area.
func (m Model) visibleCards() int {
	return max(1, m.listRect(interaction.Rect{Height: m.columnHeight()}).Height/m.itemHeight)
}

// syncScroll keeps the selected card, and the keyboard drop target, inside
// each column's visible window.
func (m *Model) syncScroll() {
	if m.board == nil || !m.ready {
		return
	}
	capacity := m.visibleCards()
	drag, dragging := activeDrag(m.board.Interaction())
	keyboard := dragging && m.board.Interaction().Mode() == interaction.ModeKeyboard
	columns := m.board.Visible().Columns
	next := make(map[string]int, len(columns))
	for colIdx, column := range columns {
		focus := -1
		if colIdx == m.selectedColumn {
			focus = m.selectedTask
		}
		if keyboard && drag.TargetColumnID == column.ID && drag.TargetIndex.Valid {
			focus = min(drag.TargetIndex.Index, column.Len()-1)
		}
		next[column.ID] = scrollOffset(m.scroll[column.ID], focus, column.Len(), capacity)
	}
	m.scroll = next
}

// scrollOffset moves off the least distance that brings focus into a window
// of capacity cards. A negative focus only clamps.
func scrollOffset(off, focus, count, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	if focus >= 0 {
		if focus < off {
			off = focus
		}
		if focus >= off+capacity {
			off = focus - capacity + 1
		}
	}
	return clamp(off, 0, max(0, count-capacity))
}

func (m Model) cancelKeyLabel() string {
	if k := m.board.CancelKey(); k != "" {
		return k
	}
	return "blur"
}

// activeDrag unwraps the drag carried by either dragging state.
func activeDrag(in interaction.Interaction) (interaction.Drag, bool) {
	switch cur := in.(type) {
	case interaction.PointerDragging:
		return cur.Drag, true
	case interaction.KeyboardDragging:
		return cur.Drag, true
	}
	return interaction.Drag{}, false
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
