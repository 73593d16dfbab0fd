package app

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/evanschultz/lanes/internal/board"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/evanschultz/lanes/internal/interaction"
)

// Hooks are the host callbacks fired after a local commit. Nil fields are
// skipped. No hook fires for a no-op: OnTaskMove stays silent when a drop
// lands the task back in its own slot.
type Hooks struct {
	OnTaskMove   func(taskID, fromColumnID, toColumnID string, newIndex int)
	OnTaskCreate func(columnID string, task domain.Task)
	OnTaskUpdate func(taskID string, patch domain.TaskPatch)
	OnTaskDelete func(taskID string)
	// OnTaskDuplicate fires for every duplicate, whatever WithNotifyDuplicate
	// says about OnTaskCreate.
	OnTaskDuplicate func(columnID string, sourceTaskID string, task domain.Task)
	// OnColumnUpdate fires after a rename or WIP limit change.
	OnColumnUpdate func(column domain.Column)
}

// BlurPolicy decides what losing focus does to an in-progress move.
type BlurPolicy string

// BlurPolicyCancel and related constants define package defaults.
const (
	BlurPolicyCancel BlurPolicy = "cancel"
	BlurPolicyCommit BlurPolicy = "commit"
)

// DefaultCancelKey is the key name that abandons a move.
const DefaultCancelKey = "esc"

// ParseBlurPolicy parses a config value; blank means cancel.
func ParseBlurPolicy(raw string) (BlurPolicy, error) {
	switch p := BlurPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return BlurPolicyCancel, nil
	case BlurPolicyCancel, BlurPolicyCommit:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBlurPolicy, raw)
	}
}

// Option configures a Board.
type Option func(*Board)

// WithIDGenerator overrides the uuid task id generator.
func WithIDGenerator(idGen board.IDGenerator) Option {
	return func(b *Board) {
		if idGen != nil {
			b.idGen = idGen
		}
	}
}

// WithClock overrides time.Now.
func WithClock(clock board.Clock) Option {
	return func(b *Board) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(logger Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithHooks registers a set of host callbacks.
func WithHooks(hooks Hooks) Option {
	return func(b *Board) {
		b.hooks = append(b.hooks, hooks)
	}
}

// WithNotifyDuplicate makes DuplicateTask fire OnTaskCreate.
func WithNotifyDuplicate(enabled bool) Option {
	return func(b *Board) {
		b.notifyDuplicate = enabled
	}
}

// WithBlurPolicy sets what Blur does to an active move.
func WithBlurPolicy(policy BlurPolicy) Option {
	return func(b *Board) {
		if policy != "" {
			b.blurPolicy = policy
		}
	}
}

// WithCancelKey sets the key HandleKey treats as cancel. Empty disables it.
func WithCancelKey(key string) Option {
	return func(b *Board) {
		b.cancelKey = strings.TrimSpace(key)
	}
}

// Board owns the authoritative board state, the interaction in progress,
// and the active filter. It is not safe for concurrent use.
type Board struct {
	state  board.State
	ctrl   *interaction.Controller
	filter board.Filter
	hooks  []Hooks

	idGen           board.IDGenerator
	clock           board.Clock
	logger          Logger
	notifyDuplicate bool
	blurPolicy      BlurPolicy
	cancelKey       string
}

// NewBoard seeds a board. Seeded state is repaired with board.Normalize;
// a column count outside [domain.MinColumns, domain.MaxColumns] or a repeated
// column id is an error.
func NewBoard(columns []domain.Column, tasks []domain.Task, opts ...Option) (*Board, error) {
	b := &Board{
		ctrl:       interaction.NewController(),
		idGen:      uuid.NewString,
		clock:      time.Now,
		logger:     log.New(io.Discard),
		blurPolicy: BlurPolicyCancel,
		cancelKey:  DefaultCancelKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	state, err := b.seed(columns, tasks)
	if err != nil {
		return nil, err
	}
	b.state = state
	return b, nil
}

// SetColumns replaces the column set, keeping task bodies the new columns
// still reference. Any interaction in progress is cancelled.
func (b *Board) SetColumns(columns []domain.Column) error {
	tasks := make([]domain.Task, 0, len(b.state.Tasks))
	for _, task := range b.state.Tasks {
		tasks = append(tasks, task)
	}
	state, err := b.seed(columns, tasks)
	if err != nil {
		return err
	}
	b.state = state
	b.ctrl.Reset()
	return nil
}

func (b *Board) seed(columns []domain.Column, tasks []domain.Task) (board.State, error) {
	if err := domain.ValidateColumnCount(len(columns)); err != nil {
		return board.State{}, err
	}
	seen := map[string]struct{}{}
	cloned := make([]domain.Column, 0, len(columns))
	for _, column := range columns {
		if _, dup := seen[column.ID]; dup {
			return board.State{}, fmt.Errorf("%w: %s", board.ErrDuplicateColumn, column.ID)
		}
		seen[column.ID] = struct{}{}
		cloned = append(cloned, column.Clone())
	}
	bodies := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		bodies = append(bodies, task.Clone())
	}
	state, report := board.Normalize(board.NewState(cloned, bodies))
	if !report.Empty() {
		b.logger.Warn("seeded board state repaired",
			"duplicate_refs", report.DuplicateRefs,
			"dangling_refs", report.DanglingRefs,
			"orphan_tasks", report.OrphanTasks,
		)
	}
	return state, nil
}

// AddHooks registers another observer. Every registered set fires, in
// registration order.
func (b *Board) AddHooks(hooks Hooks) {
	b.hooks = append(b.hooks, hooks)
}

// State returns a deep copy of the committed state.
func (b *Board) State() board.State {
	return b.state.Clone()
}

// Columns returns the columns in board order.
func (b *Board) Columns() []domain.Column {
	return b.State().Columns
}

// Task looks up a task body.
func (b *Board) Task(taskID string) (domain.Task, bool) {
	task, ok := b.state.Tasks[taskID]
	if !ok {
		return domain.Task{}, false
	}
	return task.Clone(), true
}

// ColumnOf returns the column holding taskID.
func (b *Board) ColumnOf(taskID string) (string, bool) {
	return b.state.ColumnOf(taskID)
}

// OverLimit reports whether a column holds more tasks than its WIP limit.
func (b *Board) OverLimit(columnID string) bool {
	column, ok := b.state.Column(columnID)
	return ok && column.OverLimit()
}

// Filter returns the active filter.
func (b *Board) Filter() board.Filter {
	return b.filter
}

// SetFilter replaces the active filter.
func (b *Board) SetFilter(f board.Filter) {
	b.filter = f
}

// ClearFilter removes the active filter.
func (b *Board) ClearFilter() {
	b.filter = board.Filter{}
}

// Visible returns the state as the host should draw it: the committed state
// narrowed by the active filter.
func (b *Board) Visible() board.State {
	return board.ApplyFilter(b.State(), b.filter)
}

// CancelKey returns the key HandleKey treats as cancel; empty when disabled.
func (b *Board) CancelKey() string {
	return b.cancelKey
}

// BlurPolicy returns how Blur treats a move in progress.
func (b *Board) BlurPolicy() BlurPolicy {
	return b.blurPolicy
}

// Interaction returns the move in progress.
func (b *Board) Interaction() interaction.Interaction {
	return b.ctrl.Current()
}

// Direction reports where the current target sits relative to the dragged
// task's slot in the visible target column.
func (b *Board) Direction() interaction.VerticalDirection {
	drag, ok := b.ctrl.Active()
	if !ok {
		return interaction.DirectionNone
	}
	return drag.Direction(b.Visible().Columns)
}

// StartDrag begins a pointer drag of taskID out of sourceColumnID.
func (b *Board) StartDrag(taskID, sourceColumnID string) bool {
	column, ok := b.state.Column(sourceColumnID)
	if !ok || column.IndexOf(taskID) < 0 {
		return false
	}
	return b.ctrl.StartDrag(taskID, sourceColumnID)
}

// UpdateTarget records the column and visible slot under the pointer. An
// empty columnID means the pointer is over no column. Set indexes are
// clamped to the visible length of the column.
func (b *Board) UpdateTarget(columnID string, index interaction.NullIndex) bool {
	if columnID != "" && index.Valid {
		column, ok := b.Visible().Column(columnID)
		if !ok {
			columnID, index = "", interaction.NullIndex{}
		} else {
			index = interaction.At(board.ClampIndex(index.Index, column.Len()))
		}
	}
	return b.ctrl.UpdateTarget(columnID, index)
}

// EndDrag commits the pointer drag to its current target and returns to
// idle. It reports whether a move was committed.
func (b *Board) EndDrag() bool {
	cur, ok := b.ctrl.Current().(interaction.PointerDragging)
	if !ok {
		return false
	}
	committed := b.commit(cur.Drag)
	b.ctrl.EndDrag()
	return committed
}

// PickUp begins a keyboard move of taskID.
func (b *Board) PickUp(taskID string) bool {
	columnID, ok := b.state.ColumnOf(taskID)
	if !ok {
		return false
	}
	return b.ctrl.PickUp(taskID, columnID)
}

// MoveKeyboard steps the keyboard target across the visible board.
func (b *Board) MoveKeyboard(dir interaction.KeyDirection) bool {
	return b.ctrl.MoveKeyboard(dir, b.Visible().Columns)
}

// Drop commits the keyboard move to its current target and returns to idle.
// A drop before any arrow key leaves the task in its slot. It reports whether
// a move was committed.
func (b *Board) Drop() bool {
	cur, ok := b.ctrl.Current().(interaction.KeyboardDragging)
	if !ok {
		return false
	}
	committed := false
	if cur.TargetIndex.Valid {
		committed = b.commit(cur.Drag)
	} else {
		b.logger.Debug("keyboard drop without a target slot", "task_id", cur.TaskID)
	}
	b.ctrl.Drop()
	return committed
}

// Cancel abandons any move in progress without touching board data.
func (b *Board) Cancel() {
	if mode := b.ctrl.Mode(); mode != interaction.ModeNone {
		b.logger.Debug("interaction cancelled", "mode", mode)
	}
	b.ctrl.Reset()
}

// Blur applies the blur policy to any move in progress.
func (b *Board) Blur() {
	if b.blurPolicy == BlurPolicyCommit {
		switch b.ctrl.Mode() {
		case interaction.ModePointer:
			b.EndDrag()
			return
		case interaction.ModeKeyboard:
			b.Drop()
			return
		}
	}
	b.Cancel()
}

// HandleKey routes a global key press. While a keyboard move is active the
// arrow keys step the target, enter commits, and the cancel key abandons.
// Otherwise space picks up focusedTaskID. It reports whether the key was
// consumed.
func (b *Board) HandleKey(key, focusedTaskID string) bool {
	if b.cancelKey != "" && key == b.cancelKey && b.ctrl.Mode() != interaction.ModeNone {
		b.Cancel()
		return true
	}
	if b.ctrl.Mode() == interaction.ModeKeyboard {
		switch key {
		case "up":
			return b.MoveKeyboard(interaction.KeyUp)
		case "down":
			return b.MoveKeyboard(interaction.KeyDown)
		case "left":
			return b.MoveKeyboard(interaction.KeyLeft)
		case "right":
			return b.MoveKeyboard(interaction.KeyRight)
		case "enter":
			b.Drop()
			return true
		}
		return false
	}
	if (key == "space" || key == " ") && focusedTaskID != "" && b.ctrl.Mode() == interaction.ModeNone {
		return b.PickUp(focusedTaskID)
	}
	return false
}

// commit translates a drag target into a full-list index and moves the task.
func (b *Board) commit(drag interaction.Drag) bool {
	if drag.TargetColumnID == "" {
		return false
	}
	source, ok := b.state.Column(drag.SourceColumnID)
	if !ok || source.IndexOf(drag.TaskID) < 0 {
		b.logger.Warn("move source no longer holds task", "task_id", drag.TaskID, "source_column_id", drag.SourceColumnID)
		return false
	}
	target, ok := b.state.Column(drag.TargetColumnID)
	if !ok {
		b.logger.Warn("move target column missing", "task_id", drag.TaskID, "target_column_id", drag.TargetColumnID)
		return false
	}

	full := withoutID(target.TaskIDs, drag.TaskID)
	index := len(full)
	if drag.TargetIndex.Valid {
		index = board.ClampIndex(drag.TargetIndex.Index, len(full))
		if !b.filter.IsZero() {
			visibleTarget, _ := b.Visible().Column(drag.TargetColumnID)
			visible := withoutID(visibleTarget.TaskIDs, drag.TaskID)
			index = board.VisibleToFullIndex(full, visible, drag.TargetIndex.Index)
		}
	}
	return b.MoveTask(drag.TaskID, drag.SourceColumnID, drag.TargetColumnID, index)
}

// MoveTask moves taskID to newIndex of toColumnID. For a move within one
// column the index addresses the list with the task removed. A move that
// leaves the task where it was is a no-op.
func (b *Board) MoveTask(taskID, fromColumnID, toColumnID string, newIndex int) bool {
	source, ok := b.state.Column(fromColumnID)
	if !ok {
		return false
	}
	pos := source.IndexOf(taskID)
	if pos < 0 {
		return false
	}
	target, ok := b.state.Column(toColumnID)
	if !ok {
		return false
	}
	length := target.Len()
	if fromColumnID == toColumnID {
		length--
	}
	newIndex = board.ClampIndex(newIndex, length)
	if fromColumnID == toColumnID && newIndex == pos {
		return false
	}

	b.state = board.Move(b.state, taskID, fromColumnID, toColumnID, newIndex)
	b.logger.Debug("task moved", "task_id", taskID, "from", fromColumnID, "to", toColumnID, "index", newIndex)
	for _, h := range b.hooks {
		if h.OnTaskMove != nil {
			h.OnTaskMove(taskID, fromColumnID, toColumnID, newIndex)
		}
	}
	b.resetIfDragging(taskID)
	return true
}

// CreateTask appends a task built from draft to columnID.
func (b *Board) CreateTask(columnID string, draft domain.Task) (domain.Task, bool) {
	if err := domain.ValidateDraft(draft); err != nil {
		b.logger.Warn("create task rejected", "column_id", columnID, "err", err)
		return domain.Task{}, false
	}
	next, task, ok := board.InsertNew(b.state, draft, columnID, b.idGen, b.clock)
	if !ok {
		b.logger.Warn("create task skipped", "column_id", columnID)
		return domain.Task{}, false
	}
	b.state = next
	b.logger.Debug("task created", "task_id", task.ID, "column_id", columnID)
	b.fireCreate(columnID, task)
	return task, true
}

// DuplicateTask appends a copy of taskID to its own column. OnTaskCreate
// fires only when duplicate notification is enabled.
func (b *Board) DuplicateTask(taskID string) (domain.Task, bool) {
	columnID, ok := b.state.ColumnOf(taskID)
	if !ok {
		return domain.Task{}, false
	}
	next, task, ok := board.Duplicate(b.state, taskID, columnID, b.idGen, b.clock)
	if !ok {
		b.logger.Warn("duplicate task skipped", "task_id", taskID)
		return domain.Task{}, false
	}
	b.state = next
	b.logger.Debug("task duplicated", "task_id", taskID, "copy_id", task.ID, "column_id", columnID)
	for _, h := range b.hooks {
		if h.OnTaskDuplicate != nil {
			h.OnTaskDuplicate(columnID, taskID, task.Clone())
		}
	}
	if b.notifyDuplicate {
		b.fireCreate(columnID, task)
	}
	return task, true
}

// UpdateTask merges patch into taskID. Column membership never changes.
func (b *Board) UpdateTask(taskID string, patch domain.TaskPatch) bool {
	if _, ok := b.state.Tasks[taskID]; !ok || patch.IsZero() {
		return false
	}
	if err := patch.Validate(); err != nil {
		b.logger.Warn("update task rejected", "task_id", taskID, "err", err)
		return false
	}
	b.state = board.Update(b.state, taskID, patch)
	b.logger.Debug("task updated", "task_id", taskID)
	for _, h := range b.hooks {
		if h.OnTaskUpdate != nil {
			h.OnTaskUpdate(taskID, patch)
		}
	}
	return true
}

// DeleteTask removes taskID from its column and the task lookup.
func (b *Board) DeleteTask(taskID string) bool {
	columnID, ok := b.state.ColumnOf(taskID)
	if !ok {
		return false
	}
	b.state = board.Remove(b.state, taskID, columnID)
	b.logger.Debug("task deleted", "task_id", taskID, "column_id", columnID)
	b.resetIfDragging(taskID)
	for _, h := range b.hooks {
		if h.OnTaskDelete != nil {
			h.OnTaskDelete(taskID)
		}
	}
	return true
}

// RenameColumn retitles a column; its tasks take the new title as status.
func (b *Board) RenameColumn(columnID, title string) bool {
	next, ok := board.RenameColumn(b.state, columnID, title)
	if !ok {
		return false
	}
	b.state = next
	b.fireColumn(columnID)
	return true
}

// SetColumnLimit changes a column's WIP limit; zero clears it.
func (b *Board) SetColumnLimit(columnID string, limit int) bool {
	next, ok := board.SetColumnLimit(b.state, columnID, limit)
	if !ok {
		return false
	}
	b.state = next
	b.fireColumn(columnID)
	return true
}

func (b *Board) fireCreate(columnID string, task domain.Task) {
	for _, h := range b.hooks {
		if h.OnTaskCreate != nil {
			h.OnTaskCreate(columnID, task.Clone())
		}
	}
}

func (b *Board) fireColumn(columnID string) {
	column, _ := b.state.Column(columnID)
	b.logger.Debug("column updated", "column_id", columnID, "title", column.Title, "max_tasks", column.MaxTasks)
	for _, h := range b.hooks {
		if h.OnColumnUpdate != nil {
			h.OnColumnUpdate(column.Clone())
		}
	}
}

func (b *Board) resetIfDragging(taskID string) {
	if drag, ok := b.ctrl.Active(); ok && drag.TaskID == taskID {
		b.ctrl.Reset()
	}
}

func withoutID(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(v string) bool {
		return v == id
	})
}
