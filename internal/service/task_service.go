package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/client"
	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/sanitize"
	"github.com/TWRT/board-sync/internal/state"
	"github.com/TWRT/board-sync/internal/validate"
)

const tasksPath = "tasks"

// minSearchLen is the shortest query that filters; shorter ones match everything.
const minSearchLen = 3

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrInvalidStatus   = errors.New("invalid task status")
)

// StatusNotifier is told about status changes of tasks with an external creator.
// It must not fail the caller.
type StatusNotifier interface {
	SendStatusChange(ctx context.Context, task models.Task, previous models.TaskStatus)
}

type TaskInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	AssignedTo  []string          `json:"assigned_to"`
	DueDate     string            `json:"due_date"`
	Prio        models.Priority   `json:"prio"`
	Category    models.Category   `json:"category"`
	Subtasks    models.Subtasks   `json:"subtasks"`
	Status      models.TaskStatus `json:"status,omitempty"`
	AIGenerated bool              `json:"ai_generated,omitempty"`
}

// Validate applies the add-task form rules. A new task may not be due in the past.
func (in TaskInput) Validate(now time.Time, isNew bool) error {
	errs := validate.Errors{}
	if !validate.MinLen(in.Name, 1) {
		errs.Add("name", validate.MsgRequired)
	}
	if in.DueDate == "" {
		errs.Add("due_date", validate.MsgRequired)
	} else if isNew && !validate.NotPast(in.DueDate, now) {
		errs.Add("due_date", validate.MsgPastDate)
	}
	if !in.Category.Valid() {
		errs.Add("category", validate.MsgRequired)
	}
	if in.Status != "" && !in.Status.Valid() {
		errs.Add("status", ErrInvalidStatus.Error())
	}
	if id, dup := in.Subtasks.DuplicateID(); dup {
		errs.Add("subtasks", fmt.Sprintf("Subtask id %d is used more than once", id))
	}
	return errs.Err()
}

// Sanitized strips markup from the free-text fields.
func (in TaskInput) Sanitized() TaskInput {
	out := in
	sanitize.Fields(&out.Name, &out.Description)
	out.Subtasks = make(models.Subtasks, len(in.Subtasks))
	for i, st := range in.Subtasks {
		st.Name = sanitize.Text(st.Name)
		out.Subtasks[i] = st
	}
	return out
}

type ColumnTasks struct {
	Column models.BoardColumn `json:"column"`
	Tasks  []models.Task      `json:"tasks"`
}

type Summary struct {
	Counts       map[models.TaskStatus]int `json:"counts"`
	Total        int                       `json:"total"`
	Urgent       int                       `json:"urgent"`
	NextDeadline string                    `json:"next_deadline,omitempty"`
}

type TaskService struct {
	store    client.DocumentStore
	notifier StatusNotifier
	logger   zerolog.Logger
	tasks    *state.Value[[]models.Task]
	kept     undecodedMembers
	now      func() time.Time

	// serializes local read-modify-write; the remote write is still last-writer-wins
	writeMu sync.Mutex
}

func NewTaskService(store client.DocumentStore, notifier StatusNotifier, logger zerolog.Logger) *TaskService {
	return &TaskService{
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("service", "tasks").Logger(),
		tasks:    state.NewValue([]models.Task{}),
		now:      time.Now,
	}
}

// Load replaces the cache with the remote collection and publishes it. A failed
// read publishes an empty board.
func (s *TaskService) Load(ctx context.Context) []models.Task {
	return s.apply(s.store.Load(ctx, tasksPath))
}

// Refresh reloads like Load but keeps the cache when the read itself fails.
func (s *TaskService) Refresh(ctx context.Context) bool {
	raw := s.store.Load(ctx, tasksPath)
	if raw == nil {
		s.logger.Warn().Msg("task collection unreadable, keeping cached board")
		return false
	}
	s.apply(raw)
	return true
}

func (s *TaskService) apply(raw json.RawMessage) []models.Task {
	tasks, undecoded := decodeCollection[models.Task](s.logger, tasksPath, raw)
	s.kept.Set(undecoded)
	s.tasks.Set(tasks)
	s.logger.Debug().
		Int("count", len(tasks)).
		Int("undecoded", len(undecoded)).
		Msg("loaded tasks")
	return tasks
}

func (s *TaskService) Tasks() []models.Task {
	return s.tasks.Get()
}

func (s *TaskService) Subscribe() (<-chan []models.Task, func()) {
	return s.tasks.Subscribe()
}

func (s *TaskService) TaskByID(id string) (models.Task, bool) {
	for _, t := range s.tasks.Get() {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func (s *TaskService) TasksByStatus(status models.TaskStatus) []models.Task {
	var out []models.Task
	for _, t := range s.tasks.Get() {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskService) GroupedByColumn() []ColumnTasks {
	out := make([]ColumnTasks, 0, len(models.BoardColumns))
	for _, col := range models.BoardColumns {
		tasks := s.TasksByStatus(col.ID)
		if tasks == nil {
			tasks = []models.Task{}
		}
		out = append(out, ColumnTasks{Column: col, Tasks: tasks})
	}
	return out
}

func (s *TaskService) Search(query string) []models.Task {
	tasks := s.tasks.Get()
	if utf8.RuneCountInString(query) < minSearchLen {
		return tasks
	}
	out := []models.Task{}
	for _, t := range tasks {
		if t.Matches(query) {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskService) Summary() Summary {
	sum := Summary{Counts: make(map[models.TaskStatus]int, len(models.BoardColumns))}
	for _, col := range models.BoardColumns {
		sum.Counts[col.ID] = 0
	}
	for _, t := range s.tasks.Get() {
		sum.Total++
		sum.Counts[t.Status]++
		if t.Prio != models.PriorityUrgent {
			continue
		}
		sum.Urgent++
		if t.DueDate != "" && (sum.NextDeadline == "" || t.DueDate < sum.NextDeadline) {
			sum.NextDeadline = t.DueDate
		}
	}
	return sum
}

// Create appends a new task. Status defaults to triage.
func (s *TaskService) Create(ctx context.Context, in TaskInput, creator *models.Creator) (models.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	status := in.Status
	if status == "" {
		status = models.StatusTriage
	}
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	task := models.Task{
		ID:          models.NewTaskID(now),
		Name:        in.Name,
		Description: in.Description,
		AssignedTo:  models.NewAssignees(in.AssignedTo...),
		DueDate:     in.DueDate,
		Prio:        in.Prio,
		Category:    in.Category,
		Subtasks:    in.Subtasks,
		Status:      status,
		Creator:     creator,
		AIGenerated: in.AIGenerated,
		CreatedAt:   models.FormatTimestamp(now),
	}

	current := s.tasks.Get()
	tasks := make([]models.Task, 0, len(current)+1)
	tasks = append(tasks, current...)
	tasks = append(tasks, task)

	if err := s.persist(ctx, tasks); err != nil {
		return models.Task{}, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Msg("created task")
	return task, nil
}

// Update replaces the task with the same id and stamps updated_at.
func (s *TaskService) Update(ctx context.Context, task models.Task) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.update(ctx, task)
}

func (s *TaskService) update(ctx context.Context, task models.Task) error {
	if !task.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, task.Status)
	}

	current := s.tasks.Get()
	idx := slices.IndexFunc(current, func(t models.Task) bool { return t.ID == task.ID })
	if idx < 0 {
		return ErrTaskNotFound
	}

	task.UpdatedAt = models.FormatTimestamp(updateStamp(s.now(), task.CreatedAt))
	tasks := slices.Clone(current)
	tasks[idx] = task

	if err := s.persist(ctx, tasks); err != nil {
		return err
	}

	s.logger.Info().Str("task_id", task.ID).Msg("updated task")
	return nil
}

// updateStamp returns now, or created_at plus one millisecond when now would
// not sort after it at the stored precision.
func updateStamp(now time.Time, createdAt string) time.Time {
	created, err := time.Parse(models.TimestampLayout, createdAt)
	if err != nil {
		if created, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return now
		}
	}
	if now.Truncate(time.Millisecond).After(created) {
		return now
	}
	return created.Add(time.Millisecond)
}

// UpdateStatus moves a task to any column. Only status and updated_at change.
// External creators are notified; a failed notification is not reported.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.writeMu.Lock()
	task, ok := s.TaskByID(id)
	if !ok {
		s.writeMu.Unlock()
		return models.Task{}, ErrTaskNotFound
	}

	previous := task.Status
	task.Status = status
	err := s.update(ctx, task)
	s.writeMu.Unlock()
	if err != nil {
		return models.Task{}, err
	}

	updated, _ := s.TaskByID(id)
	s.logger.Info().
		Str("task_id", id).
		Str("previous_status", string(previous)).
		Str("status", string(status)).
		Msg("moved task")

	if updated.Creator.IsExternal() && s.notifier != nil {
		s.notifier.SendStatusChange(ctx, updated, previous)
	}
	return updated, nil
}

// ToggleSubtask flips one subtask between open and done.
func (s *TaskService) ToggleSubtask(ctx context.Context, taskID string, subtaskID int) (models.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	task, ok := s.TaskByID(taskID)
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	idx := slices.IndexFunc(task.Subtasks, func(st models.SubTask) bool { return st.ID == subtaskID })
	if idx < 0 {
		return models.Task{}, ErrSubtaskNotFound
	}

	task.Subtasks = slices.Clone(task.Subtasks)
	if task.Subtasks[idx].Done() {
		task.Subtasks[idx].Status = 0
	} else {
		task.Subtasks[idx].Status = 1
	}

	if err := s.update(ctx, task); err != nil {
		return models.Task{}, err
	}
	updated, _ := s.TaskByID(taskID)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.tasks.Get()
	tasks := slices.DeleteFunc(slices.Clone(current), func(t models.Task) bool { return t.ID == id })
	if len(tasks) == len(current) {
		return ErrTaskNotFound
	}

	if err := s.persist(ctx, tasks); err != nil {
		return err
	}
	s.logger.Info().Str("task_id", id).Msg("deleted task")
	return nil
}

// RemoveAssignee takes name off every task and renumbers the remaining
// assignees from zero, in one collection write. It returns how many tasks changed.
func (s *TaskService) RemoveAssignee(ctx context.Context, name string) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stamp := models.FormatTimestamp(s.now())
	tasks := slices.Clone(s.tasks.Get())
	changed := 0
	for i, t := range tasks {
		assignees, removed := t.AssignedTo.Without(name)
		if !removed {
			continue
		}
		t.AssignedTo = assignees
		t.UpdatedAt = stamp
		tasks[i] = t
		changed++
	}
	if changed == 0 {
		return 0, nil
	}

	if err := s.persist(ctx, tasks); err != nil {
		return 0, err
	}
	s.logger.Info().
		Str("assignee", name).
		Int("tasks", changed).
		Msg("removed assignee from tasks")
	return changed, nil
}

// BackfillCreators sets creator on every task that has none.
func (s *TaskService) BackfillCreators(ctx context.Context, creator models.Creator) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tasks := slices.Clone(s.tasks.Get())
	changed := 0
	for i := range tasks {
		if tasks[i].Creator != nil {
			continue
		}
		c := creator
		tasks[i].Creator = &c
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, tasks); err != nil {
		return 0, err
	}
	return changed, nil
}

// Replace overwrites the remote collection with exactly tasks. Stored records
// that did not decode are dropped as well.
func (s *TaskService) Replace(ctx context.Context, tasks []models.Task) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.write(ctx, tasks, nil)
}

// persist writes tasks plus the undecodable records of the last load.
func (s *TaskService) persist(ctx context.Context, tasks []models.Task) error {
	return s.write(ctx, tasks, s.kept.Get())
}

func (s *TaskService) write(ctx context.Context, tasks []models.Task, undecoded []json.RawMessage) error {
	if s.store.Put(ctx, tasksPath, collectionDoc(tasks, undecoded)) == nil {
		s.logger.Warn().Int("count", len(tasks)).Msg("task collection write failed, cache left unchanged")
		return ErrPersistFailed
	}
	s.kept.Set(undecoded)
	s.tasks.Set(tasks)
	return nil
}
