package models

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout matches the millisecond ISO strings the board has always stored.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DueDateLayout is the calendar format of Task.DueDate.
const DueDateLayout = "2006-01-02"

type TaskStatus string

const (
	StatusTriage        TaskStatus = "triage"
	StatusToDo          TaskStatus = "to-do"
	StatusInProgress    TaskStatus = "in-progress"
	StatusAwaitFeedback TaskStatus = "await-feedback"
	StatusDone          TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTriage, StatusToDo, StatusInProgress, StatusAwaitFeedback, StatusDone:
		return true
	}
	return false
}

type BoardColumn struct {
	ID    TaskStatus `json:"id"`
	Label string     `json:"label"`
}

// BoardColumns lists the board in display order. Tasks may move between any two columns.
var BoardColumns = []BoardColumn{
	{ID: StatusTriage, Label: "Triage"},
	{ID: StatusToDo, Label: "To do"},
	{ID: StatusInProgress, Label: "In progress"},
	{ID: StatusAwaitFeedback, Label: "Await feedback"},
	{ID: StatusDone, Label: "Done"},
}

type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityUrgent
)

func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityUrgent:
		return "Urgent"
	}
	return ""
}

type Category string

const (
	CategoryUserStory     Category = "us"
	CategoryTechnicalTask Category = "tt"
)

func (c Category) Valid() bool {
	return c == CategoryUserStory || c == CategoryTechnicalTask
}

func (c Category) Label() string {
	if c == CategoryUserStory {
		return "User Story"
	}
	return "Technical Task"
}

type CreatorType string

const (
	CreatorInternal CreatorType = "internal"
	CreatorExternal CreatorType = "external"
)

type Creator struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Type  CreatorType `json:"type"`
}

// IsExternal reports whether status changes of the creator's tasks are mailed out.
func (c *Creator) IsExternal() bool {
	return c != nil && c.Type == CreatorExternal
}

type SubTask struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status int    `json:"status"`
}

func (s SubTask) Done() bool {
	return s.Status == 1
}

type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	AssignedTo  Assignees  `json:"assigned_to"`
	DueDate     string     `json:"due_date"`
	Prio        Priority   `json:"prio"`
	Category    Category   `json:"category"`
	Subtasks    Subtasks   `json:"subtasks"`
	Status      TaskStatus `json:"status"`
	Creator     *Creator   `json:"creator,omitempty"`
	AIGenerated bool       `json:"ai_generated,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	UpdatedAt   string     `json:"updated_at,omitempty"`
}

// Matches reports whether name or description contains query, ignoring case.
func (t Task) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewTaskID returns "<unix millis base36>-<9 random base36 chars>".
func NewTaskID(now time.Time) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	b.WriteByte('-')
	for range 9 {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}
