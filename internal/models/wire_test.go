package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskDecodesStoreShapes(t *testing.T) {
	raw := `{
		"id": "abc",
		"name": "Ship",
		"description": "",
		"assigned_to": ["Anna", null, "Ben"],
		"due_date": "2030-01-01",
		"prio": "",
		"category": "tt",
		"subtasks": {"10": {"id": 10, "name": "ten", "status": 1}, "2": {"id": 2, "name": "two", "status": 0}, "3": null},
		"status": "to-do"
	}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))

	assert.Equal(t, PriorityNone, task.Prio)
	assert.Equal(t, Assignees{"0": "Anna", "2": "Ben"}, task.AssignedTo)
	assert.Equal(t, []string{"Anna", "Ben"}, task.AssignedTo.Names())

	want := Subtasks{
		{ID: 2, Name: "two", Status: 0},
		{ID: 10, Name: "ten", Status: 1},
	}
	if diff := cmp.Diff(want, task.Subtasks); diff != "" {
		t.Errorf("subtasks mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 11, task.Subtasks.NextID())
}

func TestSubtasksDuplicateID(t *testing.T) {
	_, dup := Subtasks{{ID: 0}, {ID: 1}}.DuplicateID()
	assert.False(t, dup)

	id, dup := Subtasks{{ID: 3}, {ID: 1}, {ID: 3}}.DuplicateID()
	assert.True(t, dup)
	assert.Equal(t, 3, id)
}

func TestTaskEncodesEmptyCollectionsAsEmptyString(t *testing.T) {
	task := Task{ID: "x", Name: "n", Category: CategoryUserStory, Status: StatusTriage}

	b, err := json.Marshal(task)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Equal(t, "", fields["assigned_to"])
	assert.Equal(t, "", fields["subtasks"])
	assert.Equal(t, "", fields["prio"])
	assert.NotContains(t, fields, "creator")
	assert.NotContains(t, fields, "updated_at")
}

func TestPriorityUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: `""`, want: PriorityNone},
		{in: `null`, want: PriorityNone},
		{in: `1`, want: PriorityLow},
		{in: `"3"`, want: PriorityUrgent},
		{in: `4`, wantErr: true},
		{in: `"high"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p Priority
			err := json.Unmarshal([]byte(tt.in), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestAssigneesWithout(t *testing.T) {
	a := Assignees{"u1": "Anna", "u2": "Ben", "u3": "Cara"}

	got, removed := a.Without("Ben")
	assert.True(t, removed)
	assert.Equal(t, Assignees{"0": "Anna", "1": "Cara"}, got)

	same, removed := a.Without("Dora")
	assert.False(t, removed)
	assert.Equal(t, a, same)

	last, removed := Assignees{"0": "Anna"}.Without("Anna")
	assert.True(t, removed)
	assert.Nil(t, last)
}

func TestOrderedKeys(t *testing.T) {
	m := map[string]int{"b": 0, "10": 0, "a": 0, "2": 0, "-Nabc": 0}
	assert.Equal(t, []string{"2", "10", "-Nabc", "a", "b"}, OrderedKeys(m))
}

func TestNewTaskID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := NewTaskID(now)

	assert.Regexp(t, `^[0-9a-z]+-[0-9a-z]{9}$`, id)
	assert.NotEqual(t, id, NewTaskID(now))
}

func TestCreatorIsExternal(t *testing.T) {
	var none *Creator
	assert.False(t, none.IsExternal())
	assert.False(t, (&Creator{Type: CreatorInternal}).IsExternal())
	assert.True(t, (&Creator{Type: CreatorExternal}).IsExternal())
}
