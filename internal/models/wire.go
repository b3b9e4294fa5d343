package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// The document store keeps no list-vs-object typing: empty lists come back as
// missing or "", and lists with gaps come back as numeric-keyed objects. The
// codecs below accept every shape the store has been seen to return and
// always write the canonical one.

var emptyString = []byte(`""`)

func isEmptyValue(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, emptyString)
}

func (p Priority) MarshalJSON() ([]byte, error) {
	if p == PriorityNone {
		return emptyString, nil
	}
	return strconv.AppendInt(nil, int64(p), 10), nil
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	if isEmptyValue(b) {
		*p = PriorityNone
		return nil
	}
	raw := bytes.Trim(bytes.TrimSpace(b), `"`)
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("parse priority %s: %w", b, err)
	}
	if n < int(PriorityNone) || n > int(PriorityUrgent) {
		return fmt.Errorf("priority out of range: %d", n)
	}
	*p = Priority(n)
	return nil
}

// Assignees maps an arbitrary key to a contact name.
type Assignees map[string]string

func (a Assignees) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return emptyString, nil
	}
	return json.Marshal(map[string]string(a))
}

func (a *Assignees) UnmarshalJSON(b []byte) error {
	if isEmptyValue(b) {
		*a = nil
		return nil
	}

	switch bytes.TrimSpace(b)[0] {
	case '[':
		var list []*string
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("parse assignee list: %w", err)
		}
		out := make(Assignees, len(list))
		for i, name := range list {
			if name != nil {
				out[strconv.Itoa(i)] = *name
			}
		}
		*a = out
	case '{':
		var keyed map[string]*string
		if err := json.Unmarshal(b, &keyed); err != nil {
			return fmt.Errorf("parse assignee map: %w", err)
		}
		out := make(Assignees, len(keyed))
		for k, name := range keyed {
			if name != nil {
				out[k] = *name
			}
		}
		*a = out
	default:
		return fmt.Errorf("unexpected assignee value: %s", b)
	}
	return nil
}

// Names returns the assigned names in key order.
func (a Assignees) Names() []string {
	names := make([]string, 0, len(a))
	for _, k := range OrderedKeys(a) {
		names = append(names, a[k])
	}
	return names
}

// Without drops every entry equal to name and renumbers the rest from "0".
// The second result is false when name was not assigned.
func (a Assignees) Without(name string) (Assignees, bool) {
	if !slices.Contains(a.Names(), name) {
		return a, false
	}
	out := make(Assignees, len(a))
	i := 0
	for _, n := range a.Names() {
		if n == name {
			continue
		}
		out[strconv.Itoa(i)] = n
		i++
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}

// NewAssignees keys names by their position.
func NewAssignees(names ...string) Assignees {
	if len(names) == 0 {
		return nil
	}
	out := make(Assignees, len(names))
	for i, n := range names {
		out[strconv.Itoa(i)] = n
	}
	return out
}

type Subtasks []SubTask

func (s Subtasks) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return emptyString, nil
	}
	return json.Marshal([]SubTask(s))
}

func (s *Subtasks) UnmarshalJSON(b []byte) error {
	if isEmptyValue(b) {
		*s = nil
		return nil
	}

	var members []*SubTask
	switch bytes.TrimSpace(b)[0] {
	case '[':
		if err := json.Unmarshal(b, &members); err != nil {
			return fmt.Errorf("parse subtask list: %w", err)
		}
	case '{':
		var keyed map[string]*SubTask
		if err := json.Unmarshal(b, &keyed); err != nil {
			return fmt.Errorf("parse subtask map: %w", err)
		}
		for _, k := range OrderedKeys(keyed) {
			members = append(members, keyed[k])
		}
	default:
		return fmt.Errorf("unexpected subtasks value: %s", b)
	}

	out := make(Subtasks, 0, len(members))
	for _, st := range members {
		if st != nil {
			out = append(out, *st)
		}
	}
	*s = out
	return nil
}

// NextID returns one past the highest subtask id.
func (s Subtasks) NextID() int {
	next := 0
	for _, st := range s {
		if st.ID >= next {
			next = st.ID + 1
		}
	}
	return next
}

// DuplicateID reports the first id used by more than one subtask.
func (s Subtasks) DuplicateID() (int, bool) {
	seen := make(map[int]bool, len(s))
	for _, st := range s {
		if seen[st.ID] {
			return st.ID, true
		}
		seen[st.ID] = true
	}
	return 0, false
}

// OrderedKeys sorts integer keys numerically ahead of all other keys, which
// sort lexically. This is the order the store hands back array-like objects in.
func OrderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

func compareKeys(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai - bi
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
