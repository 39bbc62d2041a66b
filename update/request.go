package update

import (
	"maps"
	"slices"
	"sort"

	"github.com/cameronpettit/reserve-rec-api/store"
)

// Request is one record's declarative mutation.
type Request struct {
	Key    store.Key      `json:"key"`
	Set    map[string]any `json:"set,omitempty"`
	Remove []string       `json:"remove,omitempty"`
	Add    map[string]any `json:"add,omitempty"`
	Append map[string]any `json:"append,omitempty"`
}

// Field is a single (name, action, value) entry of a request.
// Remove fields carry no value.
type Field struct {
	Name   string
	Action Action
	Value  any
}

// clone copies the request's maps so injection never touches the caller's request.
func (r Request) clone() Request {
	return Request{
		Key:    r.Key,
		Set:    maps.Clone(r.Set),
		Remove: slices.Clone(r.Remove),
		Add:    maps.Clone(r.Add),
		Append: maps.Clone(r.Append),
	}
}

// Names returns the field names used by action, sorted (remove keeps request order).
func (r Request) Names(action Action) []string {
	switch action {
	case ActionSet:
		return sortedKeys(r.Set)
	case ActionAdd:
		return sortedKeys(r.Add)
	case ActionAppend:
		return sortedKeys(r.Append)
	case ActionRemove:
		return r.Remove
	}
	return nil
}

// Fields flattens the request into statement order: set, add, append, remove.
func (r Request) Fields() []Field {
	var fields []Field
	for _, name := range sortedKeys(r.Set) {
		fields = append(fields, Field{Name: name, Action: ActionSet, Value: r.Set[name]})
	}
	for _, name := range sortedKeys(r.Add) {
		fields = append(fields, Field{Name: name, Action: ActionAdd, Value: r.Add[name]})
	}
	for _, name := range sortedKeys(r.Append) {
		fields = append(fields, Field{Name: name, Action: ActionAppend, Value: r.Append[name]})
	}
	for _, name := range r.Remove {
		fields = append(fields, Field{Name: name, Action: ActionRemove})
	}
	return fields
}

func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
