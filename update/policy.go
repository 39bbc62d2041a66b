package update

import (
	"encoding/json"
	"fmt"
)

// Action is one of the field-level mutation kinds of a Request.
type Action string

const (
	ActionSet    Action = "set"
	ActionRemove Action = "remove"
	ActionAdd    Action = "add"
	ActionAppend Action = "append"
)

// ScopeAll is the per-action restriction key whose fields apply to every action.
const ScopeAll Action = "all"

// Actions lists every action in statement order.
var Actions = []Action{ActionSet, ActionAdd, ActionAppend, ActionRemove}

// FieldRestriction lists fields either for all actions at once or per action.
//
// In JSON it is written as a flat array (all actions) or as an object keyed by
// action, optionally with an "all" entry that applies to every action.
type FieldRestriction struct {
	all       []string
	perAction map[Action][]string
}

// AllActions restricts the same fields for every action.
func AllActions(fields ...string) *FieldRestriction {
	return &FieldRestriction{all: fields}
}

// PerAction restricts fields per action. A ScopeAll entry is added to every action.
func PerAction(fields map[Action][]string) *FieldRestriction {
	return &FieldRestriction{perAction: fields}
}

// fieldSet is a resolved restriction: action -> field -> present.
type fieldSet map[Action]map[string]bool

// resolve builds the per-action lookup table for r.
func (r *FieldRestriction) resolve() fieldSet {
	if r == nil {
		return nil
	}
	set := make(fieldSet, len(Actions))
	for _, action := range Actions {
		fields := map[string]bool{}
		if r.perAction == nil {
			for _, f := range r.all {
				fields[f] = true
			}
		} else {
			for _, f := range r.perAction[action] {
				fields[f] = true
			}
			for _, f := range r.perAction[ScopeAll] {
				fields[f] = true
			}
		}
		set[action] = fields
	}
	return set
}

// UnmarshalJSON accepts either a JSON array or an object keyed by action.
func (r *FieldRestriction) UnmarshalJSON(data []byte) error {
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		*r = FieldRestriction{all: flat}
		return nil
	}

	var grouped map[Action][]string
	if err := json.Unmarshal(data, &grouped); err != nil {
		return fmt.Errorf("field restriction must be an array or an object of arrays: %w", err)
	}
	for action := range grouped {
		if !action.valid() && action != ScopeAll {
			return fmt.Errorf("field restriction: unknown action %q", action)
		}
	}
	*r = FieldRestriction{perAction: grouped}
	return nil
}

// MarshalJSON writes the restriction in the form it was declared.
func (r FieldRestriction) MarshalJSON() ([]byte, error) {
	if r.perAction != nil {
		return json.Marshal(r.perAction)
	}
	if r.all == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.all)
}

func (a Action) valid() bool {
	switch a {
	case ActionSet, ActionRemove, ActionAdd, ActionAppend:
		return true
	}
	return false
}

// Policy governs which fields a data domain lets callers change and how.
// A nil restriction or empty mandatory map skips that check.
type Policy struct {
	// AutoTimestamp sets lastUpdated to the current time on every request.
	AutoTimestamp bool `json:"autoTimestamp,omitempty"`

	// AutoVersion increments version by one on every request.
	AutoVersion bool `json:"autoVersion,omitempty"`

	WhitelistFields *FieldRestriction   `json:"whitelistFields,omitempty"`
	BlacklistFields *FieldRestriction   `json:"blackListFields,omitempty"`
	MandatoryFields map[Action][]string `json:"mandatoryFields,omitempty"`

	// FailOnError makes the first invalid request abort the whole batch.
	// When false, invalid requests are skipped.
	FailOnError bool `json:"failOnError,omitempty"`
}

// DefaultPolicy is used for domains that register nothing more specific.
var DefaultPolicy = Policy{FailOnError: true}
