package update

import (
	"reflect"
	"strings"
)

// rules is a Policy resolved once into lookup tables.
type rules struct {
	whitelist fieldSet
	blacklist fieldSet
	mandatory map[Action][]string
}

func newRules(p Policy) rules {
	return rules{
		whitelist: p.WhitelistFields.resolve(),
		blacklist: p.BlacklistFields.resolve(),
		mandatory: p.MandatoryFields,
	}
}

// validate checks key, field names, whitelist, blacklist, duplicates, mandatory fields
// and value types, in that order.
func (r rules) validate(req Request) error {
	if req.Key.IsZero() {
		return invalid(ErrMalformedKey, "Malformed item key",
			"item key must be of the form {pk: <partition-key>, sk: <sort-key>}, got %+v", req.Key)
	}

	used := map[Action][]string{}
	total := 0
	for _, action := range Actions {
		if names := req.Names(action); len(names) > 0 {
			used[action] = names
			total += len(names)
		}
	}
	if total == 0 {
		return invalid(ErrNoActions, "Malformed request", "no fields to update")
	}

	for _, action := range Actions {
		for _, field := range used[action] {
			if !validName(field) {
				return invalid(ErrInvalidFieldName, "Malformed request",
					"field name %q is not a valid attribute name (%s)", field, action)
			}
		}
	}

	if r.whitelist != nil {
		for _, action := range Actions {
			for _, field := range used[action] {
				if !r.whitelist[action][field] {
					return invalid(ErrFieldNotPermitted, "Malformed request",
						"updating field '%s' is not permitted (%s)", field, action)
				}
			}
		}
	}

	if r.blacklist != nil {
		for _, action := range Actions {
			for _, field := range used[action] {
				if r.blacklist[action][field] {
					return invalid(ErrFieldNotPermitted, "Malformed request",
						"updating field '%s' is not permitted (%s)", field, action)
				}
			}
		}
	}

	seen := make(map[string]Action, total)
	for _, action := range Actions {
		for _, field := range used[action] {
			if first, dup := seen[field]; dup {
				return invalid(ErrDuplicateField, "Malformed request: duplicate fields detected",
					"field '%s' is present in both %s and %s", field, first, action)
			}
			seen[field] = action
		}
	}

	for _, action := range Actions {
		if len(used[action]) == 0 {
			continue
		}
		for _, field := range r.mandatory[action] {
			if seen[field] != action {
				return invalid(ErrMissingMandatoryField, "Malformed request: missing mandatory fields",
					"field '%s' was expected in action %s", field, action)
			}
		}
	}

	for _, field := range used[ActionAdd] {
		if !isNumber(req.Add[field]) {
			return invalid(ErrInvalidFieldType, "Malformed request: invalid field type in 'add' action list",
				"field '%s' must be a number", field)
		}
	}
	for _, field := range used[ActionAppend] {
		if !isList(req.Append[field]) {
			return invalid(ErrInvalidFieldType, "Malformed request: invalid field type in 'append' action list",
				"field '%s' must be an array", field)
		}
	}
	return nil
}

// validName rejects names that can't be bound to a single attribute.
// Brackets would be read as a list index.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "[]")
}

func isNumber(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isList accepts slices and arrays; []byte is binary, not a list.
func isList(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8
	}
	return false
}
