package update

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cameronpettit/reserve-rec-api/store"
)

// Statement is a compiled update expression with its placeholder bindings.
type Statement struct {
	UpdateExpression    string
	ConditionExpression string
	Names               map[string]string
	Values              map[string]types.AttributeValue
}

// BuildStatement turns fields into an update that only applies to an existing record.
//
// Set fields overwrite, add fields become if_not_exists(f, 0) + delta, append
// fields become list_append(if_not_exists(f, []), values) and remove fields
// are removed. Every name and value is bound to a placeholder. A field name
// is one top-level attribute: dots are part of the name, not a path.
func BuildStatement(fields []Field) (Statement, error) {
	if len(fields) == 0 {
		return Statement{}, ErrNoActions
	}

	var ub expression.UpdateBuilder
	for _, f := range fields {
		name := expression.NameNoDotSplit(f.Name)
		switch f.Action {
		case ActionSet:
			ub = ub.Set(name, expression.Value(f.Value))
		case ActionAdd:
			ub = ub.Set(name, expression.Plus(
				expression.IfNotExists(name, expression.Value(0)),
				expression.Value(f.Value),
			))
		case ActionAppend:
			ub = ub.Set(name, expression.ListAppend(
				expression.IfNotExists(name, expression.Value([]any{})),
				expression.Value(f.Value),
			))
		case ActionRemove:
			ub = ub.Remove(name)
		default:
			return Statement{}, fmt.Errorf("field %q: unknown action %q", f.Name, f.Action)
		}
	}

	expr, err := expression.NewBuilder().
		WithUpdate(ub).
		WithCondition(store.ItemExistsCondition()).
		Build()
	if err != nil {
		return Statement{}, fmt.Errorf("build update expression: %w", err)
	}

	return Statement{
		UpdateExpression:    *expr.Update(),
		ConditionExpression: *expr.Condition(),
		Names:               expr.Names(),
		Values:              expr.Values(),
	}, nil
}
