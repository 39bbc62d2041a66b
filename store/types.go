package store

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key attribute names of the table's composite primary key.
const (
	PartitionKeyAttr = "pk"
	SortKeyAttr      = "sk"
)

// Key is the composite primary key of a record.
type Key struct {
	PK string `json:"pk"`
	SK string `json:"sk"`
}

// IsZero reports whether either half of the key is missing.
func (k Key) IsZero() bool {
	return k.PK == "" || k.SK == ""
}

// AttributeValues returns the key in DynamoDB form.
func (k Key) AttributeValues() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKeyAttr: &types.AttributeValueMemberS{Value: k.PK},
		SortKeyAttr:      &types.AttributeValueMemberS{Value: k.SK},
	}
}

// Record is an unmarshalled DynamoDB item.
type Record map[string]any

// QueryInput defines a key-condition read.
type QueryInput struct {
	// IndexName is the optional GSI/LSI to query.
	IndexName string

	// KeyConditionExpression is the DynamoDB key condition.
	KeyConditionExpression string

	// FilterExpression is an optional post-read filter.
	FilterExpression string

	// ExpressionAttributeNames maps expression attribute name placeholders.
	ExpressionAttributeNames map[string]string

	// ExpressionAttributeValues maps expression attribute value placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue

	// ScanIndexForward determines sort order (true = ascending, false = descending).
	ScanIndexForward *bool
}

// ScanInput defines a full-table traversal.
type ScanInput struct {
	IndexName                 string
	FilterExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue
}

// PageOptions controls pagination of Query and Scan.
type PageOptions struct {
	// Limit is the maximum number of items evaluated for a single page (0 = store default).
	// Ignored when FetchAll is set.
	Limit int32

	// StartKey resumes reading after a previously returned LastEvaluatedKey.
	StartKey map[string]types.AttributeValue

	// FetchAll reads every remaining page and returns them as one result
	// with no LastEvaluatedKey.
	FetchAll bool
}

// Page is the result of a Query or Scan.
type Page struct {
	Items []Record

	// LastEvaluatedKey resumes the read; nil once the read is exhausted.
	LastEvaluatedKey map[string]types.AttributeValue
}

// Action selects the kind of write an Operation performs inside a transaction.
type Action string

const (
	ActionPut       Action = "Put"
	ActionUpdate    Action = "Update"
	ActionDelete    Action = "Delete"
	ActionCondition Action = "ConditionExpression"
)

// Operation is a compiled, store-native write destined for a transaction.
// Only the statement matching the effective action is used.
type Operation struct {
	// Action overrides the executor's default action when set.
	Action Action

	Put            *types.Put
	Update         *types.Update
	Delete         *types.Delete
	ConditionCheck *types.ConditionCheck
}

// TransactItem converts the operation to a transaction item, using
// defaultAction when the operation carries no action of its own.
func (op Operation) TransactItem(defaultAction Action) (types.TransactWriteItem, error) {
	action := op.Action
	if action == "" {
		action = defaultAction
	}
	if action == "" {
		action = ActionPut
	}

	switch action {
	case ActionPut:
		if op.Put == nil {
			return types.TransactWriteItem{}, ErrMissingStatement
		}
		return types.TransactWriteItem{Put: op.Put}, nil
	case ActionUpdate:
		if op.Update == nil {
			return types.TransactWriteItem{}, ErrMissingStatement
		}
		return types.TransactWriteItem{Update: op.Update}, nil
	case ActionDelete:
		if op.Delete == nil {
			return types.TransactWriteItem{}, ErrMissingStatement
		}
		return types.TransactWriteItem{Delete: op.Delete}, nil
	case ActionCondition:
		if op.ConditionCheck == nil {
			return types.TransactWriteItem{}, ErrMissingStatement
		}
		return types.TransactWriteItem{ConditionCheck: op.ConditionCheck}, nil
	default:
		return types.TransactWriteItem{}, ErrUnknownAction
	}
}
