package store

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ItemExistsCondition requires the record's partition key to already exist.
// Updates carry it so they never create records implicitly.
func ItemExistsCondition() expression.ConditionBuilder {
	return expression.AttributeExists(expression.Name(PartitionKeyAttr))
}

// ItemNotExistsCondition requires that no record exists under the written key.
func ItemNotExistsCondition() expression.ConditionBuilder {
	return expression.AttributeNotExists(expression.Name(PartitionKeyAttr)).
		And(expression.AttributeNotExists(expression.Name(SortKeyAttr)))
}

// NewPut builds a put of item that only succeeds if the record doesn't exist yet.
func NewPut(table string, item any) (*types.Put, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	if _, ok := av[PartitionKeyAttr]; !ok {
		return nil, fmt.Errorf("marshal item: missing %q attribute", PartitionKeyAttr)
	}
	if _, ok := av[SortKeyAttr]; !ok {
		return nil, fmt.Errorf("marshal item: missing %q attribute", SortKeyAttr)
	}

	expr, err := expression.NewBuilder().WithCondition(ItemNotExistsCondition()).Build()
	if err != nil {
		return nil, fmt.Errorf("build condition: %w", err)
	}

	return &types.Put{
		TableName:                aws.String(table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}, nil
}

// nonEmptyNames returns nil for an empty map; DynamoDB rejects empty placeholder maps.
func nonEmptyNames(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

// nonEmptyValues returns nil for an empty map; DynamoDB rejects empty placeholder maps.
func nonEmptyValues(m map[string]types.AttributeValue) map[string]types.AttributeValue {
	if len(m) == 0 {
		return nil
	}
	return m
}
