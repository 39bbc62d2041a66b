// Package ddbtest provides an in-memory stand-in for the DynamoDB client used in tests.
//
// The fake understands exactly what the store issues: key lookups, equality
// key conditions on the partition key, paginated scans, puts guarded by
// attribute_not_exists, batch puts and transactions. Update expressions are
// recorded but not evaluated.
package ddbtest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultPageSize is the number of items a Query or Scan page holds when no Limit is set.
const DefaultPageSize = 1000

// Fake is an in-memory DynamoDB client. The zero value is not usable; use New.
type Fake struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	// PageSize caps page length when a request has no Limit.
	PageSize int

	// GetErr, QueryErr and ScanErr, when set, are returned by the matching call.
	GetErr   error
	QueryErr error
	ScanErr  error

	// FailTransactAt makes the n-th TransactWriteItems call (1-based) fail with
	// a cancelled transaction. Zero disables it.
	FailTransactAt int

	// FailBatchWriteAt makes the n-th BatchWriteItem call (1-based) fail.
	FailBatchWriteAt int

	// UnprocessedPerBatch leaves the last n put requests of every
	// BatchWriteItem call unwritten and returns them as unprocessed.
	UnprocessedPerBatch int

	// Recorded calls, in order.
	GetInputs        []*dynamodb.GetItemInput
	QueryInputs      []*dynamodb.QueryInput
	ScanInputs       []*dynamodb.ScanInput
	PutInputs        []*dynamodb.PutItemInput
	BatchWriteInputs []*dynamodb.BatchWriteItemInput
	TransactInputs   []*dynamodb.TransactWriteItemsInput
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		tables:   make(map[string]map[string]map[string]types.AttributeValue),
		PageSize: DefaultPageSize,
	}
}

// ErrInjected is the cause of every failure injected by the Fake.
var ErrInjected = errors.New("ddbtest: injected failure")

// Seed stores item in table without any condition.
func (f *Fake) Seed(table string, item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table(table)[itemKey(item)] = item
}

// Item returns the stored item for (pk, sk), or nil.
func (f *Fake) Item(table, pk, sk string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.table(table)[pk+"\x00"+sk]
}

// Len returns the number of items in table.
func (f *Fake) Len(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.table(table))
}

func (f *Fake) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		f.tables[name] = t
	}
	return t
}

func avString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}

func itemKey(item map[string]types.AttributeValue) string {
	return avString(item["pk"]) + "\x00" + avString(item["sk"])
}

func conditionalCheckFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

// GetItem implements store.Client.
func (f *Fake) GetItem(_ context.Context, p *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetInputs = append(f.GetInputs, p)
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	return &dynamodb.GetItemOutput{Item: f.table(aws.ToString(p.TableName))[itemKey(p.Key)]}, nil
}

// PutItem implements store.Client. Any attribute_not_exists condition is honoured.
func (f *Fake) PutItem(_ context.Context, p *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutInputs = append(f.PutInputs, p)
	if err := f.put(aws.ToString(p.TableName), p.Item, aws.ToString(p.ConditionExpression)); err != nil {
		return nil, err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) put(table string, item map[string]types.AttributeValue, condition string) error {
	t := f.table(table)
	if _, exists := t[itemKey(item)]; exists && strings.Contains(condition, "attribute_not_exists") {
		return conditionalCheckFailed()
	}
	t[itemKey(item)] = item
	return nil
}

// Query implements store.Client for equality key conditions on the partition key.
func (f *Fake) Query(_ context.Context, p *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryInputs = append(f.QueryInputs, p)
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}

	var pk string
	for placeholder, v := range p.ExpressionAttributeValues {
		if strings.Contains(aws.ToString(p.KeyConditionExpression), placeholder) {
			pk = avString(v)
		}
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(p.TableName)) {
		if avString(item["pk"]) == pk {
			matched = append(matched, item)
		}
	}
	items, last := f.paginate(matched, p.ExclusiveStartKey, p.Limit)
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

// Scan implements store.Client over every item of the table.
func (f *Fake) Scan(_ context.Context, p *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ScanInputs = append(f.ScanInputs, p)
	if f.ScanErr != nil {
		return nil, f.ScanErr
	}

	var all []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(p.TableName)) {
		all = append(all, item)
	}
	items, last := f.paginate(all, p.ExclusiveStartKey, p.Limit)
	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

// paginate orders items by key and returns the page following startKey.
func (f *Fake) paginate(items []map[string]types.AttributeValue, startKey map[string]types.AttributeValue, limit *int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	sort.Slice(items, func(i, j int) bool { return itemKey(items[i]) < itemKey(items[j]) })

	start := 0
	if len(startKey) > 0 {
		after := itemKey(startKey)
		for start < len(items) && itemKey(items[start]) <= after {
			start++
		}
	}

	size := f.PageSize
	if limit != nil && *limit > 0 {
		size = int(*limit)
	}
	end := start + size
	if end >= len(items) {
		return items[start:], nil
	}

	page := items[start:end]
	lastItem := page[len(page)-1]
	return page, map[string]types.AttributeValue{
		"pk": lastItem["pk"],
		"sk": lastItem["sk"],
	}
}

// BatchWriteItem implements store.Client for put requests.
func (f *Fake) BatchWriteItem(_ context.Context, p *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchWriteInputs = append(f.BatchWriteInputs, p)
	if f.FailBatchWriteAt == len(f.BatchWriteInputs) {
		return nil, ErrInjected
	}
	out := &dynamodb.BatchWriteItemOutput{}
	for table, requests := range p.RequestItems {
		if n := min(f.UnprocessedPerBatch, len(requests)); n > 0 {
			if out.UnprocessedItems == nil {
				out.UnprocessedItems = map[string][]types.WriteRequest{}
			}
			out.UnprocessedItems[table] = requests[len(requests)-n:]
			requests = requests[:len(requests)-n]
		}
		for _, r := range requests {
			if r.PutRequest != nil {
				f.table(table)[itemKey(r.PutRequest.Item)] = r.PutRequest.Item
			}
		}
	}
	return out, nil
}

// TransactWriteItems implements store.Client. Puts and deletes are applied
// when the whole transaction succeeds; updates are only recorded.
func (f *Fake) TransactWriteItems(_ context.Context, p *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TransactInputs = append(f.TransactInputs, p)

	if f.FailTransactAt == len(f.TransactInputs) {
		reasons := make([]types.CancellationReason, len(p.TransactItems))
		for i := range reasons {
			reasons[i] = types.CancellationReason{Code: aws.String("None")}
		}
		if len(reasons) > 0 {
			reasons[0] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
		}
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, item := range p.TransactItems {
		if item.Put != nil {
			if _, exists := f.table(aws.ToString(item.Put.TableName))[itemKey(item.Put.Item)]; exists &&
				strings.Contains(aws.ToString(item.Put.ConditionExpression), "attribute_not_exists") {
				return nil, &types.TransactionCanceledException{
					Message:             aws.String("Transaction cancelled"),
					CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}},
				}
			}
		}
	}
	for _, item := range p.TransactItems {
		switch {
		case item.Put != nil:
			f.table(aws.ToString(item.Put.TableName))[itemKey(item.Put.Item)] = item.Put.Item
		case item.Delete != nil:
			delete(f.table(aws.ToString(item.Delete.TableName)), itemKey(item.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// TransactSizes returns the item count of every recorded transaction, in order.
func (f *Fake) TransactSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, len(f.TransactInputs))
	for i, in := range f.TransactInputs {
		sizes[i] = len(in.TransactItems)
	}
	return sizes
}
