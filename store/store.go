package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cameronpettit/reserve-rec-api/internal/chunk"
	"github.com/cameronpettit/reserve-rec-api/internal/metrics"
)

// Store provides record reads, conditional writes and chunked transactions
// against a single DynamoDB table.
type Store struct {
	client Client
	config Config
	logger *slog.Logger
}

// New creates a new Store instance.
func New(client Client, config Config, logger *slog.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		config: config,
		logger: logger,
	}
}

// TableName returns the table every statement built for this store targets.
func (s *Store) TableName() string {
	return s.config.TableName
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// GetOne returns the record stored under (pk, sk).
// A missing record is not an error: GetOne returns a nil Record and nil error.
func (s *Store) GetOne(ctx context.Context, pk, sk string) (Record, error) {
	s.logger.Info("get item", "pk", pk, "sk", sk)

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       Key{PK: pk, SK: sk}.AttributeValues(),
	})
	if err != nil {
		return nil, newStoreError("GetItem", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return rec, nil
}

// Query reads records matching a key condition.
// By default a single page is returned together with its LastEvaluatedKey;
// with opts.FetchAll every page is read and Limit is ignored.
func (s *Store) Query(ctx context.Context, input QueryInput, opts PageOptions) (*Page, error) {
	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		KeyConditionExpression:    aws.String(input.KeyConditionExpression),
		ExpressionAttributeNames:  nonEmptyNames(input.ExpressionAttributeNames),
		ExpressionAttributeValues: nonEmptyValues(input.ExpressionAttributeValues),
		ScanIndexForward:          input.ScanIndexForward,
		ExclusiveStartKey:         opts.StartKey,
	}
	if input.IndexName != "" {
		queryInput.IndexName = aws.String(input.IndexName)
	}
	if input.FilterExpression != "" {
		queryInput.FilterExpression = aws.String(input.FilterExpression)
	}

	if !opts.FetchAll {
		if opts.Limit > 0 {
			queryInput.Limit = aws.Int32(opts.Limit)
		}
		out, err := s.client.Query(ctx, queryInput)
		if err != nil {
			return nil, newStoreError("Query", err)
		}
		metrics.ReadPages.WithLabelValues("query").Inc()
		return s.page("query", 1, out.Items, out.LastEvaluatedKey)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
	raw, pages, err := drain(ctx, "query", paginator, func(out *dynamodb.QueryOutput) []map[string]types.AttributeValue {
		return out.Items
	})
	if err != nil {
		return nil, newStoreError("Query", err)
	}
	return s.page("query", pages, raw, nil)
}

// Scan reads the whole table (or index) with the same pagination contract as Query.
func (s *Store) Scan(ctx context.Context, input ScanInput, opts PageOptions) (*Page, error) {
	scanInput := &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.TableName),
		ExpressionAttributeNames:  nonEmptyNames(input.ExpressionAttributeNames),
		ExpressionAttributeValues: nonEmptyValues(input.ExpressionAttributeValues),
		ExclusiveStartKey:         opts.StartKey,
	}
	if input.IndexName != "" {
		scanInput.IndexName = aws.String(input.IndexName)
	}
	if input.FilterExpression != "" {
		scanInput.FilterExpression = aws.String(input.FilterExpression)
	}

	if !opts.FetchAll {
		if opts.Limit > 0 {
			scanInput.Limit = aws.Int32(opts.Limit)
		}
		out, err := s.client.Scan(ctx, scanInput)
		if err != nil {
			return nil, newStoreError("Scan", err)
		}
		metrics.ReadPages.WithLabelValues("scan").Inc()
		return s.page("scan", 1, out.Items, out.LastEvaluatedKey)
	}

	paginator := dynamodb.NewScanPaginator(s.client, scanInput)
	raw, pages, err := drain(ctx, "scan", paginator, func(out *dynamodb.ScanOutput) []map[string]types.AttributeValue {
		return out.Items
	})
	if err != nil {
		return nil, newStoreError("Scan", err)
	}
	return s.page("scan", pages, raw, nil)
}

// pager is satisfied by the SDK's Query and Scan paginators.
type pager[T any] interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*dynamodb.Options)) (T, error)
}

// drain reads every page of p, returning the accumulated raw items and the page count.
func drain[T any](ctx context.Context, op string, p pager[T], items func(T) []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, int, error) {
	var all []map[string]types.AttributeValue
	pages := 0
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, pages, err
		}
		pages++
		metrics.ReadPages.WithLabelValues(op).Inc()
		all = append(all, items(out)...)
	}
	return all, pages, nil
}

func (s *Store) page(op string, pages int, raw []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) (*Page, error) {
	items := make([]Record, 0, len(raw))
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal %s items: %w", op, err)
	}
	if items == nil {
		items = []Record{}
	}
	if len(lastKey) == 0 {
		lastKey = nil
	}

	s.logger.Info("read complete",
		"operation", op,
		"pages", pages,
		"items", len(items),
		"more", lastKey != nil,
	)
	return &Page{Items: items, LastEvaluatedKey: lastKey}, nil
}

// Put writes item (a struct or map with pk and sk) only if no record exists under its key.
func (s *Store) Put(ctx context.Context, item any) error {
	put, err := NewPut(s.config.TableName, item)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                put.TableName,
		Item:                     put.Item,
		ConditionExpression:      put.ConditionExpression,
		ExpressionAttributeNames: put.ExpressionAttributeNames,
	})
	if err != nil {
		return newStoreError("PutItem", err)
	}
	return nil
}

// BatchWrite puts items without transactional guarantees, BatchWriteSize at a time.
// A failing chunk is logged and the remaining chunks are still attempted;
// every chunk failure is returned joined together. Items DynamoDB leaves
// unprocessed are not retried; they are reported as ErrUnprocessedItems.
func (s *Store) BatchWrite(ctx context.Context, items []any) error {
	var errs []error
	for index, c := range chunk.Split(items, s.config.BatchWriteSize) {
		requests := make([]types.WriteRequest, 0, len(c))
		for _, item := range c {
			av, err := attributevalue.MarshalMap(item)
			if err != nil {
				return fmt.Errorf("marshal item: %w", err)
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: av},
			})
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.config.TableName: requests,
			},
		})
		if err != nil {
			s.logger.Error("batch write chunk failed", "chunk", index, "error", err)
			se := newStoreError("BatchWriteItem", err)
			se.Chunk = index
			errs = append(errs, se)
			continue
		}

		unprocessed := len(out.UnprocessedItems[s.config.TableName])
		if unprocessed > 0 {
			s.logger.Warn("batch write chunk left unprocessed items",
				"chunk", index,
				"unprocessed", unprocessed,
			)
			errs = append(errs, &StoreError{
				Op:    "BatchWriteItem",
				Chunk: index,
				Err:   fmt.Errorf("%w: %d of %d", ErrUnprocessedItems, unprocessed, len(requests)),
			})
		}
		s.logger.Info("batch write chunk written", "chunk", index, "items", len(requests)-unprocessed)
	}
	return errors.Join(errs...)
}
