package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"

	"github.com/cameronpettit/reserve-rec-api/internal/chunk"
	"github.com/cameronpettit/reserve-rec-api/internal/metrics"
)

// TransactWrite commits items as one all-or-nothing transaction.
func (s *Store) TransactWrite(ctx context.Context, items []types.TransactWriteItem) error {
	if err := s.commit(ctx, items); err != nil {
		return newStoreError("TransactWriteItems", err)
	}
	return nil
}

// TransactBatch commits ops in order as a sequence of transactions of at most
// TransactionMaxSize items each. Operations without an action use defaultAction.
//
// Chunks are committed one after another. The first failing chunk stops the
// batch: later chunks are never submitted and earlier chunks stay committed.
// The returned *StoreError records which chunk failed and how many were committed.
func (s *Store) TransactBatch(ctx context.Context, ops []Operation, defaultAction Action) error {
	// Resolve every statement up front so a malformed operation fails before any write.
	items := make([]types.TransactWriteItem, 0, len(ops))
	for i, op := range ops {
		item, err := op.TransactItem(defaultAction)
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		items = append(items, item)
	}

	chunks := chunk.Split(items, s.config.TransactionMaxSize)
	s.logger.Info("batch transact",
		"items", len(items),
		"transactions", len(chunks),
	)

	for index, c := range chunks {
		if err := s.commit(ctx, c); err != nil {
			se := newStoreError("TransactWriteItems", err)
			se.Chunk = index
			se.Committed = index
			s.logger.Error("batch transact failed",
				"chunk", index,
				"committed", index,
				"remaining", len(chunks)-index,
				"error", err,
			)
			return se
		}
		s.logger.Info("transaction committed", "chunk", index, "items", len(c))
	}
	return nil
}

// commit sends one TransactWriteItems call.
func (s *Store) commit(ctx context.Context, items []types.TransactWriteItem) error {
	start := time.Now()
	out, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      items,
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	metrics.TransactLatency.Observe(time.Since(start).Seconds())

	if err == nil && out != nil {
		if status := responseStatus(out.ResultMetadata); status != 0 && status != http.StatusOK {
			err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
		}
	}
	if err != nil {
		metrics.TransactChunks.WithLabelValues("error").Inc()
		return err
	}

	metrics.TransactChunks.WithLabelValues("success").Inc()
	metrics.TransactItems.Add(float64(len(items)))
	return nil
}

// responseStatus returns the raw HTTP status of a call, or 0 when unavailable.
func responseStatus(md middleware.Metadata) int {
	if raw, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && raw != nil && raw.Response != nil {
		return raw.StatusCode
	}
	return 0
}
