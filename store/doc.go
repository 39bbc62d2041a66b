// Package store provides the DynamoDB access layer of the reserve-rec API.
//
// All records live in a single table keyed by a composite (pk, sk) pair.
// The Store wraps an injected [Client] (normally a *dynamodb.Client created
// once at process start) and offers:
//
//   - [Store.GetOne] - single-record lookup; absence is a nil record, not an error
//   - [Store.Query] and [Store.Scan] - paginated reads that either return one
//     page plus a LastEvaluatedKey, or read every page with [PageOptions].FetchAll
//   - [Store.Put] and [Store.BatchWrite] - conditional and bulk puts
//   - [Store.TransactBatch] - chunked transactional writes
//
// # Transactional batches
//
// DynamoDB limits a transaction to 100 items. TransactBatch splits an ordered
// list of [Operation] values into contiguous chunks and commits them strictly
// one after another. Each chunk is atomic; the batch as a whole is not:
//
//	err := s.TransactBatch(ctx, ops, store.ActionUpdate)
//	var se *store.StoreError
//	if errors.As(err, &se) {
//	    // chunks [0, se.Committed) are committed, se.Chunk failed,
//	    // the rest were never sent.
//	}
//
// Nothing is rolled back and nothing is retried; compensation is up to the caller.
//
// # Errors
//
//   - [ErrNotFound] - lookup found nothing (returned by services built on GetOne)
//   - [*StoreError] - a store call failed; see [IsConditionFailure]
//   - [ErrUnknownAction], [ErrMissingStatement] - malformed operations
//   - [ErrInvalidToken] - undecodable continuation token
package store
