package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrNotFound is returned by lookups when a record doesn't exist.
	// GetOne itself reports absence as a nil record; services translate that into ErrNotFound.
	ErrNotFound = errors.New("store: record not found")

	// ErrUnknownAction is returned when an operation carries an unrecognized action.
	ErrUnknownAction = errors.New("store: unknown transaction action")

	// ErrMissingStatement is returned when an operation has no statement for its action.
	ErrMissingStatement = errors.New("store: operation has no statement for its action")

	// ErrUnexpectedStatus is returned when the store answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("store: unexpected response status")

	// ErrUnprocessedItems is returned when a batch write leaves items unwritten.
	ErrUnprocessedItems = errors.New("store: unprocessed batch items")

	// ErrInvalidToken is returned when a continuation token cannot be decoded.
	ErrInvalidToken = errors.New("store: invalid continuation token")
)

// conditionalCheckFailed is the cancellation reason code for a failed condition.
const conditionalCheckFailed = "ConditionalCheckFailed"

// StoreError reports a failed call to the underlying store.
type StoreError struct {
	// Op is the store operation that failed (e.g. "TransactWriteItems").
	Op string

	// Code is the service error code, when the store returned one.
	Code string

	// Chunk is the index of the failed transaction chunk, or -1 outside a batch.
	Chunk int

	// Committed is the number of chunks committed before the failure.
	// Those writes are not rolled back.
	Committed int

	// Reasons holds per-item cancellation reason codes for cancelled transactions.
	Reasons []string

	Err error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	b.WriteString("store: ")
	b.WriteString(e.Op)
	if e.Chunk >= 0 {
		fmt.Fprintf(&b, " chunk %d (%d committed)", e.Chunk, e.Committed)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StoreError) Unwrap() error { return e.Err }

// newStoreError classifies err as returned by the DynamoDB client.
func newStoreError(op string, err error) *StoreError {
	se := &StoreError{Op: op, Chunk: -1, Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		se.Code = apiErr.ErrorCode()
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			code := "None"
			if reason.Code != nil {
				code = *reason.Code
			}
			se.Reasons = append(se.Reasons, code)
		}
	}
	return se
}

// IsConditionFailure reports whether err was caused by a failed condition
// expression, either on a single-item write or inside a transaction.
func IsConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return true
	}

	var se *StoreError
	if errors.As(err, &se) {
		for _, r := range se.Reasons {
			if r == conditionalCheckFailed {
				return true
			}
		}
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == conditionalCheckFailed {
				return true
			}
		}
	}
	return false
}
