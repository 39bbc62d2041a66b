// Package protectedarea reads and updates protected area records.
//
// Protected areas are stored under the partition key "protectedArea" with
// their ORCS number as the sort key.
package protectedarea

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cameronpettit/reserve-rec-api/store"
	"github.com/cameronpettit/reserve-rec-api/update"
)

// PartitionKey is the partition key shared by every protected area record.
const PartitionKey = "protectedArea"

// UpdatePolicy governs API updates of protected areas.
// Key and ownership fields can never be changed through an update.
var UpdatePolicy = update.Policy{
	AutoTimestamp: true,
	AutoVersion:   true,
	BlacklistFields: update.PerAction(map[update.Action][]string{
		update.ScopeAll: {store.PartitionKeyAttr, store.SortKeyAttr, "orcs", "creationDate"},
	}),
	FailOnError: true,
}

// Key returns the record key of the protected area with the given ORCS.
func Key(orcs string) store.Key {
	return store.Key{PK: PartitionKey, SK: orcs}
}

// ListParams controls List pagination.
type ListParams struct {
	Limit    int32
	StartKey map[string]types.AttributeValue

	// FetchAll returns every protected area in one page.
	FetchAll bool
}

// UpdateItem is one protected area's update in a batch.
type UpdateItem struct {
	Orcs    string         `json:"orcs"`
	Actions update.Request `json:"actions"`
}

// Service reads and updates protected areas.
type Service struct {
	store    *store.Store
	compiler *update.Compiler
	logger   *slog.Logger
}

// NewService creates a new Service. The update policy is taken from policies
// when it has one registered for PartitionKey, otherwise UpdatePolicy is used.
func NewService(s *store.Store, policies *update.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	policy := UpdatePolicy
	if policies != nil && policies.Has(PartitionKey) {
		policy = policies.Policy(PartitionKey)
	}
	return &Service{
		store:    s,
		compiler: update.NewCompiler(s.TableName(), policy, logger),
		logger:   logger,
	}
}

// List returns protected areas, one page at a time unless params.FetchAll is set.
func (svc *Service) List(ctx context.Context, params ListParams) (*store.Page, error) {
	svc.logger.Info("list protected areas",
		"limit", params.Limit,
		"fetch_all", params.FetchAll,
		"resume", params.StartKey != nil,
	)

	page, err := svc.store.Query(ctx, store.QueryInput{
		KeyConditionExpression: "pk = :pk",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: PartitionKey},
		},
	}, store.PageOptions{
		Limit:    params.Limit,
		StartKey: params.StartKey,
		FetchAll: params.FetchAll,
	})
	if err != nil {
		return nil, fmt.Errorf("list protected areas: %w", err)
	}

	svc.logger.Info("protected areas found", "count", len(page.Items))
	return page, nil
}

// Get returns the protected area with the given ORCS, or store.ErrNotFound.
func (svc *Service) Get(ctx context.Context, orcs string) (store.Record, error) {
	rec, err := svc.store.GetOne(ctx, PartitionKey, orcs)
	if err != nil {
		return nil, fmt.Errorf("get protected area %s: %w", orcs, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("protected area %s: %w", orcs, store.ErrNotFound)
	}
	return rec, nil
}

// ErrMissingOrcs is returned when an update item has no ORCS.
var ErrMissingOrcs = errors.New("protectedarea: ORCS is required for every update item")

// Update applies every item's actions to its protected area in chunked transactions.
// Any key in an item's actions is replaced by the key derived from its ORCS.
func (svc *Service) Update(ctx context.Context, items []UpdateItem) (*update.Result, error) {
	reqs := make([]update.Request, 0, len(items))
	for i, item := range items {
		if item.Orcs == "" {
			return nil, fmt.Errorf("item %d: %w", i, ErrMissingOrcs)
		}
		req := item.Actions
		req.Key = Key(item.Orcs)
		reqs = append(reqs, req)
	}

	result, err := svc.compiler.CompileAll(reqs)
	if err != nil {
		return nil, err
	}

	svc.logger.Info("updating protected areas",
		"requested", len(items),
		"compiled", len(result.Operations),
		"skipped", len(result.Skipped),
	)
	if err := svc.store.TransactBatch(ctx, result.Operations, store.ActionUpdate); err != nil {
		return nil, err
	}
	return result, nil
}
