package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cameronpettit/reserve-rec-api/internal/ddbtest"
	"github.com/cameronpettit/reserve-rec-api/internal/metrics"
	"github.com/cameronpettit/reserve-rec-api/store"
)

const table = "reserve-rec"

var _ store.Client = (*ddbtest.Fake)(nil)

func newStore(t *testing.T) (*store.Store, *ddbtest.Fake) {
	t.Helper()
	fake := ddbtest.New()
	return store.New(fake, store.DefaultConfig(), nil), fake
}

func seed(fake *ddbtest.Fake, pk string, n int) {
	for i := 0; i < n; i++ {
		fake.Seed(table, map[string]types.AttributeValue{
			"pk":   &types.AttributeValueMemberS{Value: pk},
			"sk":   &types.AttributeValueMemberS{Value: fmt.Sprintf("%04d", i+1)},
			"name": &types.AttributeValueMemberS{Value: fmt.Sprintf("item %d", i+1)},
		})
	}
}

func protectedAreaQuery() store.QueryInput {
	return store.QueryInput{
		KeyConditionExpression: "pk = :pk",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "protectedArea"},
		},
	}
}

func updateOp(i int) store.Operation {
	return store.Operation{
		Action: store.ActionUpdate,
		Update: &types.Update{
			TableName:                aws.String(table),
			Key:                      store.Key{PK: "protectedArea", SK: fmt.Sprintf("%04d", i)}.AttributeValues(),
			UpdateExpression:         aws.String("SET #0 = :0"),
			ExpressionAttributeNames: map[string]string{"#0": "displayName"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":0": &types.AttributeValueMemberS{Value: "x"},
			},
		},
	}
}

func updateOps(n int) []store.Operation {
	ops := make([]store.Operation, n)
	for i := range ops {
		ops[i] = updateOp(i)
	}
	return ops
}

// --- Config Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.TableName != "reserve-rec" {
		t.Errorf("expected TableName 'reserve-rec', got %q", cfg.TableName)
	}
	if cfg.TransactionMaxSize != 100 {
		t.Errorf("expected TransactionMaxSize 100, got %d", cfg.TransactionMaxSize)
	}
	if cfg.BatchWriteSize != 25 {
		t.Errorf("expected BatchWriteSize 25, got %d", cfg.BatchWriteSize)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name         string
		cfg          store.Config
		expectTable  string
		expectTxSize int
		expectBatch  int
	}{
		{"zero value", store.Config{}, "reserve-rec", 100, 25},
		{"custom sizes", store.Config{TableName: "t", TransactionMaxSize: 10, BatchWriteSize: 5}, "t", 10, 5},
		{"over limits", store.Config{TransactionMaxSize: 500, BatchWriteSize: 100}, "reserve-rec", 100, 25},
		{"negative", store.Config{TransactionMaxSize: -1, BatchWriteSize: -1}, "reserve-rec", 100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.New(nil, tt.cfg, nil)
			cfg := s.Config()
			if cfg.TableName != tt.expectTable {
				t.Errorf("expected TableName %q, got %q", tt.expectTable, cfg.TableName)
			}
			if cfg.TransactionMaxSize != tt.expectTxSize {
				t.Errorf("expected TransactionMaxSize %d, got %d", tt.expectTxSize, cfg.TransactionMaxSize)
			}
			if cfg.BatchWriteSize != tt.expectBatch {
				t.Errorf("expected BatchWriteSize %d, got %d", tt.expectBatch, cfg.BatchWriteSize)
			}
			if s.TableName() != tt.expectTable {
				t.Errorf("expected TableName() %q, got %q", tt.expectTable, s.TableName())
			}
		})
	}
}

// --- Key Tests ---

func TestKey_AttributeValues(t *testing.T) {
	av := store.Key{PK: "protectedArea", SK: "0001"}.AttributeValues()

	if v, ok := av["pk"].(*types.AttributeValueMemberS); !ok || v.Value != "protectedArea" {
		t.Error("expected pk to be 'protectedArea'")
	}
	if v, ok := av["sk"].(*types.AttributeValueMemberS); !ok || v.Value != "0001" {
		t.Error("expected sk to be '0001'")
	}
}

func TestKey_IsZero(t *testing.T) {
	tests := []struct {
		key      store.Key
		expected bool
	}{
		{store.Key{}, true},
		{store.Key{PK: "a"}, true},
		{store.Key{SK: "b"}, true},
		{store.Key{PK: "a", SK: "b"}, false},
	}

	for _, tt := range tests {
		if got := tt.key.IsZero(); got != tt.expected {
			t.Errorf("%+v.IsZero() = %v, want %v", tt.key, got, tt.expected)
		}
	}
}

// --- GetOne Tests ---

func TestGetOne_Found(t *testing.T) {
	s, fake := newStore(t)
	seed(fake, "protectedArea", 1)

	rec, err := s.GetOne(context.Background(), "protectedArea", "0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got nil")
	}
	if rec["name"] != "item 1" {
		t.Errorf("expected name 'item 1', got %v", rec["name"])
	}
	if got := aws.ToString(fake.GetInputs[0].TableName); got != table {
		t.Errorf("expected table %q, got %q", table, got)
	}
}

func TestGetOne_MissingIsNotAnError(t *testing.T) {
	s, _ := newStore(t)

	rec, err := s.GetOne(context.Background(), "protectedArea", "9999")
	if err != nil {
		t.Fatalf("expected no error for missing record, got %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %v", rec)
	}
}

func TestGetOne_StoreError(t *testing.T) {
	s, fake := newStore(t)
	fake.GetErr = ddbtest.ErrInjected

	_, err := s.GetOne(context.Background(), "protectedArea", "0001")

	var se *store.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if se.Op != "GetItem" {
		t.Errorf("expected Op 'GetItem', got %q", se.Op)
	}
	if !errors.Is(err, ddbtest.ErrInjected) {
		t.Error("expected StoreError to wrap the cause")
	}
}

// --- Query / Scan Tests ---

func TestQuery_SinglePageWithContinuation(t *testing.T) {
	s, fake := newStore(t)
	seed(fake, "protectedArea", 5)
	seed(fake, "other", 3)
	ctx := context.Background()

	pagesBefore := testutil.ToFloat64(metrics.ReadPages.WithLabelValues("query"))

	var seen []string
	var startKey map[string]types.AttributeValue
	pages := 0
	for {
		page, err := s.Query(ctx, protectedAreaQuery(), store.PageOptions{Limit: 2, StartKey: startKey})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pages++
		if len(page.Items) > 2 {
			t.Errorf("page %d: expected at most 2 items, got %d", pages, len(page.Items))
		}
		for _, item := range page.Items {
			seen = append(seen, item["sk"].(string))
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
	if got := testutil.ToFloat64(metrics.ReadPages.WithLabelValues("query")) - pagesBefore; got != 3 {
		t.Errorf("expected 3 query pages counted, got %v", got)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 items, got %d", len(seen))
	}
	for i, sk := range seen {
		if want := fmt.Sprintf("%04d", i+1); sk != want {
			t.Errorf("item %d: expected sk %q, got %q", i, want, sk)
		}
	}
	if got := aws.ToInt32(fake.QueryInputs[0].Limit); got != 2 {
		t.Errorf("expected Limit 2 on the request, got %d", got)
	}
}

func TestQuery_FetchAllIgnoresLimit(t *testing.T) {
	s, fake := newStore(t)
	fake.PageSize = 2
	seed(fake, "protectedArea", 5)

	page, err := s.Query(context.Background(), protectedAreaQuery(), store.PageOptions{Limit: 1, FetchAll: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 5 {
		t.Errorf("expected 5 items, got %d", len(page.Items))
	}
	if page.LastEvaluatedKey != nil {
		t.Errorf("expected no LastEvaluatedKey, got %v", page.LastEvaluatedKey)
	}
	if len(fake.QueryInputs) != 3 {
		t.Errorf("expected 3 store pages, got %d", len(fake.QueryInputs))
	}
	for i, in := range fake.QueryInputs {
		if in.Limit != nil {
			t.Errorf("request %d: expected no Limit, got %d", i, *in.Limit)
		}
	}
}

func TestQuery_EmptyResult(t *testing.T) {
	s, _ := newStore(t)

	page, err := s.Query(context.Background(), protectedAreaQuery(), store.PageOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Items == nil {
		t.Error("expected empty, non-nil Items")
	}
	if len(page.Items) != 0 {
		t.Errorf("expected 0 items, got %d", len(page.Items))
	}
}

func TestQuery_StoreError(t *testing.T) {
	s, fake := newStore(t)
	fake.QueryErr = ddbtest.ErrInjected

	for _, fetchAll := range []bool{false, true} {
		_, err := s.Query(context.Background(), protectedAreaQuery(), store.PageOptions{FetchAll: fetchAll})
		var se *store.StoreError
		if !errors.As(err, &se) || se.Op != "Query" {
			t.Errorf("fetchAll=%v: expected Query StoreError, got %v", fetchAll, err)
		}
	}
}

func TestQuery_OmitsEmptyPlaceholderMaps(t *testing.T) {
	s, fake := newStore(t)
	input := protectedAreaQuery()
	input.ExpressionAttributeNames = map[string]string{}

	if _, err := s.Query(context.Background(), input, store.PageOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.QueryInputs[0].ExpressionAttributeNames != nil {
		t.Error("expected empty ExpressionAttributeNames to be omitted")
	}
}

func TestScan_Paginated(t *testing.T) {
	s, fake := newStore(t)
	seed(fake, "protectedArea", 3)
	seed(fake, "other", 3)

	page, err := s.Scan(context.Background(), store.ScanInput{}, store.PageOptions{Limit: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 4 {
		t.Errorf("expected 4 items, got %d", len(page.Items))
	}
	if page.LastEvaluatedKey == nil {
		t.Fatal("expected LastEvaluatedKey")
	}

	rest, err := s.Scan(context.Background(), store.ScanInput{}, store.PageOptions{StartKey: page.LastEvaluatedKey})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest.Items) != 2 {
		t.Errorf("expected 2 remaining items, got %d", len(rest.Items))
	}
	if rest.LastEvaluatedKey != nil {
		t.Error("expected exhausted scan")
	}
}

func TestScan_FetchAll(t *testing.T) {
	s, fake := newStore(t)
	fake.PageSize = 4
	seed(fake, "protectedArea", 10)

	page, err := s.Scan(context.Background(), store.ScanInput{}, store.PageOptions{FetchAll: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 10 {
		t.Errorf("expected 10 items, got %d", len(page.Items))
	}
	if len(fake.ScanInputs) != 3 {
		t.Errorf("expected 3 store pages, got %d", len(fake.ScanInputs))
	}
}

// --- Put / BatchWrite Tests ---

func TestPut_OnlyCreates(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	item := map[string]any{"pk": "protectedArea", "sk": "0001", "displayName": "Park"}

	if err := s.Put(ctx, item); err != nil {
		t.Fatalf("unexpected error on first put: %v", err)
	}

	err := s.Put(ctx, item)
	if err == nil {
		t.Fatal("expected second put to fail")
	}
	if !store.IsConditionFailure(err) {
		t.Errorf("expected condition failure, got %v", err)
	}
}

func TestPut_RequiresKey(t *testing.T) {
	s, fake := newStore(t)

	if err := s.Put(context.Background(), map[string]any{"pk": "protectedArea"}); err == nil {
		t.Error("expected error for item without sk")
	}
	if len(fake.PutInputs) != 0 {
		t.Error("expected no store call")
	}
}

func TestBatchWrite_ContinuesPastFailedChunk(t *testing.T) {
	s, fake := newStore(t)
	fake.FailBatchWriteAt = 2

	items := make([]any, 60)
	for i := range items {
		items[i] = map[string]any{"pk": "protectedArea", "sk": fmt.Sprintf("%04d", i)}
	}

	err := s.BatchWrite(context.Background(), items)
	if err == nil {
		t.Fatal("expected error from failed chunk")
	}
	var se *store.StoreError
	if !errors.As(err, &se) || se.Chunk != 1 {
		t.Errorf("expected StoreError for chunk 1, got %v", err)
	}
	if len(fake.BatchWriteInputs) != 3 {
		t.Errorf("expected 3 batch calls, got %d", len(fake.BatchWriteInputs))
	}
	if got := fake.Len(table); got != 35 {
		t.Errorf("expected 35 written items, got %d", got)
	}
}

func TestBatchWrite_ReportsUnprocessedItems(t *testing.T) {
	s, fake := newStore(t)
	fake.UnprocessedPerBatch = 2

	items := make([]any, 30)
	for i := range items {
		items[i] = map[string]any{"pk": "protectedArea", "sk": fmt.Sprintf("%04d", i)}
	}

	err := s.BatchWrite(context.Background(), items)
	if !errors.Is(err, store.ErrUnprocessedItems) {
		t.Fatalf("expected ErrUnprocessedItems, got %v", err)
	}
	var se *store.StoreError
	if !errors.As(err, &se) || se.Chunk != 0 {
		t.Errorf("expected StoreError for chunk 0, got %v", err)
	}
	if len(fake.BatchWriteInputs) != 2 {
		t.Errorf("expected 2 batch calls, got %d", len(fake.BatchWriteInputs))
	}
	if got := fake.Len(table); got != 26 {
		t.Errorf("expected 26 written items, got %d", got)
	}
}

func TestBatchWrite_AllProcessed(t *testing.T) {
	s, fake := newStore(t)

	items := []any{map[string]any{"pk": "protectedArea", "sk": "0001"}}
	if err := s.BatchWrite(context.Background(), items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fake.Len(table); got != 1 {
		t.Errorf("expected 1 written item, got %d", got)
	}
}

// --- TransactBatch Tests ---

func TestTransactBatch_Chunking(t *testing.T) {
	s, fake := newStore(t)
	chunksBefore := testutil.ToFloat64(metrics.TransactChunks.WithLabelValues("success"))
	itemsBefore := testutil.ToFloat64(metrics.TransactItems)

	if err := s.TransactBatch(context.Background(), updateOps(250), store.ActionPut); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sizes := fake.TransactSizes()
	expected := []int{100, 100, 50}
	if len(sizes) != len(expected) {
		t.Fatalf("expected %d transactions, got %d", len(expected), len(sizes))
	}
	for i := range expected {
		if sizes[i] != expected[i] {
			t.Errorf("transaction %d: expected %d items, got %d", i, expected[i], sizes[i])
		}
	}

	if got := testutil.ToFloat64(metrics.TransactChunks.WithLabelValues("success")) - chunksBefore; got != 3 {
		t.Errorf("expected 3 successful chunks counted, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.TransactItems) - itemsBefore; got != 250 {
		t.Errorf("expected 250 committed items counted, got %v", got)
	}
}

func TestTransactBatch_PreservesOrder(t *testing.T) {
	s, fake := newStore(t)

	if err := s.TransactBatch(context.Background(), updateOps(150), store.ActionPut); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := 0
	for _, in := range fake.TransactInputs {
		for _, item := range in.TransactItems {
			sk := item.Update.Key["sk"].(*types.AttributeValueMemberS).Value
			if want := fmt.Sprintf("%04d", next); sk != want {
				t.Fatalf("expected sk %q, got %q", want, sk)
			}
			next++
		}
	}
}

func TestTransactBatch_RequestTokens(t *testing.T) {
	s, fake := newStore(t)

	if err := s.TransactBatch(context.Background(), updateOps(201), store.ActionPut); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for i, in := range fake.TransactInputs {
		token := aws.ToString(in.ClientRequestToken)
		if token == "" {
			t.Errorf("transaction %d: expected ClientRequestToken", i)
		}
		if seen[token] {
			t.Errorf("transaction %d: reused ClientRequestToken %q", i, token)
		}
		seen[token] = true
	}
}

func TestTransactBatch_FailFast(t *testing.T) {
	s, fake := newStore(t)
	fake.FailTransactAt = 2
	successBefore := testutil.ToFloat64(metrics.TransactChunks.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(metrics.TransactChunks.WithLabelValues("error"))

	err := s.TransactBatch(context.Background(), updateOps(350), store.ActionPut)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := testutil.ToFloat64(metrics.TransactChunks.WithLabelValues("success")) - successBefore; got != 1 {
		t.Errorf("expected 1 successful chunk counted, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.TransactChunks.WithLabelValues("error")) - errorBefore; got != 1 {
		t.Errorf("expected 1 failed chunk counted, got %v", got)
	}

	// Chunks after the failing one are never submitted.
	if len(fake.TransactInputs) != 2 {
		t.Errorf("expected 2 transaction calls, got %d", len(fake.TransactInputs))
	}

	var se *store.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if se.Chunk != 1 {
		t.Errorf("expected failed chunk 1, got %d", se.Chunk)
	}
	if se.Committed != 1 {
		t.Errorf("expected 1 committed chunk, got %d", se.Committed)
	}
	if se.Code != "TransactionCanceledException" {
		t.Errorf("expected code TransactionCanceledException, got %q", se.Code)
	}
	if len(se.Reasons) != 100 || se.Reasons[0] != "ConditionalCheckFailed" {
		t.Errorf("expected 100 cancellation reasons led by ConditionalCheckFailed, got %v", se.Reasons)
	}
	if !store.IsConditionFailure(err) {
		t.Error("expected IsConditionFailure to be true")
	}
}

func TestTransactBatch_FirstChunkFails(t *testing.T) {
	s, fake := newStore(t)
	fake.FailTransactAt = 1

	err := s.TransactBatch(context.Background(), updateOps(120), store.ActionPut)

	var se *store.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %v", err)
	}
	if se.Chunk != 0 || se.Committed != 0 {
		t.Errorf("expected chunk 0 with nothing committed, got chunk %d committed %d", se.Chunk, se.Committed)
	}
	if len(fake.TransactInputs) != 1 {
		t.Errorf("expected 1 transaction call, got %d", len(fake.TransactInputs))
	}
}

func TestTransactBatch_Empty(t *testing.T) {
	s, fake := newStore(t)

	if err := s.TransactBatch(context.Background(), nil, store.ActionPut); err != nil {
		t.Errorf("expected nil error for empty batch, got %v", err)
	}
	if len(fake.TransactInputs) != 0 {
		t.Errorf("expected no transaction calls, got %d", len(fake.TransactInputs))
	}
}

func TestTransactBatch_DefaultAction(t *testing.T) {
	s, fake := newStore(t)
	put, err := store.NewPut(table, map[string]any{"pk": "protectedArea", "sk": "0001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ops := []store.Operation{
		{Put: put},  // untagged: uses the default
		updateOp(2), // tagged Update
	}
	if err := s.TransactBatch(context.Background(), ops, store.ActionPut); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := fake.TransactInputs[0].TransactItems
	if items[0].Put == nil {
		t.Error("expected first item to be a Put")
	}
	if items[1].Update == nil {
		t.Error("expected second item to be an Update")
	}
	if fake.Item(table, "protectedArea", "0001") == nil {
		t.Error("expected put to be applied")
	}
}

func TestTransactBatch_MalformedOperationFailsBeforeAnyWrite(t *testing.T) {
	s, fake := newStore(t)
	ops := append(updateOps(150), store.Operation{Action: store.ActionDelete})

	err := s.TransactBatch(context.Background(), ops, store.ActionPut)
	if !errors.Is(err, store.ErrMissingStatement) {
		t.Errorf("expected ErrMissingStatement, got %v", err)
	}
	if len(fake.TransactInputs) != 0 {
		t.Errorf("expected no transaction calls, got %d", len(fake.TransactInputs))
	}
}

func TestTransactBatch_CustomChunkSize(t *testing.T) {
	fake := ddbtest.New()
	s := store.New(fake, store.Config{TransactionMaxSize: 10}, nil)

	if err := s.TransactBatch(context.Background(), updateOps(25), store.ActionUpdate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(fake.TransactInputs); got != 3 {
		t.Errorf("expected 3 transactions, got %d", got)
	}
}

func TestTransactWrite_Single(t *testing.T) {
	s, fake := newStore(t)
	fake.FailTransactAt = 1

	err := s.TransactWrite(context.Background(), []types.TransactWriteItem{{Update: updateOp(1).Update}})

	var se *store.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %v", err)
	}
	if se.Chunk != -1 {
		t.Errorf("expected Chunk -1 outside a batch, got %d", se.Chunk)
	}
}

// --- Operation Tests ---

func TestOperation_TransactItem(t *testing.T) {
	put := &types.Put{TableName: aws.String(table)}
	update := &types.Update{TableName: aws.String(table)}
	del := &types.Delete{TableName: aws.String(table)}
	check := &types.ConditionCheck{TableName: aws.String(table)}
	all := store.Operation{Put: put, Update: update, Delete: del, ConditionCheck: check}

	tests := []struct {
		name          string
		action        store.Action
		defaultAction store.Action
		check         func(types.TransactWriteItem) bool
	}{
		{"explicit put", store.ActionPut, store.ActionUpdate, func(i types.TransactWriteItem) bool { return i.Put == put }},
		{"explicit update", store.ActionUpdate, store.ActionPut, func(i types.TransactWriteItem) bool { return i.Update == update }},
		{"explicit delete", store.ActionDelete, store.ActionPut, func(i types.TransactWriteItem) bool { return i.Delete == del }},
		{"explicit condition", store.ActionCondition, store.ActionPut, func(i types.TransactWriteItem) bool { return i.ConditionCheck == check }},
		{"default update", "", store.ActionUpdate, func(i types.TransactWriteItem) bool { return i.Update == update }},
		{"no default means put", "", "", func(i types.TransactWriteItem) bool { return i.Put == put }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := all
			op.Action = tt.action
			item, err := op.TransactItem(tt.defaultAction)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(item) {
				t.Errorf("unexpected transact item %+v", item)
			}
		})
	}
}

func TestOperation_TransactItemErrors(t *testing.T) {
	if _, err := (store.Operation{Action: "Upsert"}).TransactItem(store.ActionPut); !errors.Is(err, store.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	if _, err := (store.Operation{}).TransactItem(store.ActionUpdate); !errors.Is(err, store.ErrMissingStatement) {
		t.Errorf("expected ErrMissingStatement, got %v", err)
	}
}

// --- Token Tests ---

func TestToken_RoundTrip(t *testing.T) {
	key := store.Key{PK: "protectedArea", SK: "0042"}.AttributeValues()

	token, err := store.EncodeToken(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	decoded, err := store.DecodeToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := decoded["sk"].(*types.AttributeValueMemberS); !ok || v.Value != "0042" {
		t.Errorf("expected sk '0042', got %v", decoded["sk"])
	}
	if v, ok := decoded["pk"].(*types.AttributeValueMemberS); !ok || v.Value != "protectedArea" {
		t.Errorf("expected pk 'protectedArea', got %v", decoded["pk"])
	}
}

func TestToken_Empty(t *testing.T) {
	token, err := store.EncodeToken(nil)
	if err != nil || token != "" {
		t.Errorf("expected empty token, got %q (%v)", token, err)
	}
	key, err := store.DecodeToken("")
	if err != nil || key != nil {
		t.Errorf("expected nil key, got %v (%v)", key, err)
	}
}

func TestToken_Invalid(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", "e30"} {
		if _, err := store.DecodeToken(token); !errors.Is(err, store.ErrInvalidToken) {
			t.Errorf("DecodeToken(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

// --- Condition Tests ---

func TestNewPut(t *testing.T) {
	put, err := store.NewPut(table, map[string]any{"pk": "protectedArea", "sk": "0001", "orcs": "0001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(put.TableName) != table {
		t.Errorf("expected table %q, got %q", table, aws.ToString(put.TableName))
	}
	if put.ConditionExpression == nil {
		t.Fatal("expected a condition expression")
	}
	names := map[string]bool{}
	for _, v := range put.ExpressionAttributeNames {
		names[v] = true
	}
	if !names["pk"] || !names["sk"] {
		t.Errorf("expected condition on pk and sk, got names %v", put.ExpressionAttributeNames)
	}
	if _, ok := put.Item["orcs"]; !ok {
		t.Error("expected orcs attribute in item")
	}
}
