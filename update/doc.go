// Package update compiles declarative, field-oriented update requests into
// conditional DynamoDB update operations.
//
// A Request names the fields of one record to change, grouped by action:
//
//	req := update.Request{
//	    Key:    store.Key{PK: "protectedArea", SK: "0001"},
//	    Set:    map[string]any{"legalName": "Park One"},
//	    Add:    map[string]any{"visits": 1},
//	    Append: map[string]any{"notes": []any{"reopened"}},
//	    Remove: []string{"closureReason"},
//	}
//
// A Compiler checks each request against its Policy (whitelist, blacklist,
// duplicate fields, mandatory fields, value types) and emits a store.Operation
// whose update only applies when the record already exists:
//
//	c := update.NewCompiler(s.TableName(), policy, logger)
//	result, err := c.CompileAll(requests)
//	if err != nil {
//	    return err
//	}
//	err = s.TransactBatch(ctx, result.Operations, store.ActionUpdate)
//
// With Policy.FailOnError set the first invalid request aborts CompileAll.
// Otherwise invalid requests are dropped and reported in Result.Skipped.
package update
