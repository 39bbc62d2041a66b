package update

import (
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cameronpettit/reserve-rec-api/internal/metrics"
	"github.com/cameronpettit/reserve-rec-api/store"
)

// Injected field names.
const (
	LastUpdatedField = "lastUpdated"
	VersionField     = "version"
)

// Compiler validates requests against one Policy and compiles them into
// conditional update operations for one table.
type Compiler struct {
	table  string
	policy Policy
	rules  rules
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithClock sets the clock used for injected timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		c.now = now
	}
}

// NewCompiler creates a Compiler for table governed by policy.
func NewCompiler(table string, policy Policy, logger *slog.Logger, opts ...Option) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Compiler{
		table:  table,
		policy: policy,
		rules:  newRules(policy),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the policy the compiler enforces.
func (c *Compiler) Policy() Policy {
	return c.policy
}

// Compile validates req and returns its Update operation.
// The caller's request is left untouched; injected fields go into a copy.
func (c *Compiler) Compile(req Request) (store.Operation, error) {
	req = c.inject(req)

	if err := c.rules.validate(req); err != nil {
		return store.Operation{}, err
	}

	stmt, err := BuildStatement(req.Fields())
	if err != nil {
		return store.Operation{}, err
	}

	c.logger.Debug("compiled update",
		"pk", req.Key.PK,
		"sk", req.Key.SK,
		"expression", stmt.UpdateExpression,
	)

	return store.Operation{
		Action: store.ActionUpdate,
		Update: &types.Update{
			TableName:                 aws.String(c.table),
			Key:                       req.Key.AttributeValues(),
			UpdateExpression:          aws.String(stmt.UpdateExpression),
			ConditionExpression:       aws.String(stmt.ConditionExpression),
			ExpressionAttributeNames:  stmt.Names,
			ExpressionAttributeValues: stmt.Values,
		},
	}, nil
}

func (c *Compiler) inject(req Request) Request {
	req = req.clone()
	if c.policy.AutoTimestamp {
		if req.Set == nil {
			req.Set = map[string]any{}
		}
		req.Set[LastUpdatedField] = c.now().UTC().Format(time.RFC3339)
	}
	if c.policy.AutoVersion {
		if req.Add == nil {
			req.Add = map[string]any{}
		}
		req.Add[VersionField] = 1
	}
	return req
}

// Skipped records a request dropped from a batch.
type Skipped struct {
	// Index is the request's position in the input.
	Index int
	Err   error
}

// Result is the outcome of compiling a batch.
type Result struct {
	// Operations are the compiled updates, in input order.
	Operations []store.Operation

	// Skipped lists the requests that failed validation when the policy
	// does not fail on error. Always empty under FailOnError.
	Skipped []Skipped
}

// CompileAll compiles reqs in order.
//
// Under Policy.FailOnError the first failure is returned and nothing is
// compiled. Otherwise failing requests are logged, left out of
// Result.Operations and listed in Result.Skipped.
func (c *Compiler) CompileAll(reqs []Request) (*Result, error) {
	result := &Result{Operations: make([]store.Operation, 0, len(reqs))}

	for i, req := range reqs {
		op, err := c.Compile(req)
		if err != nil {
			if c.policy.FailOnError {
				return nil, err
			}
			c.logger.Error("skipping invalid update",
				"index", i,
				"pk", req.Key.PK,
				"sk", req.Key.SK,
				"error", err,
			)
			metrics.SkippedUpdates.Inc()
			result.Skipped = append(result.Skipped, Skipped{Index: i, Err: err})
			continue
		}
		result.Operations = append(result.Operations, op)
	}
	return result, nil
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
