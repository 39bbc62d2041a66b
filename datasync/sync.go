// Package datasync copies protected areas from the Data Register into the table.
//
// A remote park missing locally is created; a local protected area whose
// synced fields drifted from the Data Register is updated. Fields outside the
// synced list are never compared or written.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/cameronpettit/reserve-rec-api/dataregister"
	"github.com/cameronpettit/reserve-rec-api/internal/metrics"
	"github.com/cameronpettit/reserve-rec-api/protectedarea"
	"github.com/cameronpettit/reserve-rec-api/store"
	"github.com/cameronpettit/reserve-rec-api/update"
)

// FieldsToSync are the Data Register fields kept in sync.
var FieldsToSync = []string{"legalName", "displayName"}

// ErrNoRecords is returned when the Data Register returns nothing to sync.
var ErrNoRecords = errors.New("datasync: no protected areas found")

// sitePrefix marks Data Register sites, which are not synced.
const sitePrefix = "Site::"

// Source lists Data Register records by status.
type Source interface {
	Fetch(ctx context.Context, status string) ([]dataregister.Record, error)
}

// Summary reports what a sync run did.
type Summary struct {
	Fetched int `json:"fetched"`
	Puts    int `json:"puts"`
	Updates int `json:"updates"`
}

// Syncer plans and commits Data Register synchronizations.
type Syncer struct {
	store  *store.Store
	source Source
	fields []string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithClock sets the clock used for creation and update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// WithFields overrides FieldsToSync.
func WithFields(fields ...string) Option {
	return func(s *Syncer) {
		s.fields = fields
	}
}

// NewSyncer creates a Syncer writing to s and reading from source.
func NewSyncer(s *store.Store, source Source, logger *slog.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	sy := &Syncer{
		store:  s,
		source: source,
		fields: FieldsToSync,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(sy)
	}
	return sy
}

// Run fetches established parks, plans the changes and commits them.
func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	records, err := s.source.Fetch(ctx, dataregister.StatusEstablished)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	ops, err := s.Plan(ctx, records)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Fetched: len(records)}
	for _, op := range ops {
		switch op.Action {
		case store.ActionPut:
			summary.Puts++
		case store.ActionUpdate:
			summary.Updates++
		}
	}

	s.logger.Info("syncing protected areas",
		"fetched", summary.Fetched,
		"puts", summary.Puts,
		"updates", summary.Updates,
	)
	if err := s.store.TransactBatch(ctx, ops, store.ActionPut); err != nil {
		return nil, err
	}
	return summary, nil
}

// Plan compares records with the stored protected areas and returns the
// puts and updates needed to bring the table in line.
func (s *Syncer) Plan(ctx context.Context, records []dataregister.Record) ([]store.Operation, error) {
	now := s.now().UTC()
	timestamp := now.Format(time.RFC3339)
	compiler := update.NewCompiler(s.store.TableName(), update.Policy{
		AutoTimestamp:   true,
		WhitelistFields: update.AllActions(append([]string{update.LastUpdatedField}, s.fields...)...),
		FailOnError:     true,
	}, s.logger, update.WithClock(func() time.Time { return now }))

	var ops []store.Operation
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			s.logger.Warn("skipping data register record without identifier", "record", rec)
			continue
		}
		if strings.Contains(id, sitePrefix) {
			continue
		}

		existing, err := s.store.GetOne(ctx, protectedarea.PartitionKey, id)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			put, err := s.newPut(id, rec, timestamp)
			if err != nil {
				return nil, fmt.Errorf("protected area %s: %w", id, err)
			}
			metrics.SyncActions.WithLabelValues("put").Inc()
			ops = append(ops, put)
			continue
		}

		changed := s.drift(rec, existing)
		if len(changed) == 0 {
			continue
		}
		op, err := compiler.Compile(update.Request{Key: protectedarea.Key(id), Set: changed})
		if err != nil {
			return nil, fmt.Errorf("protected area %s: %w", id, err)
		}
		metrics.SyncActions.WithLabelValues("update").Inc()
		ops = append(ops, op)
	}
	return ops, nil
}

func (s *Syncer) newPut(id string, rec dataregister.Record, timestamp string) (store.Operation, error) {
	item := map[string]any{
		store.PartitionKeyAttr:  protectedarea.PartitionKey,
		store.SortKeyAttr:       id,
		"orcs":                  id,
		"creationDate":          timestamp,
		update.LastUpdatedField: timestamp,
	}
	for _, field := range s.fields {
		if v, ok := rec[field]; ok {
			item[field] = v
		}
	}

	put, err := store.NewPut(s.store.TableName(), item)
	if err != nil {
		return store.Operation{}, err
	}
	return store.Operation{Action: store.ActionPut, Put: put}, nil
}

// drift returns the synced fields whose remote value differs from the stored one.
// Fields the remote record doesn't carry are left alone.
func (s *Syncer) drift(rec dataregister.Record, existing store.Record) map[string]any {
	changed := map[string]any{}
	for _, field := range s.fields {
		remote, ok := rec[field]
		if !ok {
			continue
		}
		if !reflect.DeepEqual(remote, existing[field]) {
			changed[field] = remote
		}
	}
	return changed
}
