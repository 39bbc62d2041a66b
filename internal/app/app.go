// Package app wires configuration, logging, the DynamoDB client and the
// services into the Lambda handlers.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/cameronpettit/reserve-rec-api/dataregister"
	"github.com/cameronpettit/reserve-rec-api/datasync"
	"github.com/cameronpettit/reserve-rec-api/handler"
	"github.com/cameronpettit/reserve-rec-api/internal/config"
	"github.com/cameronpettit/reserve-rec-api/internal/metrics"
	"github.com/cameronpettit/reserve-rec-api/protectedarea"
	"github.com/cameronpettit/reserve-rec-api/store"
	"github.com/cameronpettit/reserve-rec-api/update"
)

// MetricsJob is the Pushgateway job metrics are grouped under.
const MetricsJob = "reserve-rec-api"

// App holds the long-lived components of one Lambda process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *store.Store
	Policies *update.Registry
	Metrics  *metrics.Pusher
	Handler  *handler.Handler
}

// NewLogger returns a JSON logger writing to w at the configured level.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// NewClient creates the DynamoDB client from the default AWS credential chain.
func NewClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	}), nil
}

// New builds an App around client.
func New(cfg *config.Config, client store.Client, source datasync.Source, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if source == nil {
		source = dataregister.NewClient(cfg.DataRegisterEndpoint, cfg.DataRegisterAPIKey, logger.With("comp", "dataregister"))
	}

	s := store.New(client, cfg.Store(), logger.With("comp", "store"))

	policies := update.NewRegistry()
	policies.Register(protectedarea.PartitionKey, protectedarea.UpdatePolicy)

	areas := protectedarea.NewService(s, policies, logger.With("comp", "protectedarea"))
	syncer := datasync.NewSyncer(s, source, logger.With("comp", "datasync"))

	// each Lambda container pushes to its own group so counters don't overwrite each other
	pusher := metrics.NewPusher(cfg.MetricsPushURL, MetricsJob, os.Getenv("AWS_LAMBDA_LOG_STREAM_NAME"), nil, logger.With("comp", "metrics"))
	var opts []handler.Option
	if pusher != nil {
		opts = append(opts, handler.WithMetrics(pusher))
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    s,
		Policies: policies,
		Metrics:  pusher,
		Handler:  handler.New(areas, syncer, logger.With("comp", "handler"), opts...),
	}
}

// Load builds the App for a Lambda process from the environment.
// Configuration errors are fatal.
func Load(ctx context.Context) *App {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg, os.Stdout)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	client, err := NewClient(ctx, cfg)
	if err != nil {
		logger.Error("unable to create DynamoDB client", "error", err)
		os.Exit(1)
	}

	a := New(cfg, client, nil, logger)
	logger.Info("reserve-rec api starting",
		"table", cfg.TableName,
		"region", cfg.AWSRegion,
		"endpoint", cfg.DynamoEndpoint,
		"policies", a.Policies.Domains(),
		"metrics", cfg.MetricsPushURL != "",
	)
	return a
}
