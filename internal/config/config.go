// Package config holds the process configuration of the reserve-rec API.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nyaruka/ezconf"

	"github.com/cameronpettit/reserve-rec-api/dataregister"
	"github.com/cameronpettit/reserve-rec-api/store"
)

// Config is our top level configuration object
type Config struct {
	TableName          string `help:"the DynamoDB table holding reserve-rec records"`
	AWSRegion          string `help:"the AWS region of the table"`
	DynamoEndpoint     string `help:"an alternate DynamoDB endpoint, e.g. http://localhost:8000 for DynamoDB Local"`
	TransactionMaxSize int    `help:"the maximum number of items committed in a single transaction (at most 100)"`

	DataRegisterEndpoint string `help:"the base URL of the BC Parks Data Register API"`
	DataRegisterAPIKey   string `help:"the API key sent to the Data Register"`

	MetricsPushURL string `help:"the Prometheus Pushgateway URL metrics are pushed to after each invocation, empty to disable"`

	LogLevel string `help:"the logging level (debug, info, warn or error)"`
}

// NewConfig returns a new default configuration object
func NewConfig() *Config {
	return &Config{
		TableName:            store.DefaultConfig().TableName,
		AWSRegion:            "ca-central-1",
		TransactionMaxSize:   store.MaxTransactionItems,
		DataRegisterEndpoint: dataregister.DefaultEndpoint,
		LogLevel:             "info",
	}
}

// Load reads the configuration from defaults, RESERVEREC_* environment
// variables and command line flags, in increasing precedence.
func Load() *Config {
	config := NewConfig()
	loader := ezconf.NewLoader(
		config,
		"reserverec", "Reserve Rec API - protected area records and Data Register sync",
		nil,
	)

	loader.MustLoad()
	return config
}

// Validate validates the config
func (c *Config) Validate() error {
	var errs []error
	if c.TableName == "" {
		errs = append(errs, errors.New("TableName is required"))
	}
	if c.TransactionMaxSize < 1 || c.TransactionMaxSize > store.MaxTransactionItems {
		errs = append(errs, fmt.Errorf("TransactionMaxSize must be between 1 and %d", store.MaxTransactionItems))
	}
	if c.MetricsPushURL != "" {
		if u, err := url.Parse(c.MetricsPushURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("MetricsPushURL %q is not an absolute URL", c.MetricsPushURL))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Store returns the store configuration.
func (c *Config) Store() store.Config {
	return store.Config{
		TableName:          c.TableName,
		TransactionMaxSize: c.TransactionMaxSize,
	}
}
