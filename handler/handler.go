// Package handler provides the AWS Lambda API Gateway handlers of the reserve-rec API.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cameronpettit/reserve-rec-api/datasync"
	"github.com/cameronpettit/reserve-rec-api/protectedarea"
	"github.com/cameronpettit/reserve-rec-api/store"
	"github.com/cameronpettit/reserve-rec-api/update"
)

// ProtectedAreas is the protected area service used by the handlers.
type ProtectedAreas interface {
	List(ctx context.Context, params protectedarea.ListParams) (*store.Page, error)
	Get(ctx context.Context, orcs string) (store.Record, error)
	Update(ctx context.Context, items []protectedarea.UpdateItem) (*update.Result, error)
}

// Syncer runs a Data Register synchronization.
type Syncer interface {
	Run(ctx context.Context) (*datasync.Summary, error)
}

// MetricsPusher exports the process metrics at the end of an invocation.
type MetricsPusher interface {
	Push(ctx context.Context) error
}

// Handler serves the protected area endpoints and the Data Register sync.
type Handler struct {
	areas   ProtectedAreas
	syncer  Syncer
	metrics MetricsPusher
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics pushes metrics through m after every invocation.
func WithMetrics(m MetricsPusher) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// New creates a new Handler. Either dependency may be nil for processes that don't serve it.
func New(areas ProtectedAreas, syncer Syncer, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		areas:  areas,
		syncer: syncer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// flush pushes metrics; a failed push never fails the invocation.
func (h *Handler) flush(ctx context.Context) {
	if h.metrics == nil {
		return
	}
	if err := h.metrics.Push(ctx); err != nil {
		h.logger.Warn("unable to push metrics", "error", err)
	}
}

// ListResponse is the data of a protected area listing.
type ListResponse struct {
	Items            []store.Record `json:"items"`
	LastEvaluatedKey string         `json:"lastEvaluatedKey,omitempty"`
}

// UpdateResponse is the data of a protected area update.
type UpdateResponse struct {
	Updated int           `json:"updated"`
	Skipped []SkippedItem `json:"skipped,omitempty"`
}

// SkippedItem is an update item left out of the batch.
type SkippedItem struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// GetProtectedAreas lists protected areas.
// Query parameters: limit, lastEvaluatedKey (a continuation token) and paginated=false to fetch all.
func (h *Handler) GetProtectedAreas(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("get protected areas", "request_id", req.RequestContext.RequestID, "params", req.QueryStringParameters)
	defer h.flush(ctx)
	if req.HTTPMethod == http.MethodOptions {
		return success(nil), nil
	}

	params, err := listParams(req.QueryStringParameters)
	if err != nil {
		return h.fail(err), nil
	}

	page, err := h.areas.List(ctx, params)
	if err != nil {
		return h.fail(err), nil
	}

	token, err := store.EncodeToken(page.LastEvaluatedKey)
	if err != nil {
		return h.fail(err), nil
	}
	return success(ListResponse{Items: page.Items, LastEvaluatedKey: token}), nil
}

func listParams(query map[string]string) (protectedarea.ListParams, error) {
	var params protectedarea.ListParams

	if v := query["limit"]; v != "" {
		limit, err := strconv.ParseInt(v, 10, 32)
		if err != nil || limit < 1 {
			return params, newBadRequest("limit must be a positive integer", err)
		}
		params.Limit = int32(limit)
	}

	startKey, err := store.DecodeToken(query["lastEvaluatedKey"])
	if err != nil {
		return params, newBadRequest("invalid lastEvaluatedKey", err)
	}
	params.StartKey = startKey

	if v := query["paginated"]; v != "" {
		paginated, err := strconv.ParseBool(v)
		if err != nil {
			return params, newBadRequest("paginated must be true or false", err)
		}
		params.FetchAll = !paginated
	}
	return params, nil
}

// GetProtectedArea returns the protected area named by the orcs path parameter.
func (h *Handler) GetProtectedArea(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("get protected area", "request_id", req.RequestContext.RequestID, "path", req.PathParameters)
	defer h.flush(ctx)
	if req.HTTPMethod == http.MethodOptions {
		return success(nil), nil
	}

	orcs := req.PathParameters["orcs"]
	if orcs == "" {
		return h.fail(newBadRequest("ORCS is required", nil)), nil
	}

	rec, err := h.areas.Get(ctx, orcs)
	if err != nil {
		return h.fail(err), nil
	}
	return success(rec), nil
}

// PutProtectedArea updates the protected area named by the orcs path parameter.
// The body is a single update request; any key it carries is ignored.
func (h *Handler) PutProtectedArea(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("put protected area", "request_id", req.RequestContext.RequestID, "path", req.PathParameters)
	defer h.flush(ctx)
	if req.HTTPMethod == http.MethodOptions {
		return success(nil), nil
	}

	var actions update.Request
	if err := decodeBody(req.Body, &actions); err != nil {
		return h.fail(err), nil
	}
	orcs := req.PathParameters["orcs"]
	if orcs == "" {
		return h.fail(newBadRequest("ORCS is required", nil)), nil
	}

	result, err := h.areas.Update(ctx, []protectedarea.UpdateItem{{Orcs: orcs, Actions: actions}})
	if err != nil {
		return h.fail(err), nil
	}
	return success(updateResponse(result)), nil
}

type batchItem struct {
	Orcs    json.RawMessage `json:"orcs"`
	Actions *update.Request `json:"actions"`
}

// PutProtectedAreas updates many protected areas. The body is an array of
// {orcs, actions} items.
func (h *Handler) PutProtectedAreas(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("put protected areas", "request_id", req.RequestContext.RequestID)
	defer h.flush(ctx)
	if req.HTTPMethod == http.MethodOptions {
		return success(nil), nil
	}

	body := strings.TrimSpace(req.Body)
	if body != "" && !strings.HasPrefix(body, "[") {
		return h.fail(newBadRequest("Body must be an array", nil)), nil
	}
	var batch []batchItem
	if err := decodeBody(body, &batch); err != nil {
		return h.fail(err), nil
	}

	items := make([]protectedarea.UpdateItem, 0, len(batch))
	for i, b := range batch {
		orcs, ok := orcsString(b.Orcs)
		if !ok || b.Actions == nil {
			return h.fail(newBadRequest("ORCS and actions are required for every update item",
				&itemError{index: i})), nil
		}
		items = append(items, protectedarea.UpdateItem{Orcs: orcs, Actions: *b.Actions})
	}

	result, err := h.areas.Update(ctx, items)
	if err != nil {
		return h.fail(err), nil
	}
	return success(updateResponse(result)), nil
}

type itemError struct{ index int }

func (e *itemError) Error() string { return "item " + strconv.Itoa(e.index) }

// orcsString accepts an ORCS given as a JSON string or number.
func orcsString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// SyncDataRegister runs the Data Register synchronization. It is triggered on a schedule.
func (h *Handler) SyncDataRegister(ctx context.Context, event events.CloudWatchEvent) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("sync data register", "event_id", event.ID)
	defer h.flush(ctx)

	summary, err := h.syncer.Run(ctx)
	if err != nil {
		return h.fail(err), nil
	}
	return success(summary), nil
}

func (h *Handler) fail(err error) events.APIGatewayProxyResponse {
	resp := failure(err)
	if resp.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", resp.StatusCode, "error", err)
	} else {
		h.logger.Warn("request rejected", "status", resp.StatusCode, "error", err)
	}
	return resp
}

func decodeBody(body string, v any) error {
	if strings.TrimSpace(body) == "" {
		return newBadRequest("Body is required", nil)
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return newBadRequest("Malformed request body", err)
	}
	return nil
}

func updateResponse(result *update.Result) UpdateResponse {
	resp := UpdateResponse{Updated: len(result.Operations)}
	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedItem{Index: s.Index, Error: s.Err.Error()})
	}
	return resp
}
