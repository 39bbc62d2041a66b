package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/cameronpettit/reserve-rec-api/dataregister"
	"github.com/cameronpettit/reserve-rec-api/datasync"
	"github.com/cameronpettit/reserve-rec-api/protectedarea"
	"github.com/cameronpettit/reserve-rec-api/store"
	"github.com/cameronpettit/reserve-rec-api/update"
)

// Body is the JSON envelope of every response.
type Body struct {
	Code  int    `json:"code"`
	Data  any    `json:"data"`
	Msg   string `json:"msg"`
	Error any    `json:"error"`
}

var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,Authorization,X-Api-Key",
	"Access-Control-Allow-Methods": "OPTIONS,GET,PUT",
}

func respond(code int, data any, msg string, errDetail any) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(corsHeaders))
	for k, v := range corsHeaders {
		headers[k] = v
	}

	body, err := json.Marshal(Body{Code: code, Data: data, Msg: msg, Error: errDetail})
	if err != nil {
		code = http.StatusInternalServerError
		body = []byte(`{"code":500,"data":null,"msg":"Error","error":"failed to encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers:    headers,
		Body:       string(body),
	}
}

func success(data any) events.APIGatewayProxyResponse {
	return respond(http.StatusOK, data, "Success", nil)
}

// badRequest is a malformed request detected at the HTTP boundary.
type badRequest struct {
	msg string
	err error
}

func (e *badRequest) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *badRequest) Unwrap() error { return e.err }

func newBadRequest(msg string, err error) error {
	return &badRequest{msg: msg, err: err}
}

// failure maps err to a status code and response envelope.
func failure(err error) events.APIGatewayProxyResponse {
	var (
		ve *update.ValidationError
		br *badRequest
		se *store.StoreError
	)
	switch {
	case errors.As(err, &ve):
		return respond(ve.Code, nil, ve.Message, ve.Detail)
	case errors.As(err, &br):
		return respond(http.StatusBadRequest, nil, br.msg, errString(br.err))
	case errors.Is(err, store.ErrNotFound), errors.Is(err, datasync.ErrNoRecords):
		return respond(http.StatusNotFound, nil, "Not found", err.Error())
	case errors.Is(err, dataregister.ErrUnexpectedStatus):
		return respond(http.StatusBadGateway, nil, "Data Register error", err.Error())
	case errors.Is(err, store.ErrInvalidToken), errors.Is(err, protectedarea.ErrMissingOrcs):
		return respond(http.StatusBadRequest, nil, "Malformed request", err.Error())
	case store.IsConditionFailure(err):
		return respond(http.StatusConflict, chunkData(err), "Conditional check failed", err.Error())
	case errors.As(err, &se):
		return respond(http.StatusInternalServerError, chunkData(err), "Store error", err.Error())
	default:
		return respond(http.StatusInternalServerError, nil, "Error", err.Error())
	}
}

// chunkData reports how far a failed transactional batch got.
func chunkData(err error) any {
	var se *store.StoreError
	if !errors.As(err, &se) || se.Chunk < 0 {
		return nil
	}
	return map[string]int{
		"failedChunk":     se.Chunk,
		"committedChunks": se.Committed,
	}
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}
