package api

import (
	"baldsphere-backend/internal/brain"
	"baldsphere-backend/internal/core"
	"baldsphere-backend/internal/storage"
	"baldsphere-backend/pkg/api"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

// failure carries the message shown to clients for errors that are not
// otherwise mapped; the wrapped error goes into details.
type failure struct {
	summary string
	err     error
}

func (e *failure) Error() string {
	return e.summary + ": " + e.err.Error()
}

func (e *failure) Unwrap() error {
	return e.err
}

func Failed(summary string, err error) error {
	return &failure{summary: summary, err: err}
}

// Reply lets a handler pick the status code and the top level envelope
// fields. Handlers returning anything else get a 200 with it as data.
type Reply struct {
	Status  int
	Data    any
	User    *api.User
	Message string
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func ParseRequest[T any](r *http.Request) (T, error) {
	var data T
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		slog.Error("error parsing request body", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "Invalid request body")
	}
	return data, nil
}

func ParseRequestQueryParams[T any](r *http.Request) (T, error) {
	var data T
	if err := r.ParseForm(); err != nil {
		slog.Error("error parsing form", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	if err := queryDecoder.Decode(&data, r.Form); err != nil {
		slog.Error("error decoding query params", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	return data, nil
}

// ParseUUIDParam parses an optional uuid query value. An empty value yields
// an invalid NullUUID.
func ParseUUIDParam(name, value string) (uuid.NullUUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.NullUUID{}, CodedErrorf(http.StatusBadRequest, "Invalid %s '%s'", name, value)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func errorResponse(err error) (int, api.Response) {
	var cerr *codedError
	var verr *core.ValidationError
	switch {
	case errors.As(err, &cerr):
		return cerr.code, api.Response{Error: cerr.err.Error()}
	case errors.As(err, &verr):
		return http.StatusBadRequest, api.Response{Error: verr.Reason}
	case errors.Is(err, core.ErrEmailTaken):
		return http.StatusConflict, api.Response{Error: core.ErrEmailTaken.Error()}
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized, api.Response{Error: core.ErrInvalidCredentials.Error()}
	case errors.Is(err, brain.ErrInappropriate):
		return http.StatusBadRequest, api.Response{Error: "Input contains inappropriate content"}
	}

	details := err.Error()
	summary := "Internal server error"
	var f *failure
	if errors.As(err, &f) {
		summary = f.summary
		details = f.err.Error()
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, api.Response{Error: "Record not found", Details: details}
	case storage.IsUnavailable(err):
		return http.StatusServiceUnavailable, api.Response{Error: "Database not available", Details: details}
	default:
		return http.StatusInternalServerError, api.Response{Error: summary, Details: details}
	}
}

func writeError(w http.ResponseWriter, err error, emptyData any) {
	code, res := errorResponse(err)
	if code >= http.StatusInternalServerError {
		slog.Error("internal server error received in endpoint", "code", code, "error", err)
	}
	res.Data = emptyData
	WriteJsonResponse(w, code, res)
}

func restHandler(handler func(r *http.Request) (any, error), emptyData any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			writeError(w, err, emptyData)
			return
		}

		if reply, ok := res.(Reply); ok {
			status := reply.Status
			if status == 0 {
				status = http.StatusOK
			}
			WriteJsonResponse(w, status, api.Response{Success: true, Data: reply.Data, User: reply.User, Message: reply.Message})
			return
		}

		if res == nil {
			res = struct{}{}
		}
		WriteJsonResponse(w, http.StatusOK, api.Response{Success: true, Data: res})
	}
}

func found[T any](items []T, noun string) Reply {
	if items == nil {
		items = []T{}
	}
	return Reply{Data: items, Message: fmt.Sprintf("Found %d %s", len(items), noun)}
}

func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return restHandler(handler, nil)
}

// ListHandler is RestHandler for collection endpoints: failures still carry
// an empty data array.
func ListHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return restHandler(handler, []any{})
}

func WriteJsonResponse(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error serializing response body", "error", err)
	}
}
