// Package httpapi serves the job store over REST under `/api/v1`.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hylla/skadi/internal/adapters/server/common"
	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter.
type Handler struct {
	store    app.Store
	validate *common.Validator
	logger   app.Logger
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs the REST adapter over store. logger may be nil.
func NewHandler(store app.Store, logger app.Logger) *Handler {
	return &Handler{
		store:    store,
		validate: common.NewValidator(),
		logger:   logger,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 1 && parts[0] == "lists":
		switch r.Method {
		case http.MethodGet:
			h.handleListJobLists(w, r)
		case http.MethodPost:
			h.handleCreateJobList(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 2 && parts[0] == "lists":
		switch r.Method {
		case http.MethodGet:
			h.handleGetJobList(w, r, parts[1])
		case http.MethodDelete:
			h.handleDeleteJobList(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
	case len(parts) == 3 && parts[0] == "lists" && parts[2] == "statuses":
		switch r.Method {
		case http.MethodGet:
			h.handleListStatuses(w, r, parts[1])
		case http.MethodPost:
			h.handleCreateStatus(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 3 && parts[0] == "lists" && parts[2] == "items":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListItems(w, r, parts[1])
	case len(parts) == 1 && parts[0] == "items":
		switch r.Method {
		case http.MethodPost:
			h.handleCreateItem(w, r)
		case http.MethodPut:
			h.handleUpsertRanks(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodPost, http.MethodPut)
		}
	case len(parts) == 2 && parts[0] == "items":
		switch r.Method {
		case http.MethodGet:
			h.handleGetItem(w, r, parts[1])
		case http.MethodPatch:
			h.handlePatchItem(w, r, parts[1])
		case http.MethodDelete:
			h.handleDeleteItem(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handleListJobLists serves GET `/lists`.
func (h *Handler) handleListJobLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.store.ListJobLists(r.Context())
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	out := make([]common.JobList, 0, len(lists))
	for _, list := range lists {
		out = append(out, common.FromJobList(list))
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": out})
}

// handleCreateJobList serves POST `/lists`.
func (h *Handler) handleCreateJobList(w http.ResponseWriter, r *http.Request) {
	var req common.CreateListRequest
	if err := h.decodeAndValidate(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	list, err := h.store.InsertJobList(r.Context(), req.Title)
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.FromJobList(list))
}

// handleGetJobList serves GET `/lists/{id}`.
func (h *Handler) handleGetJobList(w http.ResponseWriter, r *http.Request, id string) {
	list, err := h.store.GetJobList(r.Context(), id)
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, common.FromJobList(list))
}

// handleDeleteJobList serves DELETE `/lists/{id}`.
func (h *Handler) handleDeleteJobList(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.DeleteJobList(r.Context(), id); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListStatuses serves GET `/lists/{id}/statuses`.
func (h *Handler) handleListStatuses(w http.ResponseWriter, r *http.Request, listID string) {
	statuses, err := h.store.ListStatuses(r.Context(), listID)
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	out := make([]common.JobStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, common.FromJobStatus(status))
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": out})
}

// handleCreateStatus serves POST `/lists/{id}/statuses`.
func (h *Handler) handleCreateStatus(w http.ResponseWriter, r *http.Request, listID string) {
	var req common.CreateStatusRequest
	if err := h.decodeAndValidate(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	status, err := h.store.InsertStatus(r.Context(), listID, req.Title, req.Order)
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.FromJobStatus(status))
}

// handleListItems serves GET `/lists/{id}/items`.
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request, listID string) {
	items, err := h.store.ListItems(r.Context(), listID)
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	out := make([]common.JobItem, 0, len(items))
	for _, item := range items {
		out = append(out, common.FromJobItem(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// handleCreateItem serves POST `/items`.
func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req common.CreateItemRequest
	if err := h.decodeAndValidate(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	item, err := h.store.InsertItem(r.Context(), req.Input())
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.FromJobItem(item))
}

// handleGetItem serves GET `/items/{id}`.
func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, common.FromJobItem(item))
}

// handlePatchItem serves PATCH `/items/{id}`.
func (h *Handler) handlePatchItem(w http.ResponseWriter, r *http.Request, id string) {
	var req common.PatchItemRequest
	if err := h.decodeAndValidate(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	if err := h.store.UpdateItem(r.Context(), id, req.Patch()); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpsertRanks serves PUT `/items`.
func (h *Handler) handleUpsertRanks(w http.ResponseWriter, r *http.Request) {
	var req common.UpsertRanksRequest
	if err := h.decodeAndValidate(r.Context(), w, r, &req); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	if err := h.store.UpsertRanks(r.Context(), req.Domain()); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteItem serves DELETE `/items/{id}`.
func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.DeleteItem(r.Context(), id); err != nil {
		h.writeErrorFrom(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// splitPath canonicalizes one request path into its segments.
func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil
		}
	}
	return parts
}

// writeErrorFrom maps store and validation errors into structured HTTP responses.
func (h *Handler) writeErrorFrom(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, app.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.As(err, &verr):
		apiErr := APIError{
			Code:    "validation_failed",
			Message: err.Error(),
			Context: map[string]any{"field": verr.Field},
		}
		if verr.Limit > 0 {
			apiErr.Context["max"] = verr.Limit
		}
		writeJSONError(w, http.StatusBadRequest, apiErr)
	case errors.Is(err, common.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidStatusID),
		errors.Is(err, domain.ErrInvalidPosition):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		if h.logger != nil {
			h.logger.Error("api request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		}
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeAndValidate decodes one required JSON body and checks its struct tags.
func (h *Handler) decodeAndValidate(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	if err := decodeJSONBody(ctx, w, r, out); err != nil {
		return err
	}
	return h.validate.Struct(out)
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
