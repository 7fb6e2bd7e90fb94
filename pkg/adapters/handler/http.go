package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
)

type HTTPHandler struct {
	links     *services.LinkAggregator
	history   *services.HistoryReader
	analytics *services.AnalyticsService
}

func NewHTTPHandler(links *services.LinkAggregator, history *services.HistoryReader, analytics *services.AnalyticsService) *HTTPHandler {
	return &HTTPHandler{links: links, history: history, analytics: analytics}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
}

// Dashboard lists links with their click counts
func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") != ""
	views, err := h.links.Current(r.Context(), refresh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, invalidBody(err))
		return
	}

	view, err := h.links.Create(r.Context(), req.OriginalURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.links.Delete(r.Context(), r.PathValue("short_code")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analytics for one link
func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.analytics.Analytics(r.Context(), r.PathValue("short_code"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Clicks returns one page of click history
func (h *HTTPHandler) Clicks(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.history.FetchPage(r.Context(), ports.PageRequest{
		ShortCode:  r.PathValue("short_code"),
		PageNumber: page,
		SortOrder:  domain.ParseSortOrder(r.URL.Query().Get("sort")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.Error{Kind: domain.KindValidationFailure, Op: "page", Message: "page must be an integer", Err: err}
	}
	return page, nil
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	res := errorResponse{Error: err.Error(), Kind: domain.KindUnknown.String()}
	status := http.StatusInternalServerError

	var derr *domain.Error
	switch {
	case errors.As(err, &derr):
		res.Kind = derr.Kind.String()
		res.Retryable = derr.Retryable()
		if derr.Message != "" {
			res.Error = derr.Message
		}
		status = statusForKind(derr.Kind)
	case errors.Is(err, services.ErrMissingCode),
		errors.Is(err, services.ErrStateMismatch),
		errors.Is(err, services.ErrAuthorizationDenied):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrCodeReplayed),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrLoginAbandoned):
		status = http.StatusConflict
	case errors.Is(err, services.ErrExchangeFailed):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func statusForKind(k domain.Kind) int {
	switch k {
	case domain.KindValidationFailure:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAuthRejected:
		return http.StatusUnauthorized
	case domain.KindNetworkFailure, domain.KindServerFailure, domain.KindShapeMismatch:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func invalidBody(err error) error {
	return &domain.Error{Kind: domain.KindValidationFailure, Op: "decode body", Message: "Invalid request body", Err: err}
}
