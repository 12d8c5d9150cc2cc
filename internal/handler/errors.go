package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/repository"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind"`
	Stream string   `json:"stream,omitempty"`
	Found  []string `json:"found,omitempty"`
}

// StatusFor maps an engine error to an HTTP status and error kind
func StatusFor(err error) (int, string) {
	var (
		invalidRange *models.InvalidRangeError
		validation   *models.ValidationError
		missing      *models.MissingStreamError
		timeout      *models.UpstreamTimeoutError
		unavailable  *models.UpstreamUnavailableError
	)
	switch {
	case errors.As(err, &invalidRange):
		return http.StatusBadRequest, "invalid_range"
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &missing):
		return http.StatusNotFound, "missing_stream"
	case errors.Is(err, repository.ErrRuleNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.As(err, &unavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, kind := StatusFor(err)
	resp := errorResponse{Error: err.Error(), Kind: kind}

	var missing *models.MissingStreamError
	if errors.As(err, &missing) {
		resp.Stream = missing.Stream
		resp.Found = missing.Found
	}
	var timeout *models.UpstreamTimeoutError
	if errors.As(err, &timeout) {
		resp.Stream = timeout.Stream
	}
	var unavailable *models.UpstreamUnavailableError
	if errors.As(err, &unavailable) {
		resp.Stream = unavailable.Stream
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
