package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeBody reads a JSON body into dst, capped at maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var cv *domain.ErrContractViolation
		if errors.As(err, &cv) {
			return err
		}
		return &domain.ErrValidation{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

// queryKind reads ?kind=, defaulting to fallback when absent.
func queryKind(r *http.Request, fallback domain.ItemKind) (domain.ItemKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return fallback, nil
	}
	kind, ok := domain.ParseItemKind(raw)
	if !ok {
		return "", &domain.ErrValidation{Field: "kind", Message: "must be one of task, budget, vendor"}
	}
	return kind, nil
}

// parseCriteria reads filter parameters. Values that cannot be read are
// dropped rather than rejected, the same way the engine ignores unknown
// criteria values.
func parseCriteria(r *http.Request) planning.Criteria {
	q := r.URL.Query()
	c := planning.Criteria{
		Status:     q.Get("status"),
		Category:   q.Get("category"),
		Priority:   q.Get("priority"),
		SearchText: q.Get("q"),
	}
	if v := strings.TrimSpace(q.Get("due_within")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.DueWithinDays = &n
		}
	}
	return c
}

func parseOptions(r *http.Request) planning.Options {
	q := r.URL.Query()
	return planning.Options{
		ExcludeCompleted: queryBool(q.Get("hide_completed")),
		PerBucketStats:   queryBool(q.Get("bucket_stats")),
	}
}

func queryBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var contract *domain.ErrContractViolation
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &contract):
		logger.Warn("contract violation", zap.String("argument", contract.Argument), zap.String("reason", contract.Reason))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		logger.Error("upstream failure", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "planning store unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
