package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/report"
)

// Error kinds reported in the JSON error envelope.
const (
	KindInvalidFilter   = "invalid_filter"
	KindInvalidLimit    = "invalid_limit"
	KindExportError     = "export_error"
	KindValidationError = "validation_error"
	KindNotFound        = "not_found"
	KindRateLimited     = "rate_limited"
	KindInternalError   = "internal_error"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorKind(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Kind: kind, Message: message}})
}

// classify maps an error to its HTTP status and envelope kind.
func classify(err error) (int, string) {
	var (
		filterErr *report.InvalidFilterError
		limitErr  *report.InvalidLimitError
		exportErr *export.ExportError
	)
	switch {
	case errors.As(err, &filterErr):
		return http.StatusBadRequest, KindInvalidFilter
	case errors.As(err, &limitErr):
		return http.StatusBadRequest, KindInvalidLimit
	case errors.As(err, &exportErr):
		return http.StatusUnprocessableEntity, KindExportError
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest, KindExportError
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, ledger.ErrDuplicateID):
		return http.StatusConflict, KindValidationError
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, KindValidationError
	case isValidationError(err):
		return http.StatusBadRequest, KindValidationError
	default:
		return http.StatusInternalServerError, KindInternalError
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidType,
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrEmptyCategory,
		core.ErrCategoryTooLong,
		core.ErrDescriptionTooLong,
		errMalformedBody,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError writes err in the error envelope. Internal errors are logged
// and their message is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, kind := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, operation, nil)
		message = "internal server error"
	}
	writeErrorKind(w, status, kind, message)
}
