package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/payload"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/usecase"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/validation"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeSuccess(w http.ResponseWriter, data any, warning string) {
	writeJSON(w, http.StatusOK, payload.Envelope{Success: true, Data: data, Warning: warning})
}

func writeFailure(w http.ResponseWriter, status int, code, message, field string) {
	writeJSON(w, status, payload.Envelope{Error: message, ErrorCode: code, Field: field})
}

// WriteUnauthorized is the response used by the bearer token middleware.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	writeFailure(w, http.StatusUnauthorized, "unauthorized", message, "")
}

func writeValidationErrors(w http.ResponseWriter, errs validation.Errors) {
	env := payload.Envelope{Error: errs.Error(), ErrorCode: "validation", Details: errs}
	if len(errs) > 0 {
		env.Field = errs[0].Field
	}
	writeJSON(w, http.StatusBadRequest, env)
}

// writeError maps usecase errors to a status code. Causes are logged, never returned.
func (h *provisioningHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var uerr *usecase.Error
	if !errors.As(err, &uerr) {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
		writeFailure(w, http.StatusInternalServerError, "internal", "something went wrong", "")
		return
	}

	switch {
	case errors.Is(uerr.Kind, usecase.ErrValidation):
		writeFailure(w, http.StatusBadRequest, "validation", uerr.Message, uerr.Field)
	case errors.Is(uerr.Kind, usecase.ErrConflict):
		writeFailure(w, http.StatusBadRequest, "conflict", uerr.Message, uerr.Field)
	case errors.Is(uerr.Kind, usecase.ErrNotFound):
		code := "not_found"
		if errors.Is(err, usecase.ErrTokenExpired) {
			code = "token_expired"
		}
		writeFailure(w, http.StatusNotFound, code, uerr.Message, uerr.Field)
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
		writeFailure(w, http.StatusInternalServerError, "upstream", uerr.Message, "")
	}
}

// decode reads a JSON body into dst and runs struct validation. It writes the
// failure response itself and reports whether the handler may continue.
func (h *provisioningHTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeFailure(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON", "")
		return false
	}

	if n, ok := dst.(payload.Normalizer); ok {
		n.Normalize()
	}

	if err := h.validator.Struct(dst); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			writeValidationErrors(w, verrs)
			return false
		}
		h.logger.Error().Err(err).Msg("failed to validate request")
		writeFailure(w, http.StatusInternalServerError, "internal", "something went wrong", "")
		return false
	}

	return true
}
