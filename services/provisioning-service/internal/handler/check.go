package handler

import (
	"errors"
	"net/http"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/payload"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/usecase"
)

func (h *provisioningHTTPHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	h.writeAvailability(w, r, h.prechecker.CheckEmail(r.Context(), r.URL.Query().Get("email")))
}

// CheckOrganizationCode ignores the kind parameter; codes are unique across all kinds.
func (h *provisioningHTTPHandler) CheckOrganizationCode(w http.ResponseWriter, r *http.Request) {
	h.writeAvailability(w, r, h.prechecker.CheckOrganizationCode(r.Context(), r.URL.Query().Get("code")))
}

func (h *provisioningHTTPHandler) writeAvailability(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeSuccess(w, payload.AvailabilityResponse{Available: true}, "")
	case errors.Is(err, usecase.ErrConflict):
		writeSuccess(w, payload.AvailabilityResponse{Available: false}, "")
	default:
		h.writeError(w, r, err, "availability check failed")
	}
}
