package handler

import (
	"net/http"
	"time"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/payload"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/usecase"
)

func (h *provisioningHTTPHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.PasswordResetRequest
	if !h.decode(w, r, &req) {
		return
	}

	switch req.Action {
	case payload.ResetActionSend:
		h.requestPasswordReset(w, r, req)
	case payload.ResetActionVerify:
		if req.Email == "" {
			writeFailure(w, http.StatusBadRequest, "validation", "email is required", "email")
			return
		}
		h.confirmPasswordReset(w, r, req)
	case payload.ResetActionResetWithToken:
		h.confirmPasswordReset(w, r, req)
	case payload.ResetActionValidate:
		if err := h.passwordResetUsecase.ValidatePasswordResetToken(r.Context(), req.Token, req.Email); err != nil {
			h.writeError(w, r, err, "failed to validate password reset token")
			return
		}
		writeSuccess(w, payload.PasswordResetResponse{Message: "reset token is valid"}, "")
	}
}

func (h *provisioningHTTPHandler) requestPasswordReset(w http.ResponseWriter, r *http.Request, req payload.PasswordResetRequest) {
	if req.Email == "" {
		writeFailure(w, http.StatusBadRequest, "validation", "email is required", "email")
		return
	}

	result, err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err, "failed to request password reset")
		return
	}

	writeSuccess(w, payload.PasswordResetResponse{
		Message:   "password reset instructions sent",
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	}, result.Warning)
}

func (h *provisioningHTTPHandler) confirmPasswordReset(w http.ResponseWriter, r *http.Request, req payload.PasswordResetRequest) {
	err := h.passwordResetUsecase.ConfirmPasswordReset(r.Context(), usecase.ConfirmResetParams{
		Token:       req.Token,
		NewPassword: req.NewPassword,
		Email:       req.Email,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to reset password")
		return
	}

	writeSuccess(w, payload.PasswordResetResponse{Message: "password has been reset"}, "")
}
