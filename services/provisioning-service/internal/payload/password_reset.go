package payload

const (
	ResetActionSend           = "send"
	ResetActionVerify         = "verify"
	ResetActionResetWithToken = "reset-with-token"
	ResetActionValidate       = "validate"
)

// PasswordResetRequest drives every step of the reset flow through one endpoint.
type PasswordResetRequest struct {
	Action      string `json:"action"      validate:"required,oneof=send verify reset-with-token validate"`
	Email       string `json:"email"       validate:"omitempty,email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type PasswordResetResponse struct {
	Message   string `json:"message"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}
