package payload

import "github.com/Rareminds-eym/skillpassport-sub044/shared/validation"

// Envelope wraps every JSON response body. Error is the human readable
// message; ErrorCode, Field and Details qualify it for clients that branch on them.
type Envelope struct {
	Success   bool                    `json:"success"`
	Data      any                     `json:"data,omitempty"`
	Error     string                  `json:"error,omitempty"`
	ErrorCode string                  `json:"errorCode,omitempty"`
	Field     string                  `json:"field,omitempty"`
	Details   []validation.FieldError `json:"details,omitempty"`
	Warning   string                  `json:"warning,omitempty"`
}
