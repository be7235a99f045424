package model

import "time"

// Account is the application profile of a Principal. Its ID always equals
// the Principal ID returned by the identity service.
type Account struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	Role           Role
	OrganizationID *string
	IsActive       bool
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
