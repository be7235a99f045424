package model

import "time"

// Member is the role record linking an Account to the organization it joined.
type Member struct {
	ID               string
	AccountID        string
	OrganizationID   string
	OrganizationKind OrganizationKind
	MemberType       MemberType
	Details          map[string]any
	ApprovalStatus   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
