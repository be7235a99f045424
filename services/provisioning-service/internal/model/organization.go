package model

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Organization is a school, college, university or company registered by its admin.
type Organization struct {
	ID             string
	Kind           OrganizationKind
	Code           string
	Name           string
	Email          string
	Phone          string
	Website        string
	Address        string
	City           string
	State          string
	Country        string
	Pincode        string
	ContactName    string
	Details        map[string]any
	AccountStatus  string
	ApprovalStatus string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
