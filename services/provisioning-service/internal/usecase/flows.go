package usecase

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
)

// Flow selects which dependent record a provisioning run creates.
type Flow string

const (
	// FlowCreateOrganization registers an organization and its admin account.
	FlowCreateOrganization Flow = "create_organization"
	// FlowJoinOrganization adds a member account to an existing organization.
	FlowJoinOrganization Flow = "join_organization"
)

// Initiator tells who started the run.
type Initiator string

const (
	InitiatorSelf  Initiator = "self"
	InitiatorAdmin Initiator = "admin"
)

// OrganizationDetails describes the organization registered by FlowCreateOrganization.
type OrganizationDetails struct {
	Code        string
	Name        string
	Email       string
	Phone       string
	Website     string
	Address     string
	City        string
	State       string
	Country     string
	Pincode     string
	ContactName string
	Details     map[string]any
}

// ProvisionRequest is the input of a provisioning run. OrganizationID must be
// resolved by the caller for join flows.
type ProvisionRequest struct {
	Flow      Flow
	Initiator Initiator
	Kind      model.OrganizationKind
	Role      model.Role

	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string

	Organization   *OrganizationDetails
	OrganizationID string
	MemberDetails  map[string]any

	// ActorID is the principal of the administrator for InitiatorAdmin runs.
	ActorID string
}

// ProvisionResult identifies every record created by a successful run.
type ProvisionResult struct {
	AccountID      string
	IdentityID     string
	OrganizationID string
	MemberID       string
	Email          string
	Role           model.Role
	Kind           model.OrganizationKind
	// Password is set only when it was generated for an admin-initiated run.
	Password string
	Warning  string
}

const (
	generatedPasswordLength   = 12
	generatedPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789!@#$%"
)

func (r *ProvisionRequest) normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.OrganizationID = strings.TrimSpace(r.OrganizationID)

	if r.Kind == "" {
		r.Kind = model.KindSchool
	}
	if r.Flow == FlowCreateOrganization && r.Kind.Valid() {
		r.Role = r.Kind.AdminRole()
	}

	if org := r.Organization; org != nil {
		org.Code = strings.TrimSpace(org.Code)
		org.Name = strings.TrimSpace(org.Name)
		org.Email = NormalizeEmail(org.Email)
	}
}

func (r *ProvisionRequest) validate(minPasswordLength int) error {
	if !ValidEmail(r.Email) {
		return validationError("email", "a valid email address is required")
	}
	if !r.Kind.Valid() {
		return validationError("kind", "unknown organization kind")
	}

	switch r.Initiator {
	case InitiatorSelf:
		if len(r.Password) < minPasswordLength {
			return validationError("password", "password is too short")
		}
	case InitiatorAdmin:
		if r.ActorID == "" {
			return validationError("actor", "administrator identity is required")
		}
	default:
		return validationError("initiator", "unknown initiator")
	}

	switch r.Flow {
	case FlowCreateOrganization:
		if r.Initiator != InitiatorSelf {
			return validationError("initiator", "organizations are registered by their administrator")
		}
		if r.Organization == nil || r.Organization.Name == "" {
			return validationError("orgName", "organization name is required")
		}
		if r.Organization.Code == "" {
			return validationError("orgCode", "organization code is required")
		}
	case FlowJoinOrganization:
		if r.OrganizationID == "" {
			return validationError("organizationId", "organization is required")
		}
		if !r.Kind.Accepts(r.Role) {
			return validationError("role", "role cannot join this kind of organization")
		}
	default:
		return validationError("flow", "unknown provisioning flow")
	}

	return nil
}

// SplitName splits a full name at the first space into first and last name.
func SplitName(full string) (string, string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func generatePassword() (string, error) {
	limit := big.NewInt(int64(len(generatedPasswordAlphabet)))
	buf := make([]byte, generatedPasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = generatedPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
