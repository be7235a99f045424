package payload

import "strings"

// Normalizer is implemented by requests that clean up their fields before
// struct validation runs.
type Normalizer interface {
	Normalize()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *OrganizationAdminSignupRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
	r.OrgEmail = normalizeEmail(r.OrgEmail)
	r.OrgCode = strings.TrimSpace(r.OrgCode)
	r.OrgName = strings.TrimSpace(r.OrgName)
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
}

func (r *MemberSignupRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	r.Role = strings.TrimSpace(r.Role)
	r.OrganizationID = strings.TrimSpace(r.OrganizationID)
}

func (r *AdminCreateMemberRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Role = strings.TrimSpace(r.Role)
}

func (r *PasswordResetRequest) Normalize() {
	r.Action = strings.TrimSpace(r.Action)
	r.Email = normalizeEmail(r.Email)
	r.Token = strings.TrimSpace(r.Token)
}
