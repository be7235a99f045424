package payload

type OrganizationAdminSignupRequest struct {
	Email       string         `json:"email"       validate:"required,email"`
	Password    string         `json:"password"    validate:"required"`
	Name        string         `json:"name"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Phone       string         `json:"phone"       validate:"omitempty,max=32"`
	Kind        string         `json:"kind"`
	OrgName     string         `json:"orgName"     validate:"required"`
	OrgCode     string         `json:"orgCode"     validate:"required,max=64"`
	OrgEmail    string         `json:"orgEmail"    validate:"omitempty,email"`
	OrgPhone    string         `json:"orgPhone"`
	Website     string         `json:"website"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Country     string         `json:"country"`
	Pincode     string         `json:"pincode"`
	ContactName string         `json:"contactName"`
	Details     map[string]any `json:"details"`
}

type MemberSignupRequest struct {
	Email          string         `json:"email"          validate:"required,email"`
	Password       string         `json:"password"       validate:"required"`
	Name           string         `json:"name"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Phone          string         `json:"phone"          validate:"omitempty,max=32"`
	Kind           string         `json:"kind"`
	Role           string         `json:"role"           validate:"required"`
	OrganizationID string         `json:"organizationId" validate:"required"`
	Details        map[string]any `json:"details"`
}

type AdminCreateMemberRequest struct {
	Email     string         `json:"email"     validate:"required,email"`
	Name      string         `json:"name"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Phone     string         `json:"phone"     validate:"omitempty,max=32"`
	Role      string         `json:"role"      validate:"required"`
	Details   map[string]any `json:"details"`
}

type ProvisionResponse struct {
	AccountID      string `json:"accountId"`
	IdentityID     string `json:"identityId"`
	OrganizationID string `json:"organizationId,omitempty"`
	MemberID       string `json:"memberId,omitempty"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Kind           string `json:"kind"`
	Password       string `json:"password,omitempty"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}
