package model

import "strings"

// OrganizationKind selects which organization table and roles apply to a signup.
type OrganizationKind string

const (
	KindSchool     OrganizationKind = "school"
	KindCollege    OrganizationKind = "college"
	KindUniversity OrganizationKind = "university"
	KindCompany    OrganizationKind = "company"
)

// Role is the application role stored on an Account.
type Role string

const (
	RoleSchoolAdmin     Role = "school_admin"
	RoleCollegeAdmin    Role = "college_admin"
	RoleUniversityAdmin Role = "university_admin"
	RoleCompanyAdmin    Role = "company_admin"
	RoleSchoolStudent   Role = "school_student"
	RoleCollegeStudent  Role = "college_student"
	RoleSchoolEducator  Role = "school_educator"
	RoleCollegeEducator Role = "college_educator"
	RoleRecruiter       Role = "recruiter"
)

// MemberType selects the role record table for a joining member.
type MemberType string

const (
	MemberStudent   MemberType = "student"
	MemberEducator  MemberType = "educator"
	MemberRecruiter MemberType = "recruiter"
)

type kindInfo struct {
	table       string
	adminRole   Role
	memberRoles []Role
}

var kinds = map[OrganizationKind]kindInfo{
	KindSchool: {
		table:       "schools",
		adminRole:   RoleSchoolAdmin,
		memberRoles: []Role{RoleSchoolStudent, RoleSchoolEducator},
	},
	KindCollege: {
		table:       "colleges",
		adminRole:   RoleCollegeAdmin,
		memberRoles: []Role{RoleCollegeStudent, RoleCollegeEducator},
	},
	KindUniversity: {
		table:       "universities",
		adminRole:   RoleUniversityAdmin,
		memberRoles: []Role{RoleCollegeStudent, RoleCollegeEducator},
	},
	KindCompany: {
		table:       "companies",
		adminRole:   RoleCompanyAdmin,
		memberRoles: []Role{RoleRecruiter},
	},
}

type roleInfo struct {
	memberType  MemberType
	table       string
	displayName string
}

var roles = map[Role]roleInfo{
	RoleSchoolAdmin:     {displayName: "School Administrator"},
	RoleCollegeAdmin:    {displayName: "College Administrator"},
	RoleUniversityAdmin: {displayName: "University Administrator"},
	RoleCompanyAdmin:    {displayName: "Company Administrator"},
	RoleSchoolStudent:   {memberType: MemberStudent, table: "students", displayName: "Student"},
	RoleCollegeStudent:  {memberType: MemberStudent, table: "students", displayName: "Student"},
	RoleSchoolEducator:  {memberType: MemberEducator, table: "educators", displayName: "Educator"},
	RoleCollegeEducator: {memberType: MemberEducator, table: "educators", displayName: "Educator"},
	RoleRecruiter:       {memberType: MemberRecruiter, table: "recruiters", displayName: "Recruiter"},
}

// ParseOrganizationKind normalizes s and reports whether it names a known kind.
func ParseOrganizationKind(s string) (OrganizationKind, bool) {
	k := OrganizationKind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := kinds[k]
	return k, ok
}

// OrganizationKinds lists every known kind.
func OrganizationKinds() []OrganizationKind {
	return []OrganizationKind{KindSchool, KindCollege, KindUniversity, KindCompany}
}

// Valid reports whether k is a known kind.
func (k OrganizationKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Table is the organization table for k.
func (k OrganizationKind) Table() string {
	return kinds[k].table
}

// AdminRole is the role given to whoever registers an organization of kind k.
func (k OrganizationKind) AdminRole() Role {
	return kinds[k].adminRole
}

// Accepts reports whether members with role r may join an organization of kind k.
func (k OrganizationKind) Accepts(r Role) bool {
	for _, allowed := range kinds[k].memberRoles {
		if allowed == r {
			return true
		}
	}
	return false
}

// KindForAdminRole returns the organization kind administered by r.
func KindForAdminRole(r Role) (OrganizationKind, bool) {
	for k, info := range kinds {
		if info.adminRole == r {
			return k, true
		}
	}
	return "", false
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roles[r]
	return r, ok
}

// IsAdmin reports whether r administers an organization.
func (r Role) IsAdmin() bool {
	_, ok := KindForAdminRole(r)
	return ok
}

// MemberType is the role record type for r, empty for admin roles.
func (r Role) MemberType() MemberType {
	return roles[r].memberType
}

// DisplayName is the human readable role name used in notifications.
func (r Role) DisplayName() string {
	if name := roles[r].displayName; name != "" {
		return name
	}
	return string(r)
}

// Table is the role record table for members of type t.
func (t MemberType) Table() string {
	for _, info := range roles {
		if info.memberType == t {
			return info.table
		}
	}
	return ""
}
