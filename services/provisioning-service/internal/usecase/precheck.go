package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/identity"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/repository"
)

// UniquenessPrechecker rejects signups whose email or organization code is
// already taken. It never mutates anything.
type UniquenessPrechecker struct {
	identity identity.Service
	accounts repository.AccountRepository
	orgs     repository.OrganizationRepository
}

// NewUniquenessPrechecker creates a new UniquenessPrechecker instance.
func NewUniquenessPrechecker(
	identitySvc identity.Service,
	accounts repository.AccountRepository,
	orgs repository.OrganizationRepository,
) *UniquenessPrechecker {
	return &UniquenessPrechecker{identity: identitySvc, accounts: accounts, orgs: orgs}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email has a non-empty local part and a dotted domain.
func ValidEmail(email string) bool {
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return false
	}

	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// Check validates email and, when orgCode is non-empty, the organization code.
func (p *UniquenessPrechecker) Check(ctx context.Context, email, orgCode string) error {
	if err := p.CheckEmail(ctx, email); err != nil {
		return err
	}
	if orgCode == "" {
		return nil
	}
	return p.CheckOrganizationCode(ctx, orgCode)
}

// CheckEmail fails with a Conflict when email belongs to a principal or an account.
func (p *UniquenessPrechecker) CheckEmail(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return validationError("email", "a valid email address is required")
	}

	_, err := identity.FindByEmail(ctx, p.identity, email)
	switch {
	case err == nil:
		return conflictError("email", "an account with this email already exists", nil)
	case !errors.Is(err, identity.ErrPrincipalNotFound):
		return upstreamError("could not verify email availability", err)
	}

	_, err = p.accounts.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return conflictError("email", "an account with this email already exists", nil)
	case !errors.Is(err, repository.ErrNotFound):
		return upstreamError("could not verify email availability", err)
	}

	return nil
}

// CheckOrganizationCode fails with a Conflict when code is used by any organization.
func (p *UniquenessPrechecker) CheckOrganizationCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return validationError("orgCode", "organization code is required")
	}

	exists, err := p.orgs.CodeExists(ctx, code)
	if err != nil {
		return upstreamError("could not verify organization code availability", err)
	}
	if exists {
		return conflictError("orgCode", "organization code is already in use", nil)
	}

	return nil
}
