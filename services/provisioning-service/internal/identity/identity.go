package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrPrincipalExists   = errors.New("identity: principal already exists")
	ErrPrincipalNotFound = errors.New("identity: principal not found")
)

// Principal is a login identity owned by the identity service.
type Principal struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Metadata       map[string]any
	CreatedAt      time.Time
}

// CreatePrincipalParams defines the parameters for creating a principal.
type CreatePrincipalParams struct {
	Email     string
	Password  string
	Confirmed bool
	Metadata  map[string]any
}

// Service is the subset of an identity service used for provisioning and resets.
type Service interface {
	// CreatePrincipal fails with ErrPrincipalExists when the email is taken.
	CreatePrincipal(ctx context.Context, params CreatePrincipalParams) (*Principal, error)
	DeletePrincipal(ctx context.Context, id string) error
	// ListPrincipals returns every principal; callers scan it client-side.
	ListPrincipals(ctx context.Context) ([]*Principal, error)
	UpdatePrincipalPassword(ctx context.Context, id, newPassword string) error
}

// FindByEmail scans the full principal list for email, case-insensitively.
func FindByEmail(ctx context.Context, svc Service, email string) (*Principal, error) {
	principals, err := svc.ListPrincipals(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range principals {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}

	return nil, ErrPrincipalNotFound
}
