package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/ids"
)

// OrganizationRepository defines the relational operations on organizations of every kind.
type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, org *model.Organization) (*model.Organization, error)
	GetOrganization(ctx context.Context, kind model.OrganizationKind, id string) (*model.Organization, error)
	// CodeExists reports whether code is registered for an organization of any kind.
	CodeExists(ctx context.Context, code string) (bool, error)
}

const organizationColumns = `id, code, name, email, phone, website, address, city, state, country, pincode, contact_name, details, account_status, approval_status, created_by, created_at, updated_at`

type organizationPostgresRepository struct {
	db *sql.DB
}

// NewOrganizationPostgresRepository creates a PostgreSQL backed OrganizationRepository.
func NewOrganizationPostgresRepository(db *sql.DB) OrganizationRepository {
	return &organizationPostgresRepository{db: db}
}

func (r *organizationPostgresRepository) CreateOrganization(
	ctx context.Context,
	org *model.Organization,
) (*model.Organization, error) {
	if !org.Kind.Valid() {
		return nil, fmt.Errorf("unknown organization kind %q", org.Kind)
	}

	if org.ID == "" {
		org.ID = ids.New()
	}
	if org.AccountStatus == "" {
		org.AccountStatus = model.StatusPending
	}
	if org.ApprovalStatus == "" {
		org.ApprovalStatus = model.StatusPending
	}

	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now

	details, err := marshalJSON(org.Details)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// The shared code registry keeps codes unique across every kind table.
	_, err = tx.ExecContext(ctx,
		`insert into organization_codes(code, organization_id, organization_kind, created_at) values(lower($1),$2,$3,$4)`,
		org.Code, org.ID, string(org.Kind), org.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	query := fmt.Sprintf(
		`insert into %s(`+organizationColumns+`) values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		org.Kind.Table(),
	)
	_, err = tx.ExecContext(ctx, query,
		org.ID, org.Code, org.Name, org.Email, org.Phone, org.Website, org.Address,
		org.City, org.State, org.Country, org.Pincode, org.ContactName, details,
		org.AccountStatus, org.ApprovalStatus, org.CreatedBy, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}

	return org, nil
}

func (r *organizationPostgresRepository) GetOrganization(
	ctx context.Context,
	kind model.OrganizationKind,
	id string,
) (*model.Organization, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown organization kind %q", kind)
	}

	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`select `+organizationColumns+` from %s where id=$1`, kind.Table()), id)

	var (
		org     model.Organization
		details []byte
	)
	err := row.Scan(&org.ID, &org.Code, &org.Name, &org.Email, &org.Phone, &org.Website,
		&org.Address, &org.City, &org.State, &org.Country, &org.Pincode, &org.ContactName,
		&details, &org.AccountStatus, &org.ApprovalStatus, &org.CreatedBy, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	org.Kind = kind
	org.Details = unmarshalJSON(details)

	return &org, nil
}

func (r *organizationPostgresRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`select exists(select 1 from organization_codes where code=lower($1))`, code).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}
