package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
)

// AccountRepository defines the relational operations on account records.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateAccountOrganization(ctx context.Context, id, organizationID string) error
	DeleteAccount(ctx context.Context, id string) error
}

const accountColumns = `id, email, first_name, last_name, phone, role, organization_id, is_active, metadata, created_at, updated_at`

type accountPostgresRepository struct {
	db *sql.DB
}

// NewAccountPostgresRepository creates a PostgreSQL backed AccountRepository.
func NewAccountPostgresRepository(db *sql.DB) AccountRepository {
	return &accountPostgresRepository{db: db}
}

func (r *accountPostgresRepository) CreateAccount(
	ctx context.Context,
	account *model.Account,
) (*model.Account, error) {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	meta, err := marshalJSON(account.Metadata)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`insert into accounts(`+accountColumns+`) values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		account.ID, account.Email, account.FirstName, account.LastName, account.Phone,
		string(account.Role), account.OrganizationID, account.IsActive, meta,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return account, nil
}

func (r *accountPostgresRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `select `+accountColumns+` from accounts where id=$1`, id)
	return scanAccount(row)
}

func (r *accountPostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `select `+accountColumns+` from accounts where lower(email)=lower($1)`, email)
	return scanAccount(row)
}

func (r *accountPostgresRepository) UpdateAccountOrganization(ctx context.Context, id, organizationID string) error {
	res, err := r.db.ExecContext(ctx,
		`update accounts set organization_id=$1, updated_at=$2 where id=$3`,
		organizationID, time.Now().UTC(), id,
	)
	if err != nil {
		return mapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accountPostgresRepository) DeleteAccount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `delete from accounts where id=$1`, id)
	return mapError(err)
}

func scanAccount(row *sql.Row) (*model.Account, error) {
	var (
		a        model.Account
		role     string
		orgID    sql.NullString
		metadata []byte
	)
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Phone, &role,
		&orgID, &a.IsActive, &metadata, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	a.Role = model.Role(role)
	if orgID.Valid {
		a.OrganizationID = &orgID.String
	}
	a.Metadata = unmarshalJSON(metadata)

	return &a, nil
}
