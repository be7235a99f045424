package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/ids"
)

// MemberRepository defines the relational operations on role records.
type MemberRepository interface {
	CreateMember(ctx context.Context, member *model.Member) (*model.Member, error)
}

type memberPostgresRepository struct {
	db *sql.DB
}

// NewMemberPostgresRepository creates a PostgreSQL backed MemberRepository.
func NewMemberPostgresRepository(db *sql.DB) MemberRepository {
	return &memberPostgresRepository{db: db}
}

func (r *memberPostgresRepository) CreateMember(ctx context.Context, member *model.Member) (*model.Member, error) {
	table := member.MemberType.Table()
	if table == "" {
		return nil, fmt.Errorf("unknown member type %q", member.MemberType)
	}

	if member.ID == "" {
		member.ID = ids.New()
	}
	if member.ApprovalStatus == "" {
		member.ApprovalStatus = model.StatusPending
	}

	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	details, err := marshalJSON(member.Details)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`insert into %s(id, account_id, organization_id, organization_kind, details, approval_status, created_at, updated_at) values($1,$2,$3,$4,$5,$6,$7,$8)`, table),
		member.ID, member.AccountID, member.OrganizationID, string(member.OrganizationKind),
		details, member.ApprovalStatus, member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return member, nil
}
