package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestCreateAccountUsesPrincipalID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountPostgresRepository(db)

	mock.ExpectExec("insert into accounts").
		WithArgs("principal-1", "admin@school.edu", "Asha", "Rao", "", "school_admin",
			nil, true, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	account, err := repo.CreateAccount(context.Background(), &model.Account{
		ID:        "principal-1",
		Email:     "admin@school.edu",
		FirstName: "Asha",
		LastName:  "Rao",
		Role:      model.RoleSchoolAdmin,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if account.ID != "principal-1" || account.CreatedAt.IsZero() {
		t.Fatalf("unexpected account: %+v", account)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAccountMapsUniqueViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountPostgresRepository(db)

	mock.ExpectExec("insert into accounts").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.CreateAccount(context.Background(), &model.Account{ID: "p", Email: "a@b.co", Role: model.RoleRecruiter})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetAccountByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountPostgresRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "phone", "role",
		"organization_id", "is_active", "metadata", "created_at", "updated_at"}).
		AddRow("p1", "admin@school.edu", "Asha", "Rao", "", "school_admin", "org-1", true,
			[]byte(`{"source":"self_signup"}`), now, now)
	mock.ExpectQuery("select .* from accounts where lower\\(email\\)=lower\\(\\$1\\)").
		WithArgs("admin@school.edu").
		WillReturnRows(rows)

	account, err := repo.GetAccountByEmail(context.Background(), "admin@school.edu")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	if account.OrganizationID == nil || *account.OrganizationID != "org-1" {
		t.Fatalf("organization id = %v", account.OrganizationID)
	}
	if account.Metadata["source"] != "self_signup" {
		t.Fatalf("metadata = %v", account.Metadata)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountPostgresRepository(db)

	mock.ExpectQuery("select .* from accounts where id=\\$1").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetAccount(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAccountOrganization(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountPostgresRepository(db)

	mock.ExpectExec("update accounts set organization_id").
		WithArgs("org-1", sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update accounts set organization_id").
		WithArgs("org-1", sqlmock.AnyArg(), "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateAccountOrganization(context.Background(), "p1", "org-1"); err != nil {
		t.Fatalf("UpdateAccountOrganization: %v", err)
	}
	if err := repo.UpdateAccountOrganization(context.Background(), "gone", "org-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountPostgresRepository(db)

	mock.ExpectExec("delete from accounts where id=\\$1").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteAccount(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrganizationTargetsKindTable(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrganizationPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("insert into organization_codes").
		WithArgs("CLG1", sqlmock.AnyArg(), "college", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into colleges").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	org, err := repo.CreateOrganization(context.Background(), &model.Organization{
		Kind:      model.KindCollege,
		Code:      "CLG1",
		Name:      "Riverside College",
		CreatedBy: "p1",
	})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.ID == "" || org.AccountStatus != model.StatusPending || org.ApprovalStatus != model.StatusPending {
		t.Fatalf("unexpected organization: %+v", org)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrganizationRejectsUnknownKind(t *testing.T) {
	db, _ := newMock(t)
	repo := NewOrganizationPostgresRepository(db)

	if _, err := repo.CreateOrganization(context.Background(), &model.Organization{Kind: "hospital"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestCreateOrganizationRejectsCodeTakenByOtherKind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrganizationPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("insert into organization_codes").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "organization_codes_pkey"})
	mock.ExpectRollback()

	_, err := repo.CreateOrganization(context.Background(), &model.Organization{
		Kind:      model.KindCompany,
		Code:      "SCH1",
		Name:      "Acme",
		CreatedBy: "p1",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrganizationRollsBackOnKindTableConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrganizationPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("insert into organization_codes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into schools").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "schools_code_key"})
	mock.ExpectRollback()

	_, err := repo.CreateOrganization(context.Background(), &model.Organization{
		Kind:      model.KindSchool,
		Code:      "SCH1",
		Name:      "Hill School",
		CreatedBy: "p1",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCodeExistsUsesSharedRegistry(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrganizationPostgresRepository(db)

	mock.ExpectQuery("select exists\\(select 1 from organization_codes where code=lower\\(\\$1\\)\\)").
		WithArgs("SCH1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CodeExists(context.Background(), "SCH1")
	if err != nil {
		t.Fatalf("CodeExists: %v", err)
	}
	if !exists {
		t.Fatal("expected code to exist")
	}
}

func TestGetOrganizationNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrganizationPostgresRepository(db)

	mock.ExpectQuery("select .* from schools where id=\\$1").WithArgs("org-x").WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetOrganization(context.Background(), model.KindSchool, "org-x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateMemberTargetsMemberTable(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberPostgresRepository(db)

	mock.ExpectExec("insert into educators").
		WithArgs(sqlmock.AnyArg(), "p1", "org-1", "college", sqlmock.AnyArg(), "approved", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	member, err := repo.CreateMember(context.Background(), &model.Member{
		AccountID:        "p1",
		OrganizationID:   "org-1",
		OrganizationKind: model.KindCollege,
		MemberType:       model.MemberEducator,
		ApprovalStatus:   model.StatusApproved,
	})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if member.ID == "" {
		t.Fatal("member id not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetTokenLifecycle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPasswordResetTokenPostgresRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(30 * time.Minute)

	mock.ExpectExec("insert into reset_tokens").
		WithArgs(sqlmock.AnyArg(), "user@x.com", "digest", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("select id, email, token_hash, expires_at, created_at from reset_tokens where token_hash=\\$1").
		WithArgs("digest").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "token_hash", "expires_at", "created_at"}).
			AddRow("t1", "user@x.com", "digest", expires, time.Now()))
	mock.ExpectExec("delete from reset_tokens where email=\\$1").
		WithArgs("user@x.com").
		WillReturnResult(sqlmock.NewResult(0, 3))

	if _, err := repo.CreateToken(ctx, &model.PasswordResetToken{Email: "user@x.com", TokenHash: "digest", ExpiresAt: expires}); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	token, err := repo.GetTokenByHash(ctx, "digest")
	if err != nil {
		t.Fatalf("GetTokenByHash: %v", err)
	}
	if token.Email != "user@x.com" {
		t.Fatalf("email = %q", token.Email)
	}

	n, err := repo.DeleteTokensByEmail(ctx, "user@x.com")
	if err != nil || n != 3 {
		t.Fatalf("DeleteTokensByEmail = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConsumeTokenDeletesUnexpiredRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPasswordResetTokenPostgresRepository(db)
	now := time.Now()
	expires := now.Add(10 * time.Minute)

	mock.ExpectQuery("delete from reset_tokens where token_hash=\\$1 and expires_at > \\$2 returning").
		WithArgs("digest", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "token_hash", "expires_at", "created_at"}).
			AddRow("t1", "user@x.com", "digest", expires, now))
	mock.ExpectQuery("delete from reset_tokens where token_hash=\\$1 and expires_at > \\$2 returning").
		WithArgs("digest", now).
		WillReturnError(sql.ErrNoRows)

	token, err := repo.ConsumeToken(context.Background(), "digest", now)
	if err != nil {
		t.Fatalf("ConsumeToken: %v", err)
	}
	if token.Email != "user@x.com" || token.ID != "t1" {
		t.Fatalf("unexpected token %+v", token)
	}

	if _, err := repo.ConsumeToken(context.Background(), "digest", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second consume should find nothing, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteExpiredTokens(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPasswordResetTokenPostgresRepository(db)
	now := time.Now()

	mock.ExpectExec("delete from reset_tokens where expires_at <= \\$1").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteExpiredTokens(context.Background(), now)
	if err != nil || n != 2 {
		t.Fatalf("DeleteExpiredTokens = %d, %v", n, err)
	}
}

func TestMigrateAppliesSchema(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("create table if not exists accounts").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
}
