package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/ids"
)

// PasswordResetTokenRepository defines the interface for password reset token operations.
type PasswordResetTokenRepository interface {
	// CreateToken stores a new outstanding token.
	CreateToken(ctx context.Context, token *model.PasswordResetToken) (*model.PasswordResetToken, error)

	// GetTokenByHash retrieves a token by the digest of its secret.
	GetTokenByHash(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error)

	// ConsumeToken atomically deletes an unexpired token and returns it. Of
	// several concurrent callers with the same hash only one gets the row,
	// the others get ErrNotFound.
	ConsumeToken(ctx context.Context, tokenHash string, now time.Time) (*model.PasswordResetToken, error)

	// DeleteTokensByEmail removes every outstanding token for an email.
	DeleteTokensByEmail(ctx context.Context, email string) (int64, error)

	// DeleteExpiredTokens removes tokens that expired before now.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type passwordResetTokenPostgresRepository struct {
	db *sql.DB
}

// NewPasswordResetTokenPostgresRepository creates a PostgreSQL repository for password reset tokens.
func NewPasswordResetTokenPostgresRepository(db *sql.DB) PasswordResetTokenRepository {
	return &passwordResetTokenPostgresRepository{db: db}
}

func (r *passwordResetTokenPostgresRepository) CreateToken(
	ctx context.Context,
	token *model.PasswordResetToken,
) (*model.PasswordResetToken, error) {
	if token.ID == "" {
		token.ID = ids.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`insert into reset_tokens(id, email, token_hash, expires_at, created_at) values($1,$2,$3,$4,$5)`,
		token.ID, token.Email, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return token, nil
}

func (r *passwordResetTokenPostgresRepository) GetTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*model.PasswordResetToken, error) {
	row := r.db.QueryRowContext(ctx,
		`select id, email, token_hash, expires_at, created_at from reset_tokens where token_hash=$1`, tokenHash)

	var token model.PasswordResetToken
	if err := row.Scan(&token.ID, &token.Email, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt); err != nil {
		return nil, mapError(err)
	}

	return &token, nil
}

func (r *passwordResetTokenPostgresRepository) ConsumeToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*model.PasswordResetToken, error) {
	row := r.db.QueryRowContext(ctx,
		`delete from reset_tokens where token_hash=$1 and expires_at > $2 returning id, email, token_hash, expires_at, created_at`,
		tokenHash, now)

	var token model.PasswordResetToken
	if err := row.Scan(&token.ID, &token.Email, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt); err != nil {
		return nil, mapError(err)
	}

	return &token, nil
}

func (r *passwordResetTokenPostgresRepository) DeleteTokensByEmail(ctx context.Context, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `delete from reset_tokens where email=$1`, email)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (r *passwordResetTokenPostgresRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `delete from reset_tokens where expires_at <= $1`, now)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
