package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/config"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/identity"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/metrics"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/notification"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/repository"
)

// PasswordResetUsecase defines the credential reset workflow.
type PasswordResetUsecase interface {
	// RequestPasswordReset issues a single-use token for email and dispatches it.
	RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error)

	// ConfirmPasswordReset consumes a token and sets the new password. Every
	// other outstanding token of the same email is invalidated as well.
	ConfirmPasswordReset(ctx context.Context, params ConfirmResetParams) error

	// ValidatePasswordResetToken checks a token without consuming it.
	ValidatePasswordResetToken(ctx context.Context, token, email string) error

	// PurgeExpiredTokens removes expired tokens.
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// ConfirmResetParams defines the parameters for consuming a reset token.
// Email is optional; when set the token must have been issued for it.
type ConfirmResetParams struct {
	Token       string
	NewPassword string
	Email       string
}

// ResetRequestResult describes an issued token. The token itself is only
// delivered out-of-band.
type ResetRequestResult struct {
	Email     string
	ExpiresAt time.Time
	Warning   string
}

type passwordResetUsecase struct {
	identity  identity.Service
	tokenRepo repository.PasswordResetTokenRepository
	notifier  notification.Dispatcher
	cfg       *config.ProvisioningServiceConfig
	logger    *zerolog.Logger
	now       func() time.Time
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	identitySvc identity.Service,
	tokenRepo repository.PasswordResetTokenRepository,
	notifier notification.Dispatcher,
	cfg *config.ProvisioningServiceConfig,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		identity:  identitySvc,
		tokenRepo: tokenRepo,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) (result *ResetRequestResult, err error) {
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("send", metrics.Result(err)).Inc()
	}()

	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, validationError("email", "a valid email address is required")
	}

	if _, err := identity.FindByEmail(ctx, u.identity, email); err != nil {
		if errors.Is(err, identity.ErrPrincipalNotFound) {
			return nil, notFoundError("no account found for this email", err)
		}
		return nil, upstreamError("could not look up account", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return nil, upstreamError("could not generate reset token", err)
	}

	ttl := u.cfg.Token.PasswordResetTokenExpiresIn
	resetToken := &model.PasswordResetToken{
		Email:     email,
		TokenHash: hashToken(token),
		ExpiresAt: u.now().Add(ttl),
		CreatedAt: u.now(),
	}

	if _, err := u.tokenRepo.CreateToken(ctx, resetToken); err != nil {
		return nil, upstreamError("could not store reset token", err)
	}

	result = &ResetRequestResult{Email: email, ExpiresAt: resetToken.ExpiresAt}

	msg := notification.Message{
		Template: notification.TemplatePasswordReset,
		Data: notification.PasswordResetData{
			ResetLink:   resetLink(u.cfg.AppPasswordResetURL, token),
			Token:       token,
			ExpiresIn:   ttl.String(),
			ProductName: u.cfg.Notification.ProductName,
		},
	}
	if err := u.notifier.Send(ctx, notification.ChannelEmail, email, msg); err != nil {
		nerr := notificationError("reset email could not be delivered", err)
		u.logger.Warn().Err(nerr).Msg("password reset dispatch failed")
		result.Warning = nerr.Message
	}

	return result, nil
}

func (u *passwordResetUsecase) ConfirmPasswordReset(ctx context.Context, params ConfirmResetParams) (err error) {
	action := "reset-with-token"
	if params.Email != "" {
		action = "verify"
	}
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues(action, metrics.Result(err)).Inc()
	}()

	if len(params.NewPassword) < u.cfg.Provisioning.MinPasswordLength {
		return validationError("newPassword", "password is too short")
	}

	resetToken, err := u.lookupToken(ctx, params.Token, params.Email)
	if err != nil {
		return err
	}

	principal, err := identity.FindByEmail(ctx, u.identity, resetToken.Email)
	if err != nil {
		if errors.Is(err, identity.ErrPrincipalNotFound) {
			return notFoundError("no account found for this token", err)
		}
		return upstreamError("could not look up account", err)
	}

	// Claim the token before touching the password; a concurrent confirm with
	// the same token loses here.
	consumed, err := u.tokenRepo.ConsumeToken(ctx, resetToken.TokenHash, u.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("reset token is invalid", ErrTokenNotFound)
		}
		return upstreamError("could not consume reset token", err)
	}

	if err := u.identity.UpdatePrincipalPassword(ctx, principal.ID, params.NewPassword); err != nil {
		u.restoreToken(ctx, consumed)
		if errors.Is(err, identity.ErrPrincipalNotFound) {
			return notFoundError("no account found for this token", err)
		}
		return upstreamError("could not update password", err)
	}

	if _, err := u.tokenRepo.DeleteTokensByEmail(ctx, consumed.Email); err != nil {
		u.logger.Error().Err(err).Str("token_id", consumed.ID).Msg("failed to delete remaining reset tokens")
	}

	u.logger.Info().Str("principal_id", principal.ID).Msg("password reset completed")

	return nil
}

// restoreToken puts a consumed token back after the password update failed,
// so the user can retry with the same link.
func (u *passwordResetUsecase) restoreToken(ctx context.Context, token *model.PasswordResetToken) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if _, err := u.tokenRepo.CreateToken(ctx, token); err != nil {
		u.logger.Error().Err(err).Str("token_id", token.ID).Msg("failed to restore reset token")
	}
}

func (u *passwordResetUsecase) ValidatePasswordResetToken(ctx context.Context, token, email string) (err error) {
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("validate", metrics.Result(err)).Inc()
	}()

	_, err = u.lookupToken(ctx, token, email)
	return err
}

func (u *passwordResetUsecase) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := u.tokenRepo.DeleteExpiredTokens(ctx, u.now())
	if err != nil {
		return 0, upstreamError("could not purge expired reset tokens", err)
	}
	return n, nil
}

func (u *passwordResetUsecase) lookupToken(ctx context.Context, token, email string) (*model.PasswordResetToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, validationError("token", "reset token is required")
	}

	resetToken, err := u.tokenRepo.GetTokenByHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("reset token is invalid", ErrTokenNotFound)
		}
		return nil, upstreamError("could not look up reset token", err)
	}

	if email != "" && !strings.EqualFold(resetToken.Email, NormalizeEmail(email)) {
		return nil, notFoundError("reset token is invalid", ErrTokenNotFound)
	}

	if resetToken.Expired(u.now()) {
		return nil, notFoundError("reset token has expired", ErrTokenExpired)
	}

	return resetToken, nil
}

// generateResetToken returns 32 random bytes, hex encoded.
func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func resetLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%stoken=%s", base, sep, url.QueryEscape(token))
}
