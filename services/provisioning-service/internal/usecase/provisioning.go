package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/config"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/identity"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/metrics"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/notification"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/repository"
)

// ProvisioningUsecase creates a principal and its dependent records, undoing
// earlier steps when a later one fails.
type ProvisioningUsecase interface {
	// Provision runs the signup saga for any flow and organization kind.
	Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error)

	// Wait cuts short any pending link retry backoff and blocks until the
	// background retries have made their remaining attempts.
	Wait()
}

const compensationTimeout = 10 * time.Second

type provisioningUsecase struct {
	identity   identity.Service
	accounts   repository.AccountRepository
	orgs       repository.OrganizationRepository
	members    repository.MemberRepository
	prechecker *UniquenessPrechecker
	notifier   notification.Dispatcher
	cfg        *config.ProvisioningServiceConfig
	logger     *zerolog.Logger

	retries  sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// NewProvisioningUsecase creates a new instance of ProvisioningUsecase.
func NewProvisioningUsecase(
	identitySvc identity.Service,
	accounts repository.AccountRepository,
	orgs repository.OrganizationRepository,
	members repository.MemberRepository,
	notifier notification.Dispatcher,
	cfg *config.ProvisioningServiceConfig,
	logger *zerolog.Logger,
) ProvisioningUsecase {
	return &provisioningUsecase{
		identity:   identitySvc,
		accounts:   accounts,
		orgs:       orgs,
		members:    members,
		prechecker: NewUniquenessPrechecker(identitySvc, accounts, orgs),
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

func (u *provisioningUsecase) Wait() {
	u.stopOnce.Do(func() { close(u.stop) })
	u.retries.Wait()
}

// pause sleeps for d unless Wait has been called.
func (u *provisioningUsecase) pause(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-u.stop:
	}
}

func (u *provisioningUsecase) Provision(ctx context.Context, req ProvisionRequest) (result *ProvisionResult, err error) {
	defer func() {
		metrics.ProvisioningTotal.WithLabelValues(string(req.Flow), metrics.Result(err)).Inc()
	}()

	req.normalize()
	if err := req.validate(u.cfg.Provisioning.MinPasswordLength); err != nil {
		return nil, err
	}

	orgCode := ""
	if req.Flow == FlowCreateOrganization {
		orgCode = req.Organization.Code
	}
	if err := u.prechecker.Check(ctx, req.Email, orgCode); err != nil {
		return nil, err
	}

	var org *model.Organization
	if req.Flow == FlowJoinOrganization {
		org, err = u.orgs.GetOrganization(ctx, req.Kind, req.OrganizationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFoundError("organization not found", err)
			}
			return nil, upstreamError("could not load organization", err)
		}
	}

	password := req.Password
	if req.Initiator == InitiatorAdmin {
		if password, err = generatePassword(); err != nil {
			return nil, upstreamError("could not generate a password", err)
		}
	}

	principal, err := u.identity.CreatePrincipal(ctx, identity.CreatePrincipalParams{
		Email:     req.Email,
		Password:  password,
		Confirmed: req.Initiator == InitiatorAdmin || u.cfg.Provisioning.AutoConfirmEmail,
		Metadata:  principalMetadata(&req),
	})
	if err != nil {
		if errors.Is(err, identity.ErrPrincipalExists) {
			return nil, conflictError("email", "an account with this email already exists", err)
		}
		return nil, upstreamError("could not create login identity", err)
	}

	log := u.logger.With().
		Str("flow", string(req.Flow)).
		Str("kind", string(req.Kind)).
		Str("principal_id", principal.ID).
		Logger()

	account := &model.Account{
		ID:        principal.ID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		IsActive:  true,
		Metadata:  accountMetadata(&req),
	}
	if org != nil {
		account.OrganizationID = &org.ID
	}

	if _, err := u.accounts.CreateAccount(ctx, account); err != nil {
		u.compensate(ctx, &log, principal.ID, "")
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("email", "an account with this email already exists", err)
		}
		return nil, upstreamError("could not create account record", err)
	}

	result = &ProvisionResult{
		AccountID:  account.ID,
		IdentityID: principal.ID,
		Email:      req.Email,
		Role:       req.Role,
		Kind:       req.Kind,
	}
	if req.Initiator == InitiatorAdmin {
		result.Password = password
	}

	var (
		warnings []string
		orgName  string
	)

	switch req.Flow {
	case FlowCreateOrganization:
		created, err := u.orgs.CreateOrganization(ctx, newOrganization(&req, principal.ID))
		if err != nil {
			u.compensate(ctx, &log, principal.ID, account.ID)
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, conflictError("orgCode", "organization code is already in use", err)
			}
			return nil, upstreamError("could not create organization", err)
		}
		result.OrganizationID = created.ID
		orgName = created.Name

		if err := u.accounts.UpdateAccountOrganization(ctx, account.ID, created.ID); err != nil {
			log.Warn().Err(err).Str("organization_id", created.ID).Msg("failed to link account to organization, retrying in background")
			u.retryLink(ctx, log, account.ID, created.ID)
			warnings = append(warnings, "organization link is pending")
		}

	case FlowJoinOrganization:
		approval := model.StatusPending
		if req.Initiator == InitiatorAdmin {
			approval = model.StatusApproved
		}

		member, err := u.members.CreateMember(ctx, &model.Member{
			AccountID:        account.ID,
			OrganizationID:   org.ID,
			OrganizationKind: req.Kind,
			MemberType:       req.Role.MemberType(),
			Details:          req.MemberDetails,
			ApprovalStatus:   approval,
		})
		if err != nil {
			u.compensate(ctx, &log, principal.ID, account.ID)
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, conflictError("email", "this account is already a member", err)
			}
			return nil, upstreamError("could not create member record", err)
		}
		result.MemberID = member.ID
		result.OrganizationID = org.ID
		orgName = org.Name
	}

	if nerr := u.sendWelcome(ctx, &req, orgName, result.Password); nerr != nil {
		log.Warn().Err(nerr).Msg("welcome notification failed")
		warnings = append(warnings, nerr.Message)
	}

	result.Warning = strings.Join(warnings, "; ")

	log.Info().Str("account_id", result.AccountID).Str("organization_id", result.OrganizationID).Msg("account provisioned")

	return result, nil
}

// compensate deletes what earlier steps created. Failures are logged only, the
// caller's error stays the one that triggered compensation.
func (u *provisioningUsecase) compensate(ctx context.Context, log *zerolog.Logger, principalID, accountID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if accountID != "" {
		err := u.accounts.DeleteAccount(ctx, accountID)
		metrics.CompensationsTotal.WithLabelValues("account", metrics.Result(err)).Inc()
		if err != nil {
			log.Error().Err(err).Str("account_id", accountID).Msg("compensation failed: account record left behind")
		}
	}

	err := u.identity.DeletePrincipal(ctx, principalID)
	metrics.CompensationsTotal.WithLabelValues("identity", metrics.Result(err)).Inc()
	if err != nil {
		log.Error().Err(err).Msg("compensation failed: orphaned identity left behind")
		return
	}

	log.Info().Msg("compensated partially provisioned account")
}

func (u *provisioningUsecase) retryLink(ctx context.Context, log zerolog.Logger, accountID, organizationID string) {
	attempts := u.cfg.Provisioning.LinkRetryAttempts
	if attempts <= 0 {
		log.Error().Str("organization_id", organizationID).Msg("account left unlinked from its organization")
		return
	}

	ctx = context.WithoutCancel(ctx)
	delay := u.cfg.Provisioning.LinkRetryBaseDelay

	u.retries.Add(1)
	go func() {
		defer u.retries.Done()

		for attempt := 1; attempt <= attempts; attempt++ {
			if delay > 0 {
				u.pause(delay)
				delay *= 2
			}

			err := u.accounts.UpdateAccountOrganization(ctx, accountID, organizationID)
			if err == nil {
				log.Info().Int("attempt", attempt).Str("organization_id", organizationID).Msg("linked account to organization")
				return
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("organization link retry failed")
		}

		log.Error().Str("organization_id", organizationID).Msg("account left unlinked from its organization")
	}()
}

func (u *provisioningUsecase) sendWelcome(ctx context.Context, req *ProvisionRequest, orgName, password string) *Error {
	name := strings.TrimSpace(req.FirstName + " " + req.LastName)
	if name == "" {
		name = req.Email
	}

	msg := notification.Message{
		Template: notification.TemplateWelcome,
		Data: notification.WelcomeData{
			Name:             name,
			Email:            req.Email,
			RoleName:         req.Role.DisplayName(),
			OrganizationName: orgName,
			Password:         password,
			LoginURL:         u.cfg.AppLoginURL,
			ProductName:      u.cfg.Notification.ProductName,
		},
	}

	var failed []error
	if err := u.notifier.Send(ctx, notification.ChannelEmail, req.Email, msg); err != nil {
		failed = append(failed, err)
	}
	if req.Phone != "" && u.notifier.Available(notification.ChannelSMS) {
		if err := u.notifier.Send(ctx, notification.ChannelSMS, req.Phone, msg); err != nil {
			failed = append(failed, err)
		}
	}

	if len(failed) > 0 {
		return notificationError("welcome notification could not be delivered", errors.Join(failed...))
	}
	return nil
}

func principalMetadata(req *ProvisionRequest) map[string]any {
	meta := map[string]any{
		"role":              string(req.Role),
		"organization_kind": string(req.Kind),
	}
	if req.FirstName != "" || req.LastName != "" {
		meta["first_name"] = req.FirstName
		meta["last_name"] = req.LastName
		meta["full_name"] = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}
	if req.Initiator == InitiatorAdmin {
		meta["added_by"] = req.ActorID
	}
	return meta
}

func accountMetadata(req *ProvisionRequest) map[string]any {
	meta := map[string]any{"source": "self_signup"}
	if req.Initiator == InitiatorAdmin {
		meta["source"] = string(req.Kind) + "_admin_added"
		meta["addedBy"] = req.ActorID
	}
	return meta
}

func newOrganization(req *ProvisionRequest, createdBy string) *model.Organization {
	details := req.Organization
	return &model.Organization{
		Kind:           req.Kind,
		Code:           details.Code,
		Name:           details.Name,
		Email:          details.Email,
		Phone:          details.Phone,
		Website:        details.Website,
		Address:        details.Address,
		City:           details.City,
		State:          details.State,
		Country:        details.Country,
		Pincode:        details.Pincode,
		ContactName:    details.ContactName,
		Details:        details.Details,
		AccountStatus:  model.StatusPending,
		ApprovalStatus: model.StatusPending,
		CreatedBy:      createdBy,
	}
}
