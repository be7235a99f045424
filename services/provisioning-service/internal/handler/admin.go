package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/payload"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/repository"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/usecase"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/interceptor"
)

var errNoOrganization = errors.New("caller is not linked to an organization")

// AdminCreateMember adds a member to the calling administrator's organization
// with a generated password.
func (h *provisioningHTTPHandler) AdminCreateMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := interceptor.CallerFromContext(r.Context())
	if !ok || claims.Subject == "" {
		WriteUnauthorized(w, "authentication required")
		return
	}

	adminRole, _ := model.ParseRole(claims.Role)
	kind, ok := model.KindForAdminRole(adminRole)
	if !ok {
		writeFailure(w, http.StatusForbidden, "forbidden", "administrator privileges required", "")
		return
	}

	var req payload.AdminCreateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, ok := model.ParseRole(req.Role)
	if !ok || role.IsAdmin() {
		writeFailure(w, http.StatusBadRequest, "validation", "unknown member role", "role")
		return
	}

	organizationID, err := h.callerOrganization(r.Context(), claims.Subject, claims.OrganizationID)
	if err != nil {
		if errors.Is(err, errNoOrganization) {
			writeFailure(w, http.StatusNotFound, "not_found", "no organization found for this administrator", "")
			return
		}
		h.logger.Error().Err(err).Str("caller", claims.Subject).Msg("failed to resolve caller organization")
		writeFailure(w, http.StatusInternalServerError, "upstream", "could not resolve organization", "")
		return
	}

	firstName, lastName := names(req.Name, req.FirstName, req.LastName)

	result, err := h.provisioningUsecase.Provision(r.Context(), usecase.ProvisionRequest{
		Flow:           usecase.FlowJoinOrganization,
		Initiator:      usecase.InitiatorAdmin,
		Kind:           kind,
		Role:           role,
		Email:          req.Email,
		FirstName:      firstName,
		LastName:       lastName,
		Phone:          req.Phone,
		OrganizationID: organizationID,
		MemberDetails:  req.Details,
		ActorID:        claims.Subject,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to create member")
		return
	}

	writeSuccess(w, toProvisionResponse(result), result.Warning)
}

// callerOrganization resolves the organization once per request, from the
// token claim when present and from the caller's account otherwise.
func (h *provisioningHTTPHandler) callerOrganization(ctx context.Context, subject, claimed string) (string, error) {
	if claimed != "" {
		return claimed, nil
	}

	account, err := h.accounts.GetAccount(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", errNoOrganization
		}
		return "", err
	}
	if account.OrganizationID == nil || *account.OrganizationID == "" {
		return "", errNoOrganization
	}

	return *account.OrganizationID, nil
}
