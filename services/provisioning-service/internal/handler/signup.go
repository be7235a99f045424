package handler

import (
	"net/http"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/payload"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/usecase"
)

func (h *provisioningHTTPHandler) SignupOrganizationAdmin(w http.ResponseWriter, r *http.Request) {
	var req payload.OrganizationAdminSignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	kind, ok := parseKind(req.Kind)
	if !ok {
		writeFailure(w, http.StatusBadRequest, "validation", "unknown organization kind", "kind")
		return
	}

	firstName, lastName := names(req.Name, req.FirstName, req.LastName)

	result, err := h.provisioningUsecase.Provision(r.Context(), usecase.ProvisionRequest{
		Flow:      usecase.FlowCreateOrganization,
		Initiator: usecase.InitiatorSelf,
		Kind:      kind,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: firstName,
		LastName:  lastName,
		Phone:     req.Phone,
		Organization: &usecase.OrganizationDetails{
			Code:        req.OrgCode,
			Name:        req.OrgName,
			Email:       req.OrgEmail,
			Phone:       req.OrgPhone,
			Website:     req.Website,
			Address:     req.Address,
			City:        req.City,
			State:       req.State,
			Country:     req.Country,
			Pincode:     req.Pincode,
			ContactName: req.ContactName,
			Details:     req.Details,
		},
	})
	if err != nil {
		h.writeError(w, r, err, "failed to sign up organization admin")
		return
	}

	writeSuccess(w, toProvisionResponse(result), result.Warning)
}

func (h *provisioningHTTPHandler) SignupMember(w http.ResponseWriter, r *http.Request) {
	var req payload.MemberSignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, ok := model.ParseRole(req.Role)
	if !ok || role.IsAdmin() {
		writeFailure(w, http.StatusBadRequest, "validation", "unknown member role", "role")
		return
	}

	kind, ok := parseKind(req.Kind)
	if !ok {
		writeFailure(w, http.StatusBadRequest, "validation", "unknown organization kind", "kind")
		return
	}

	firstName, lastName := names(req.Name, req.FirstName, req.LastName)

	result, err := h.provisioningUsecase.Provision(r.Context(), usecase.ProvisionRequest{
		Flow:           usecase.FlowJoinOrganization,
		Initiator:      usecase.InitiatorSelf,
		Kind:           kind,
		Role:           role,
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      firstName,
		LastName:       lastName,
		Phone:          req.Phone,
		OrganizationID: req.OrganizationID,
		MemberDetails:  req.Details,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to sign up member")
		return
	}

	writeSuccess(w, toProvisionResponse(result), result.Warning)
}

// parseKind accepts an empty kind, which the saga defaults to school.
func parseKind(s string) (model.OrganizationKind, bool) {
	if s == "" {
		return "", true
	}
	return model.ParseOrganizationKind(s)
}

// names prefers explicit first and last names and falls back to splitting a full name.
func names(full, first, last string) (string, string) {
	if first != "" || last != "" {
		return first, last
	}
	return usecase.SplitName(full)
}

func toProvisionResponse(result *usecase.ProvisionResult) payload.ProvisionResponse {
	return payload.ProvisionResponse{
		AccountID:      result.AccountID,
		IdentityID:     result.IdentityID,
		OrganizationID: result.OrganizationID,
		MemberID:       result.MemberID,
		Email:          result.Email,
		Role:           string(result.Role),
		Kind:           string(result.Kind),
		Password:       result.Password,
	}
}
