package handlers

import (
	"fmt"
	"net/http"

	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/services"
)

type ProposalHandler struct {
	proposalService services.ProposalService
}

func NewProposalHandler(proposalService services.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

// writeProposalOutcome отличает созданную заявку от информационной
// блокировки: блокировка не ошибка, клиент получает 200 с причиной.
func writeProposalOutcome(w http.ResponseWriter, r *http.Request, outcome *services.ProposalOutcome) {
	if outcome.Blocked != "" {
		response := jsonResponse{"blocked": string(outcome.Blocked)}
		if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	response := jsonResponse{"proposal": outcome.Proposal}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateRequest создаёт заявку игрока на вступление в команду.
func (h *ProposalHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	outcome, err := h.proposalService.CreateJoinRequest(r.Context(), teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeProposalOutcome(w, r, outcome)
}

// CreateInvitation создаёт приглашение игрока в команду от капитана.
func (h *ProposalHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		PlayerID int `json:"player_id" validate:"required,gt=0"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if problems := validateInput(input); problems != nil {
		failedValidationResponse(w, r, problems)
		return
	}

	outcome, err := h.proposalService.CreateJoinInvitation(r.Context(), teamID, input.PlayerID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeProposalOutcome(w, r, outcome)
}

func (h *ProposalHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *ProposalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *ProposalHandler) decide(w http.ResponseWriter, r *http.Request, accept bool) {
	proposalID, err := idParam(r, "proposalID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var proposal *models.JoinProposal
	if accept {
		proposal, err = h.proposalService.AcceptProposal(r.Context(), proposalID, currentUserID)
	} else {
		proposal, err = h.proposalService.RejectProposal(r.Context(), proposalID, currentUserID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"proposal": proposal}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProposalHandler) ListByTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	statusFilter, err := proposalStatusFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	proposals, err := h.proposalService.ListTeamProposals(r.Context(), teamID, currentUserID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"proposals": proposals}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProposalHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	statusFilter, err := proposalStatusFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	proposals, err := h.proposalService.ListUserProposals(r.Context(), currentUserID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"proposals": proposals}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func proposalStatusFilter(r *http.Request) (*models.ProposalStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	status := models.ProposalStatus(raw)
	switch status {
	case models.ProposalStatusPending, models.ProposalStatusAccepted, models.ProposalStatusRejected:
		return &status, nil
	default:
		return nil, fmt.Errorf("invalid status filter %q", raw)
	}
}
