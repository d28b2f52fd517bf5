package handlers

import (
	"net/http"

	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/services"
)

type MatchInvitationHandler struct {
	invitationService services.MatchInvitationService
}

func NewMatchInvitationHandler(invitationService services.MatchInvitationService) *MatchInvitationHandler {
	return &MatchInvitationHandler{invitationService: invitationService}
}

func (h *MatchInvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateMatchInvitationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if problems := validateInput(input); problems != nil {
		failedValidationResponse(w, r, problems)
		return
	}
	input.CurrentUserID = currentUserID

	invitation, err := h.invitationService.CreateMatchInvitation(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"invitation": invitation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchInvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *MatchInvitationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *MatchInvitationHandler) decide(w http.ResponseWriter, r *http.Request, accept bool) {
	invitationID, err := idParam(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var invitation *models.MatchInvitation
	if accept {
		invitation, err = h.invitationService.AcceptMatchInvitation(r.Context(), invitationID, currentUserID)
	} else {
		invitation, err = h.invitationService.RejectMatchInvitation(r.Context(), invitationID, currentUserID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitation": invitation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchInvitationHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *MatchInvitationHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *MatchInvitationHandler) list(w http.ResponseWriter, r *http.Request, incoming bool) {
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

	var invitations []*models.MatchInvitation
	if incoming {
		invitations, err = h.invitationService.ListIncoming(r.Context(), teamID, currentUserID)
	} else {
		invitations, err = h.invitationService.ListOutgoing(r.Context(), teamID, currentUserID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitations": invitations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
