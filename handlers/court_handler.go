package handlers

import (
	"net/http"

	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/services"
)

type CourtHandler struct {
	courtService services.CourtService
}

func NewCourtHandler(courtService services.CourtService) *CourtHandler {
	return &CourtHandler{courtService: courtService}
}

func (h *CourtHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if problems := validateInput(input); problems != nil {
		failedValidationResponse(w, r, problems)
		return
	}

	court, err := h.courtService.CreateCourt(r.Context(), input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	courtID, err := idParam(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court, err := h.courtService.GetCourtByID(r.Context(), courtID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) Update(w http.ResponseWriter, r *http.Request) {
	courtID, err := idParam(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.UpdateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if problems := validateInput(input); problems != nil {
		failedValidationResponse(w, r, problems)
		return
	}

	court, err := h.courtService.UpdateCourt(r.Context(), courtID, input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	courtID, err := idParam(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.courtService.DeleteCourt(r.Context(), courtID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CourtHandler) ListByComplex(w http.ResponseWriter, r *http.Request) {
	complexID, err := idParam(r, "complexID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	courts, err := h.courtService.ListCourtsByComplex(r.Context(), complexID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
