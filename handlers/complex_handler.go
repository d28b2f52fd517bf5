package handlers

import (
	"net/http"

	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/services"
)

type ComplexHandler struct {
	complexService services.ComplexService
}

func NewComplexHandler(complexService services.ComplexService) *ComplexHandler {
	return &ComplexHandler{complexService: complexService}
}

func (h *ComplexHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateComplexInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if problems := validateInput(input); problems != nil {
		failedValidationResponse(w, r, problems)
		return
	}
	input.AdminID = currentUserID

	cx, err := h.complexService.CreateComplex(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"complex": cx}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ComplexHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	complexID, err := idParam(r, "complexID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cx, err := h.complexService.GetComplexByID(r.Context(), complexID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"complex": cx}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ComplexHandler) Update(w http.ResponseWriter, r *http.Request) {
	complexID, err := idParam(r, "complexID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.UpdateComplexInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if problems := validateInput(input); problems != nil {
		failedValidationResponse(w, r, problems)
		return
	}

	cx, err := h.complexService.UpdateComplex(r.Context(), complexID, input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"complex": cx}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ComplexHandler) Delete(w http.ResponseWriter, r *http.Request) {
	complexID, err := idParam(r, "complexID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.complexService.DeleteComplex(r.Context(), complexID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ComplexHandler) List(w http.ResponseWriter, r *http.Request) {
	complexes, err := h.complexService.ListComplexes(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"complexes": complexes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ComplexHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	complexID, err := idParam(r, "complexID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	cx, err := h.complexService.UploadComplexPhoto(r.Context(), complexID, currentUserID,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"complex": cx}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
