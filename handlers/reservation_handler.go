package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/services"
)

// dateLayout это формат дат в API: бронирования привязаны к календарному
// дню, время внутри дня кодируется слотами.
const dateLayout = "2006-01-02"

type ReservationHandler struct {
	reservationService  services.ReservationService
	availabilityService services.AvailabilityService
}

func NewReservationHandler(
	reservationService services.ReservationService,
	availabilityService services.AvailabilityService,
) *ReservationHandler {
	return &ReservationHandler{
		reservationService:  reservationService,
		availabilityService: availabilityService,
	}
}

type createReservationRequest struct {
	TeamID    int    `json:"team_id" validate:"required,gt=0"`
	ComplexID int    `json:"complex_id" validate:"required,gt=0"`
	CourtID   int    `json:"court_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	Slots     []int  `json:"slots" validate:"required,min=1,dive,gte=0,lte=23"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req createReservationRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if problems := validateInput(req); problems != nil {
		failedValidationResponse(w, r, problems)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		badRequestResponse(w, r, errors.New("date must be in YYYY-MM-DD format"))
		return
	}

	reservation, err := h.reservationService.CreateReservation(r.Context(), services.CreateReservationInput{
		TeamID:        req.TeamID,
		ComplexID:     req.ComplexID,
		CourtID:       req.CourtID,
		Date:          date,
		Slots:         req.Slots,
		CurrentUserID: currentUserID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"reservation": reservation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	reservationID, err := idParam(r, "reservationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reservation, err := h.reservationService.GetReservation(r.Context(), reservationID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reservation": reservation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	reservationID, err := idParam(r, "reservationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.reservationService.CancelReservation(r.Context(), reservationID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CourtDay возвращает активные брони корта на дату вместе со сводкой
// занятых слотов.
func (h *ReservationHandler) CourtDay(w http.ResponseWriter, r *http.Request) {
	courtID, err := idParam(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		badRequestResponse(w, r, errors.New("date query parameter must be in YYYY-MM-DD format"))
		return
	}

	reservations, occupied, err := h.reservationService.ListCourtDay(r.Context(), courtID, date)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"reservations":   reservations,
		"occupied_slots": occupied,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Availability отвечает, свободен ли корт в указанные слоты.
func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	courtID, err := idParam(r, "courtID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()
	date, err := time.Parse(dateLayout, query.Get("date"))
	if err != nil {
		badRequestResponse(w, r, errors.New("date query parameter must be in YYYY-MM-DD format"))
		return
	}

	occupied, err := h.availabilityService.OccupiedSlots(r.Context(), courtID, date)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"court_id":       courtID,
		"date":           date.Format(dateLayout),
		"occupied_slots": occupied,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReservationHandler) ListByTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reservations, err := h.reservationService.ListTeamReservations(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reservations": reservations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
