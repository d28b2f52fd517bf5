package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrTeamCapacityInvalid   = errors.New("team max players must be positive")
	ErrSlotsRequired         = errors.New("at least one slot is required")
	ErrSlotOutOfRange        = errors.New("slot must be an hour between 0 and 23")
	ErrSlotsDuplicated       = errors.New("requested slots contain duplicates")
	ErrDateRequired          = errors.New("reservation date is required")
	ErrCourtNotInComplex     = errors.New("court does not belong to the specified complex")
	ErrSelfMatchInvitation   = errors.New("a team cannot invite itself to a match")
	ErrReservationInactive   = errors.New("reservation is no longer active")
	ErrReservationNotShared  = errors.New("inviting team has no access to this reservation")

	// Конфликты и состояния workflow
	ErrSlotsUnavailable                = errors.New("one or more requested slots are already booked")
	ErrReservationAlreadyCanceled      = errors.New("reservation is already canceled")
	ErrTeamFull                        = errors.New("team roster is full")
	ErrAlreadyMember                   = errors.New("user is already a member of this team")
	ErrProposalAlreadyProcessed        = errors.New("join proposal has already been processed")
	ErrMatchInvitationConflict         = errors.New("match invitation already exists for this reservation and teams")
	ErrMatchInvitationAlreadyProcessed = errors.New("match invitation has already been processed")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed     = errors.New("authentication failed")
	ErrForbiddenOperation       = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden   = errors.New("only the team captain can perform this action")
	ErrComplexAdminForbidden    = errors.New("only the complex administrator can perform this action")
	ErrCannotRemoveCaptain      = errors.New("cannot remove the team captain")
	ErrSelfLeaveForbidden       = errors.New("only the team captain or the member themselves can perform this action")
	ErrUserEmailConflict        = errors.New("email address is already in use")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound            = errors.New("user not found")
	ErrTeamNotFound            = errors.New("team not found")
	ErrComplexNotFound         = errors.New("complex not found")
	ErrCourtNotFound           = errors.New("court not found")
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrProposalNotFound        = errors.New("join proposal not found")
	ErrMatchInvitationNotFound = errors.New("match invitation not found")
	ErrTeamNameConflict        = errors.New("team name is already in use")
	ErrComplexNameConflict     = errors.New("complex name is already in use")
)
