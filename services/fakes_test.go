package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/repositories"
)

// newTxDB отдаёт *sql.DB, на котором сервис может открыть одну транзакцию.
// Репозитории в тестах in-memory и SQL через соединение не гоняют, поэтому
// мокаются только Begin и исход транзакции.
func newTxDB(t *testing.T, commit bool) *sql.DB {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
	return db
}

// --- team repository ---

type fakeTeamRepo struct {
	mu     sync.Mutex
	teams  map[int]*models.Team
	nextID int

	createErr error
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	repo := &fakeTeamRepo{teams: make(map[int]*models.Team), nextID: 1}
	for _, team := range teams {
		repo.teams[team.ID] = team
		if team.ID >= repo.nextID {
			repo.nextID = team.ID + 1
		}
	}
	return repo
}

func (r *fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.teams {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.nextID
	r.nextID++
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) ListPublic(context.Context) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, team := range r.teams {
		if team.Public {
			copied := *team
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.teams), nil
}

// --- user repository ---

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = len(r.users) + 1
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(context.Context) (int, error) {
	return len(r.users), nil
}

// --- roster repository ---

type rosterKey struct {
	teamID int
	userID int
}

type fakeRosterRepo struct {
	mu      sync.Mutex
	members map[rosterKey]bool
	// teams нужен AddWithCapacityGuard для max_players; в тестах без
	// вступлений через заявки поле остаётся nil.
	teams *fakeTeamRepo

	addErr error
}

func newFakeRosterRepo(pairs ...[2]int) *fakeRosterRepo {
	repo := &fakeRosterRepo{members: make(map[rosterKey]bool)}
	for _, pair := range pairs {
		repo.members[rosterKey{teamID: pair[0], userID: pair[1]}] = true
	}
	return repo
}

func (r *fakeRosterRepo) Add(_ context.Context, _ repositories.SQLExecutor, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	key := rosterKey{teamID: member.TeamID, userID: member.UserID}
	if r.members[key] {
		return repositories.ErrRosterMemberConflict
	}
	r.members[key] = true
	return nil
}

// AddWithCapacityGuard держит общий мьютекс на проверку и вставку, как
// постгресовая реализация держит advisory-блокировку команды.
func (r *fakeRosterRepo) AddWithCapacityGuard(ctx context.Context, _ repositories.SQLExecutor, member *models.TeamMember) error {
	if r.teams == nil {
		return repositories.ErrRosterTeamInvalid
	}
	team, err := r.teams.GetByID(ctx, member.TeamID)
	if err != nil {
		return repositories.ErrRosterTeamInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	count := 0
	for key := range r.members {
		if key.teamID == member.TeamID {
			count++
		}
	}
	if count >= team.MaxPlayers {
		return repositories.ErrRosterTeamFull
	}
	key := rosterKey{teamID: member.TeamID, userID: member.UserID}
	if r.members[key] {
		return repositories.ErrRosterMemberConflict
	}
	r.members[key] = true
	return nil
}

func (r *fakeRosterRepo) Remove(_ context.Context, _ repositories.SQLExecutor, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rosterKey{teamID: teamID, userID: userID}
	if !r.members[key] {
		return repositories.ErrRosterMemberNotFound
	}
	delete(r.members, key)
	return nil
}

func (r *fakeRosterRepo) Exists(_ context.Context, _ repositories.SQLExecutor, teamID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[rosterKey{teamID: teamID, userID: userID}], nil
}

func (r *fakeRosterRepo) CountMembers(_ context.Context, _ repositories.SQLExecutor, teamID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for key := range r.members {
		if key.teamID == teamID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRosterRepo) ListByTeam(_ context.Context, teamID int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0)
	for key := range r.members {
		if key.teamID == teamID {
			out = append(out, models.User{ID: key.userID})
		}
	}
	return out, nil
}

// --- proposal repository ---

type fakeProposalRepo struct {
	mu        sync.Mutex
	proposals map[int]*models.JoinProposal
	nextID    int

	createErr error
}

func newFakeProposalRepo(proposals ...*models.JoinProposal) *fakeProposalRepo {
	repo := &fakeProposalRepo{proposals: make(map[int]*models.JoinProposal), nextID: 1}
	for _, proposal := range proposals {
		repo.proposals[proposal.ID] = proposal
		if proposal.ID >= repo.nextID {
			repo.nextID = proposal.ID + 1
		}
	}
	return repo
}

func proposalActive(status models.ProposalStatus) bool {
	return status == models.ProposalStatusPending || status == models.ProposalStatusAccepted
}

func (r *fakeProposalRepo) Create(_ context.Context, proposal *models.JoinProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	// Поведение частичного уникального индекса join_proposals_active_pair_key.
	for _, existing := range r.proposals {
		if existing.TeamID == proposal.TeamID && existing.UserID == proposal.UserID && proposalActive(existing.Status) {
			return repositories.ErrProposalConflict
		}
	}
	proposal.ID = r.nextID
	r.nextID++
	copied := *proposal
	r.proposals[proposal.ID] = &copied
	return nil
}

func (r *fakeProposalRepo) GetByID(_ context.Context, id int) (*models.JoinProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	proposal, ok := r.proposals[id]
	if !ok {
		return nil, repositories.ErrProposalNotFound
	}
	copied := *proposal
	return &copied, nil
}

func (r *fakeProposalRepo) FindActiveByTeamAndUser(_ context.Context, teamID, userID int) (*models.JoinProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, proposal := range r.proposals {
		if proposal.TeamID == teamID && proposal.UserID == userID && proposalActive(proposal.Status) {
			copied := *proposal
			return &copied, nil
		}
	}
	return nil, repositories.ErrProposalNotFound
}

func (r *fakeProposalRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.ProposalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	proposal, ok := r.proposals[id]
	if !ok || proposal.Status != models.ProposalStatusPending {
		return repositories.ErrProposalNotPending
	}
	proposal.Status = status
	return nil
}

func (r *fakeProposalRepo) ListByTeam(_ context.Context, teamID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.JoinProposal, 0)
	for _, proposal := range r.proposals {
		if proposal.TeamID != teamID {
			continue
		}
		if statusFilter != nil && proposal.Status != *statusFilter {
			continue
		}
		copied := *proposal
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeProposalRepo) ListByUser(_ context.Context, userID int, statusFilter *models.ProposalStatus) ([]*models.JoinProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.JoinProposal, 0)
	for _, proposal := range r.proposals {
		if proposal.UserID != userID {
			continue
		}
		if statusFilter != nil && proposal.Status != *statusFilter {
			continue
		}
		copied := *proposal
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeProposalRepo) CountPending(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, proposal := range r.proposals {
		if proposal.Status == models.ProposalStatusPending {
			count++
		}
	}
	return count, nil
}

// --- court repository ---

type fakeCourtRepo struct {
	courts map[int]*models.Court
}

func newFakeCourtRepo(courts ...*models.Court) *fakeCourtRepo {
	repo := &fakeCourtRepo{courts: make(map[int]*models.Court)}
	for _, court := range courts {
		repo.courts[court.ID] = court
	}
	return repo
}

func (r *fakeCourtRepo) Create(_ context.Context, court *models.Court) error {
	r.courts[court.ID] = court
	return nil
}

func (r *fakeCourtRepo) GetByID(_ context.Context, id int) (*models.Court, error) {
	court, ok := r.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	copied := *court
	return &copied, nil
}

func (r *fakeCourtRepo) Update(_ context.Context, court *models.Court) error {
	if _, ok := r.courts[court.ID]; !ok {
		return repositories.ErrCourtNotFound
	}
	r.courts[court.ID] = court
	return nil
}

func (r *fakeCourtRepo) Delete(_ context.Context, id int) error {
	delete(r.courts, id)
	return nil
}

func (r *fakeCourtRepo) ListByComplex(_ context.Context, complexID int) ([]*models.Court, error) {
	out := make([]*models.Court, 0)
	for _, court := range r.courts {
		if court.ComplexID == complexID {
			copied := *court
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCourtRepo) Count(context.Context) (int, error) {
	return len(r.courts), nil
}

// --- reservation repository ---

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[int]*models.Reservation
	nextID       int
}

func newFakeReservationRepo(reservations ...*models.Reservation) *fakeReservationRepo {
	repo := &fakeReservationRepo{reservations: make(map[int]*models.Reservation), nextID: 1}
	for _, reservation := range reservations {
		repo.reservations[reservation.ID] = reservation
		if reservation.ID >= repo.nextID {
			repo.nextID = reservation.ID + 1
		}
	}
	return repo
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (r *fakeReservationRepo) CreateWithSlotGuard(_ context.Context, reservation *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Поведение эксклюзивного ограничения reservations_no_overlap_excl.
	for _, existing := range r.reservations {
		if !existing.Active || existing.CourtID != reservation.CourtID || !sameDay(existing.Date, reservation.Date) {
			continue
		}
		for _, slot := range reservation.Slots {
			for _, taken := range existing.Slots {
				if slot == taken {
					return repositories.ErrReservationSlotConflict
				}
			}
		}
	}
	reservation.ID = r.nextID
	r.nextID++
	reservation.Active = true
	copied := *reservation
	r.reservations[reservation.ID] = &copied
	return nil
}

func (r *fakeReservationRepo) GetByID(_ context.Context, id int) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, repositories.ErrReservationNotFound
	}
	copied := *reservation
	return &copied, nil
}

func (r *fakeReservationRepo) ListActiveByCourtAndDate(_ context.Context, courtID int, date time.Time) ([]*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Reservation, 0)
	for _, reservation := range r.reservations {
		if reservation.Active && reservation.CourtID == courtID && sameDay(reservation.Date, date) {
			copied := *reservation
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListByTeam(_ context.Context, teamID int) ([]*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Reservation, 0)
	for _, reservation := range r.reservations {
		if reservation.TeamID == teamID {
			copied := *reservation
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) Cancel(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return repositories.ErrReservationNotFound
	}
	if !reservation.Active {
		return repositories.ErrReservationAlreadyInactive
	}
	reservation.Active = false
	return nil
}

func (r *fakeReservationRepo) CountActive(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, reservation := range r.reservations {
		if reservation.Active {
			count++
		}
	}
	return count, nil
}

// --- reservation_teams repository ---

type fakeLinkRepo struct {
	mu    sync.Mutex
	links []*models.ReservationTeam
}

func newFakeLinkRepo(links ...*models.ReservationTeam) *fakeLinkRepo {
	return &fakeLinkRepo{links: links}
}

func (r *fakeLinkRepo) Create(_ context.Context, _ repositories.SQLExecutor, link *models.ReservationTeam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.links {
		if existing.ReservationID == link.ReservationID && existing.TeamID == link.TeamID {
			return repositories.ErrReservationTeamConflict
		}
	}
	copied := *link
	r.links = append(r.links, &copied)
	return nil
}

func (r *fakeLinkRepo) Exists(_ context.Context, reservationID, teamID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, link := range r.links {
		if link.ReservationID == reservationID && link.TeamID == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLinkRepo) ListByReservation(_ context.Context, reservationID int) ([]*models.ReservationTeam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ReservationTeam, 0)
	for _, link := range r.links {
		if link.ReservationID == reservationID {
			copied := *link
			out = append(out, &copied)
		}
	}
	return out, nil
}

// --- match invitation repository ---

type fakeInvitationRepo struct {
	mu          sync.Mutex
	invitations map[int]*models.MatchInvitation
	nextID      int

	expired int64
}

func newFakeInvitationRepo(invitations ...*models.MatchInvitation) *fakeInvitationRepo {
	repo := &fakeInvitationRepo{invitations: make(map[int]*models.MatchInvitation), nextID: 1}
	for _, invitation := range invitations {
		repo.invitations[invitation.ID] = invitation
		if invitation.ID >= repo.nextID {
			repo.nextID = invitation.ID + 1
		}
	}
	return repo
}

func (r *fakeInvitationRepo) Create(_ context.Context, invitation *models.MatchInvitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Поведение уникального индекса match_invitations_triple_key.
	for _, existing := range r.invitations {
		if existing.ReservationID == invitation.ReservationID &&
			existing.InvitingTeamID == invitation.InvitingTeamID &&
			existing.InvitedTeamID == invitation.InvitedTeamID {
			return repositories.ErrMatchInvitationConflict
		}
	}
	invitation.ID = r.nextID
	r.nextID++
	copied := *invitation
	r.invitations[invitation.ID] = &copied
	return nil
}

func (r *fakeInvitationRepo) GetByID(_ context.Context, id int) (*models.MatchInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invitation, ok := r.invitations[id]
	if !ok {
		return nil, repositories.ErrMatchInvitationNotFound
	}
	copied := *invitation
	return &copied, nil
}

func (r *fakeInvitationRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.ProposalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invitation, ok := r.invitations[id]
	if !ok || invitation.Status != models.ProposalStatusPending {
		return repositories.ErrMatchInvitationNotPending
	}
	invitation.Status = status
	return nil
}

func (r *fakeInvitationRepo) ListIncoming(_ context.Context, teamID int) ([]*models.MatchInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.MatchInvitation, 0)
	for _, invitation := range r.invitations {
		if invitation.InvitedTeamID == teamID {
			copied := *invitation
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) ListOutgoing(_ context.Context, teamID int) ([]*models.MatchInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.MatchInvitation, 0)
	for _, invitation := range r.invitations {
		if invitation.InvitingTeamID == teamID {
			copied := *invitation
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) RejectForPastReservations(context.Context, time.Time) (int64, error) {
	return r.expired, nil
}

// --- notifier ---

type sentNotification struct {
	RecipientID int
	Kind        models.RecipientKind
	Title       string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, recipientID int, kind models.RecipientKind, title, _ string, _ *string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{RecipientID: recipientID, Kind: kind, Title: title})
}

func (n *fakeNotifier) sentTo(recipientID int) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, 0)
	for _, notification := range n.sent {
		if notification.RecipientID == recipientID {
			out = append(out, notification)
		}
	}
	return out
}
