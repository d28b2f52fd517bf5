package models

type DashboardStats struct {
	Users              int `json:"users"`
	Teams              int `json:"teams"`
	Complexes          int `json:"complexes"`
	Courts             int `json:"courts"`
	ActiveReservations int `json:"active_reservations"`
	PendingProposals   int `json:"pending_proposals"`
}
