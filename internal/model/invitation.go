package model

import "time"

// InvitationStatus is the lifecycle state of a team invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// invitationTransitions lists the allowed moves. Only pending has exits.
var invitationTransitions = map[InvitationStatus][]InvitationStatus{
	InvitationPending:  {InvitationAccepted, InvitationDeclined, InvitationExpired},
	InvitationAccepted: nil,
	InvitationDeclined: nil,
	InvitationExpired:  nil,
}

// Valid reports whether s is one of the declared statuses.
func (s InvitationStatus) Valid() bool {
	_, ok := invitationTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s InvitationStatus) Terminal() bool {
	return s.Valid() && len(invitationTransitions[s]) == 0
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to InvitationStatus) bool {
	for _, next := range invitationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TeamInvitation is an offer of membership in a team. It is owned by the team
// until it reaches a terminal status and is kept afterwards as an audit record.
type TeamInvitation struct {
	ID           string
	TeamID       string
	InvitedEmail string
	InvitedBy    string
	Role         TeamRole
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Status       InvitationStatus
}

// ExpiredAt reports whether the invitation deadline has passed at now.
func (i TeamInvitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
