package codec

import (
	"github.com/laminotes/laminotes/internal/model"
)

type teamJSON struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	OwnerID        string  `json:"owner_id"`
	CreatedAt      string  `json:"created_at"`
	LocalDirectory *string `json:"localDirectory,omitempty"`
}

type teamMemberJSON struct {
	UserID        string  `json:"user_id"`
	TeamID        string  `json:"team_id"`
	Role          int     `json:"role"`
	AccessExpires *string `json:"access_expires,omitempty"`
}

type teamInvitationJSON struct {
	ID           string `json:"id"`
	TeamID       string `json:"team_id"`
	InvitedEmail string `json:"invited_email"`
	InvitedBy    string `json:"invited_by"`
	Role         int    `json:"role"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at"`
	Status       string `json:"status"`
}

type userJSON struct {
	UserID    string  `json:"user_id"`
	Email     string  `json:"email"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// DecodeTeam decodes a team.
func DecodeTeam(raw []byte) (model.Team, error) {
	var d decoder
	root := d.root(raw)
	t := model.Team{
		ID:             d.id(root, "", "id"),
		Name:           d.text(root, "", "name"),
		OwnerID:        d.id(root, "", "owner_id"),
		CreatedAt:      d.timestamp(root, "", "created_at"),
		LocalDirectory: d.optText(root, "", "localDirectory"),
	}
	if d.err != nil {
		return model.Team{}, d.err
	}
	return t, nil
}

// EncodeTeam encodes a team.
func EncodeTeam(t model.Team) ([]byte, error) {
	return marshal(teamJSON{
		ID:             t.ID,
		Name:           t.Name,
		OwnerID:        t.OwnerID,
		CreatedAt:      FormatTime(t.CreatedAt),
		LocalDirectory: optString(t.LocalDirectory),
	})
}

// DecodeTeamMember decodes a membership row.
func DecodeTeamMember(raw []byte) (model.TeamMember, error) {
	var d decoder
	root := d.root(raw)
	m := model.TeamMember{
		UserID:        d.id(root, "", "user_id"),
		TeamID:        d.id(root, "", "team_id"),
		Role:          d.role(root, "", "role"),
		AccessExpires: d.optTime(root, "", "access_expires"),
	}
	if d.err != nil {
		return model.TeamMember{}, d.err
	}
	return m, nil
}

// EncodeTeamMember encodes a membership row.
func EncodeTeamMember(m model.TeamMember) ([]byte, error) {
	return marshal(teamMemberJSON{
		UserID:        m.UserID,
		TeamID:        m.TeamID,
		Role:          int(m.Role),
		AccessExpires: optTimeString(m.AccessExpires),
	})
}

// DecodeTeamInvitation decodes an invitation and checks that it expires after
// it was created.
func DecodeTeamInvitation(raw []byte) (model.TeamInvitation, error) {
	var d decoder
	root := d.root(raw)
	inv := model.TeamInvitation{
		ID:           d.id(root, "", "id"),
		TeamID:       d.id(root, "", "team_id"),
		InvitedEmail: d.id(root, "", "invited_email"),
		InvitedBy:    d.id(root, "", "invited_by"),
		Role:         d.role(root, "", "role"),
		CreatedAt:    d.timestamp(root, "", "created_at"),
		ExpiresAt:    d.timestamp(root, "", "expires_at"),
	}
	if d.err == nil && !inv.ExpiresAt.After(inv.CreatedAt) {
		d.fail("expires_at", "must be later than created_at")
	}
	inv.Status = model.InvitationStatus(d.text(root, "", "status"))
	if d.err == nil && !inv.Status.Valid() {
		d.fail("status", `must be one of "pending", "accepted", "declined", "expired"`)
	}
	if d.err != nil {
		return model.TeamInvitation{}, d.err
	}
	return inv, nil
}

// EncodeTeamInvitation encodes an invitation.
func EncodeTeamInvitation(inv model.TeamInvitation) ([]byte, error) {
	return marshal(teamInvitationJSON{
		ID:           inv.ID,
		TeamID:       inv.TeamID,
		InvitedEmail: inv.InvitedEmail,
		InvitedBy:    inv.InvitedBy,
		Role:         int(inv.Role),
		CreatedAt:    FormatTime(inv.CreatedAt),
		ExpiresAt:    FormatTime(inv.ExpiresAt),
		Status:       string(inv.Status),
	})
}

// DecodeUser decodes an account.
func DecodeUser(raw []byte) (model.User, error) {
	var d decoder
	root := d.root(raw)
	u := model.User{
		UserID:    d.id(root, "", "user_id"),
		Email:     d.id(root, "", "email"),
		CreatedAt: d.optTime(root, "", "created_at"),
	}
	if d.err != nil {
		return model.User{}, d.err
	}
	return u, nil
}

// EncodeUser encodes an account.
func EncodeUser(u model.User) ([]byte, error) {
	return marshal(userJSON{
		UserID:    u.UserID,
		Email:     u.Email,
		CreatedAt: optTimeString(u.CreatedAt),
	})
}
