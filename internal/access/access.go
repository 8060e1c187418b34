// Package access decides whether a team member may view or edit documents or
// manage the team. It is a predicate over supplied state: callers fetch the
// membership first and pass it in.
package access

import (
	"fmt"
	"time"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/model"
)

// Action is something a user attempts against a document or team.
type Action int

const (
	// ActionView reads a document or the team roster.
	ActionView Action = iota
	// ActionEdit appends changes to a document.
	ActionEdit
	// ActionManageTeam mutates membership and sends invitations.
	ActionManageTeam
)

// minimumRole is the lowest role that authorizes each action.
var minimumRole = map[Action]model.TeamRole{
	ActionView:       model.RoleViewer,
	ActionEdit:       model.RoleContributor,
	ActionManageTeam: model.RoleOwner,
}

var actionNames = map[Action]string{
	ActionView:       "view",
	ActionEdit:       "edit",
	ActionManageTeam: "manage_team",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Visibility says whether non-members may view a team's documents.
type Visibility int

const (
	Private Visibility = iota
	Public
)

// Engine evaluates authorization at the time reported by its clock.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for membership expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an Engine using the wall clock unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Active returns the membership when it is present and not expired. An expired
// membership is kept by the team but grants nothing.
func (e *Engine) Active(member model.Optional[model.TeamMember]) (model.TeamMember, bool) {
	m, ok := member.Get()
	if !ok || !m.ActiveAt(e.now()) {
		return model.TeamMember{}, false
	}
	return m, true
}

// Authorize reports whether member may perform action. Without an active
// membership only viewing a public team is allowed.
func (e *Engine) Authorize(member model.Optional[model.TeamMember], action Action, vis Visibility) bool {
	required, known := minimumRole[action]
	if !known {
		return false
	}
	m, ok := e.Active(member)
	if !ok {
		return action == ActionView && vis == Public
	}
	return m.Role.AtLeast(required)
}

// Require is Authorize returning PermissionDenied on refusal.
func (e *Engine) Require(member model.Optional[model.TeamMember], action Action, vis Visibility) error {
	if e.Authorize(member, action, vis) {
		return nil
	}
	who := "non-member"
	if m, ok := member.Get(); ok {
		who = m.UserID
		if !m.ActiveAt(e.now()) {
			who += " (membership expired)"
		}
	}
	return apperrors.WithMetadata(apperrors.CodePermissionDenied,
		fmt.Sprintf("%s may not %s", who, action),
		map[string]string{"action": action.String()})
}

// CanInvite reports whether member may send invitations. Only owners can, so
// an Owner invitation always comes from an existing owner.
func (e *Engine) CanInvite(member model.Optional[model.TeamMember]) bool {
	m, ok := e.Active(member)
	return ok && m.Role == model.RoleOwner
}

// ValidateRoster checks the membership rows of team: every row belongs to the
// team, no user appears twice, and the owner holds exactly one Owner row.
func ValidateRoster(team model.Team, members []model.TeamMember) error {
	seen := make(map[string]bool, len(members))
	ownerRows := 0
	for _, m := range members {
		if m.TeamID != team.ID {
			return apperrors.Newf(apperrors.CodeMalformedInput,
				"member %s belongs to team %s, not %s", m.UserID, m.TeamID, team.ID)
		}
		if seen[m.UserID] {
			return apperrors.Newf(apperrors.CodeAlreadyMember,
				"user %s has more than one membership in team %s", m.UserID, team.ID)
		}
		seen[m.UserID] = true
		if m.UserID == team.OwnerID && m.Role == model.RoleOwner {
			ownerRows++
		}
	}
	if ownerRows != 1 {
		return apperrors.Newf(apperrors.CodeMalformedInput,
			"team %s owner %s must hold exactly one owner membership, found %d", team.ID, team.OwnerID, ownerRows)
	}
	return nil
}

// MemberOf finds the membership of userID in members.
func MemberOf(members []model.TeamMember, userID string) model.Optional[model.TeamMember] {
	for _, m := range members {
		if m.UserID == userID {
			return model.Some(m)
		}
	}
	return model.None[model.TeamMember]()
}
