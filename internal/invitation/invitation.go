// Package invitation drives team invitations through their lifecycle:
// pending invitations are accepted, declined, or expire lazily once a reader
// observes them past their deadline.
package invitation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/laminotes/laminotes/internal/access"
	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/model"
)

// DefaultTTLDays is the invitation lifetime used when none is configured.
const DefaultTTLDays = 7

// Config holds lifecycle settings.
type Config struct {
	TTL time.Duration
}

// ConfigFromDays builds a Config from the invitationTtlDays setting. Values
// below one day fall back to the default.
func ConfigFromDays(days int) Config {
	if days < 1 {
		days = DefaultTTLDays
	}
	return Config{TTL: time.Duration(days) * 24 * time.Hour}
}

// Lifecycle creates invitations and applies their state transitions.
type Lifecycle struct {
	ttl   time.Duration
	now   func() time.Time
	newID func() (string, error)
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator sets the invitation id source.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(l *Lifecycle) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// New constructs a Lifecycle.
func New(cfg Config, opts ...Option) *Lifecycle {
	if cfg.TTL <= 0 {
		cfg = ConfigFromDays(DefaultTTLDays)
	}
	l := &Lifecycle{ttl: cfg.TTL, now: time.Now, newID: newID}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// TTL returns the configured invitation lifetime.
func (l *Lifecycle) TTL() time.Duration { return l.ttl }

// CreateInput describes a new invitation.
type CreateInput struct {
	TeamID       string
	InvitedEmail string
	InvitedBy    string
	Role         model.TeamRole
}

// Create returns a pending invitation expiring one TTL from now.
func (l *Lifecycle) Create(input CreateInput) (model.TeamInvitation, error) {
	email := NormalizeEmail(input.InvitedEmail)
	switch {
	case strings.TrimSpace(input.TeamID) == "":
		return model.TeamInvitation{}, apperrors.Malformed("team_id", "is required")
	case strings.TrimSpace(input.InvitedBy) == "":
		return model.TeamInvitation{}, apperrors.Malformed("invited_by", "is required")
	case email == "":
		return model.TeamInvitation{}, apperrors.Malformed("invited_email", "is required")
	case !input.Role.Valid():
		return model.TeamInvitation{}, apperrors.Malformed("role", fmt.Sprintf("has unknown value %d", int(input.Role)))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.TeamInvitation{}, apperrors.Malformed("invited_email", "is not an email address")
	}

	id, err := l.newID()
	if err != nil {
		return model.TeamInvitation{}, fmt.Errorf("generate invitation id: %w", err)
	}

	createdAt := model.Timestamp(l.now())
	return model.TeamInvitation{
		ID:           id,
		TeamID:       strings.TrimSpace(input.TeamID),
		InvitedEmail: email,
		InvitedBy:    strings.TrimSpace(input.InvitedBy),
		Role:         input.Role,
		CreatedAt:    createdAt,
		ExpiresAt:    createdAt.Add(l.ttl),
		Status:       model.InvitationPending,
	}, nil
}

// Observe applies lazy expiry: a pending invitation seen after its deadline
// becomes expired. The second result reports whether the status changed.
// Observing the same invitation any number of times gives the same outcome.
func (l *Lifecycle) Observe(inv model.TeamInvitation) (model.TeamInvitation, bool) {
	if inv.Status != model.InvitationPending || !inv.ExpiredAt(l.now()) {
		return inv, false
	}
	inv.Status = model.InvitationExpired
	return inv, true
}

// Accept moves a pending invitation to accepted and returns the membership
// it grants. members is the current roster of the invitation's team.
func (l *Lifecycle) Accept(inv model.TeamInvitation, acceptor model.User, members []model.TeamMember) (model.TeamInvitation, model.TeamMember, error) {
	inv, _ = l.Observe(inv)
	if err := transition(inv, model.InvitationAccepted); err != nil {
		return inv, model.TeamMember{}, err
	}
	if NormalizeEmail(acceptor.Email) != inv.InvitedEmail {
		return inv, model.TeamMember{}, apperrors.WithMetadata(apperrors.CodePermissionDenied,
			fmt.Sprintf("invitation %s was sent to a different address", inv.ID),
			map[string]string{"invitationId": inv.ID})
	}
	if m, ok := access.MemberOf(members, acceptor.UserID).Get(); ok && m.TeamID == inv.TeamID {
		return inv, model.TeamMember{}, apperrors.WithMetadata(apperrors.CodeAlreadyMember,
			fmt.Sprintf("user %s is already a member of team %s", acceptor.UserID, inv.TeamID),
			map[string]string{"userId": acceptor.UserID, "teamId": inv.TeamID})
	}

	inv.Status = model.InvitationAccepted
	return inv, model.TeamMember{
		UserID: acceptor.UserID,
		TeamID: inv.TeamID,
		Role:   inv.Role,
	}, nil
}

// Decline moves a pending invitation to declined.
func (l *Lifecycle) Decline(inv model.TeamInvitation) (model.TeamInvitation, error) {
	inv, _ = l.Observe(inv)
	if err := transition(inv, model.InvitationDeclined); err != nil {
		return inv, err
	}
	inv.Status = model.InvitationDeclined
	return inv, nil
}

func transition(inv model.TeamInvitation, to model.InvitationStatus) error {
	if model.CanTransition(inv.Status, to) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeInvalidTransition,
		fmt.Sprintf("invitation %s cannot move from %s to %s", inv.ID, inv.Status, to),
		map[string]string{"from": string(inv.Status), "to": string(to)})
}

// NormalizeEmail trims and lowercases an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
