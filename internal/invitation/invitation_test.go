package invitation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/model"
)

var t0 = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

type clock struct{ at time.Time }

func (c *clock) now() time.Time { return c.at }

func newLifecycle(c *clock, days int) *Lifecycle {
	return New(ConfigFromDays(days),
		WithClock(c.now),
		WithIDGenerator(func() (string, error) { return "inv-1", nil }))
}

func pending(t *testing.T, l *Lifecycle) model.TeamInvitation {
	t.Helper()
	inv, err := l.Create(CreateInput{
		TeamID:       "team-1",
		InvitedEmail: " Ana@Example.com ",
		InvitedBy:    "owner",
		Role:         model.RoleContributor,
	})
	require.NoError(t, err)
	return inv
}

func TestCreate(t *testing.T) {
	l := newLifecycle(&clock{at: t0}, 3)

	inv := pending(t, l)

	assert.Equal(t, model.TeamInvitation{
		ID:           "inv-1",
		TeamID:       "team-1",
		InvitedEmail: "ana@example.com",
		InvitedBy:    "owner",
		Role:         model.RoleContributor,
		CreatedAt:    t0,
		ExpiresAt:    t0.Add(72 * time.Hour),
		Status:       model.InvitationPending,
	}, inv)
	assert.True(t, inv.ExpiresAt.After(inv.CreatedAt))
}

func TestCreateValidation(t *testing.T) {
	l := newLifecycle(&clock{at: t0}, 7)
	valid := CreateInput{TeamID: "t", InvitedEmail: "a@b.c", InvitedBy: "o", Role: model.RoleViewer}

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"team", func(in *CreateInput) { in.TeamID = " " }, "team_id"},
		{"inviter", func(in *CreateInput) { in.InvitedBy = "" }, "invited_by"},
		{"email missing", func(in *CreateInput) { in.InvitedEmail = "" }, "invited_email"},
		{"email invalid", func(in *CreateInput) { in.InvitedEmail = "not-an-address" }, "invited_email"},
		{"role", func(in *CreateInput) { in.Role = model.TeamRole(5) }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := l.Create(in)
			assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
			assert.Equal(t, tt.field, apperrors.Field(err))
		})
	}
}

func TestCreateIDFailure(t *testing.T) {
	l := New(Config{}, WithIDGenerator(func() (string, error) { return "", errors.New("entropy") }))

	_, err := l.Create(CreateInput{TeamID: "t", InvitedEmail: "a@b.c", InvitedBy: "o"})
	assert.ErrorContains(t, err, "generate invitation id")
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, New(Config{}).TTL())
	assert.Equal(t, 7*24*time.Hour, ConfigFromDays(0).TTL)
	assert.Equal(t, 24*time.Hour, ConfigFromDays(1).TTL)
}

func TestLazyExpiryThenAcceptFails(t *testing.T) {
	c := &clock{at: t0}
	l := newLifecycle(c, 1)
	inv := pending(t, l)
	require.Equal(t, t0.Add(24*time.Hour), inv.ExpiresAt)

	c.at = t0.Add(48 * time.Hour)
	observed, changed := l.Observe(inv)
	assert.True(t, changed)
	assert.Equal(t, model.InvitationExpired, observed.Status)

	again, changed := l.Observe(observed)
	assert.False(t, changed, "expiry is idempotent")
	assert.Equal(t, observed, again)

	_, _, err := l.Accept(observed, model.User{UserID: "ana", Email: "ana@example.com"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAcceptExpiresUnobservedInvitation(t *testing.T) {
	c := &clock{at: t0}
	l := newLifecycle(c, 1)
	inv := pending(t, l)

	c.at = inv.ExpiresAt.Add(time.Millisecond)
	got, _, err := l.Accept(inv, model.User{UserID: "ana", Email: "ana@example.com"}, nil)

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, model.InvitationExpired, got.Status)
}

func TestAcceptAtDeadlineStillSucceeds(t *testing.T) {
	c := &clock{at: t0}
	l := newLifecycle(c, 1)
	inv := pending(t, l)

	c.at = inv.ExpiresAt
	_, _, err := l.Accept(inv, model.User{UserID: "ana", Email: "ana@example.com"}, nil)
	assert.NoError(t, err)
}

func TestAccept(t *testing.T) {
	l := newLifecycle(&clock{at: t0}, 7)
	inv := pending(t, l)

	accepted, member, err := l.Accept(inv, model.User{UserID: "ana", Email: "ANA@example.com"},
		[]model.TeamMember{{UserID: "owner", TeamID: "team-1", Role: model.RoleOwner}})
	require.NoError(t, err)

	assert.Equal(t, model.InvitationAccepted, accepted.Status)
	assert.Equal(t, model.TeamMember{UserID: "ana", TeamID: "team-1", Role: model.RoleContributor}, member)

	_, _, err = l.Accept(accepted, model.User{UserID: "ana", Email: "ana@example.com"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = l.Decline(accepted)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAcceptAlreadyMember(t *testing.T) {
	l := newLifecycle(&clock{at: t0}, 7)
	inv := pending(t, l)

	got, _, err := l.Accept(inv, model.User{UserID: "ana", Email: "ana@example.com"},
		[]model.TeamMember{{UserID: "ana", TeamID: "team-1", Role: model.RoleViewer}})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)
	assert.Equal(t, model.InvitationPending, got.Status)
}

func TestAcceptWrongRecipient(t *testing.T) {
	l := newLifecycle(&clock{at: t0}, 7)
	inv := pending(t, l)

	_, _, err := l.Accept(inv, model.User{UserID: "bob", Email: "bob@example.com"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestDecline(t *testing.T) {
	l := newLifecycle(&clock{at: t0}, 7)
	inv := pending(t, l)

	declined, err := l.Decline(inv)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationDeclined, declined.Status)

	_, _, err = l.Accept(declined, model.User{UserID: "ana", Email: "ana@example.com"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestObserveLeavesTerminalStatuses(t *testing.T) {
	c := &clock{at: t0.Add(365 * 24 * time.Hour)}
	l := newLifecycle(c, 1)

	for _, s := range []model.InvitationStatus{model.InvitationAccepted, model.InvitationDeclined, model.InvitationExpired} {
		inv := model.TeamInvitation{Status: s, ExpiresAt: t0}
		got, changed := l.Observe(inv)
		assert.False(t, changed)
		assert.Equal(t, s, got.Status)
	}
}
