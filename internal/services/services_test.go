package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/invitation"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/tracker"
)

var epoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func setupServiceDB(t *testing.T) *database.Context {
	t.Helper()
	ctx, err := database.CreateDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, database.CloseDatabase(ctx)) })
	return ctx
}

func seedOwnedTeam(t *testing.T, dbCtx *database.Context) model.Team {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, NewUserService(dbCtx).Register(ctx, model.User{UserID: "owner", Email: "Owner@Example.com"}))
	team := model.Team{ID: "team-1", Name: "Docs", OwnerID: "owner", CreatedAt: epoch}
	require.NoError(t, NewTeamService(dbCtx).Create(ctx, team))
	return team
}

func register(t *testing.T, dbCtx *database.Context, id, email string) model.User {
	t.Helper()
	user := model.User{UserID: id, Email: email}
	require.NoError(t, NewUserService(dbCtx).Register(context.Background(), user), "register %s", id)
	return user
}

func TestUserServiceNormalizesEmail(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	svc := NewUserService(dbCtx)

	require.NoError(t, svc.Register(ctx, model.User{UserID: "ana", Email: " Ana@Example.COM "}))
	user, err := svc.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	assert.ErrorIs(t, svc.Register(ctx, model.User{UserID: "ana2", Email: "ana@example.com"}), database.ErrDuplicate)
	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamServiceCreatesOwnerMembership(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	svc := NewTeamService(dbCtx)

	members, err := svc.Members(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "owner", members[0].UserID)
	assert.Equal(t, model.RoleOwner, members[0].Role)

	err = svc.Create(ctx, model.Team{ID: "team-2", Name: "x", OwnerID: "ghost", CreatedAt: epoch})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamServiceRosterChanges(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	register(t, dbCtx, "bo", "bo@example.com")
	svc := NewTeamService(dbCtx)

	member := model.TeamMember{UserID: "bo", TeamID: team.ID, Role: model.RoleViewer}
	insert := func(repos *database.Repositories) error { return addMember(ctx, repos, member) }
	require.NoError(t, svc.withTx(ctx, insert))
	assert.ErrorIs(t, svc.withTx(ctx, insert), apperrors.ErrAlreadyMember)

	member.Role = model.RoleContributor
	require.NoError(t, svc.UpdateMember(ctx, member))
	got, err := svc.Membership(ctx, team.ID, "bo")
	require.NoError(t, err)
	m, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, model.RoleContributor, m.Role)

	demoted := model.TeamMember{UserID: "owner", TeamID: team.ID, Role: model.RoleViewer}
	assert.ErrorIs(t, svc.UpdateMember(ctx, demoted), apperrors.ErrMalformedInput, "demoting the owner")
	assert.ErrorIs(t, svc.RemoveMember(ctx, team.ID, "owner"), apperrors.ErrMalformedInput, "removing the owner")

	require.NoError(t, svc.RemoveMember(ctx, team.ID, "bo"))
	assert.ErrorIs(t, svc.RemoveMember(ctx, team.ID, "bo"), apperrors.ErrNotFound)
}

func TestDocumentServiceSaveRejectsStaleToken(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	svc := NewDocumentService(dbCtx)

	meta := model.NewMarkdownMetadata("doc-1", nil, nil, epoch)
	first, err := svc.Create(ctx, database.DocumentRecord{TeamID: team.ID, Metadata: meta, CreatedAt: epoch},
		Snapshot{FileName: "doc-1.md", Hash: "h0", Path: "/p0"})
	require.NoError(t, err)

	change := model.DocumentChange{
		UserID:    "owner",
		Username:  "owner",
		Timestamp: epoch.Add(time.Second),
		Sections:  []model.TextSection{{StartIndex: 0, EndIndex: 0, Content: "hello"}},
	}
	next := meta.Extend(change, "#3cb44b")

	// The clock reads earlier than the previous stamp.
	second, err := svc.Save(ctx, team.ID, next, database.VersionOf(meta), Snapshot{FileName: "doc-1.md", Hash: "h1", Path: "/p1"}, epoch.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, second.Metadata.LastModified.After(first.Metadata.LastModified),
		"file stamp must increase: %s then %s", first.Metadata.LastModified, second.Metadata.LastModified)

	_, err = svc.Save(ctx, team.ID, next, database.VersionOf(meta), Snapshot{FileName: "doc-1.md", Hash: "h2", Path: "/p2"}, epoch)
	require.ErrorIs(t, err, apperrors.ErrStaleWrite)

	file, err := NewFileService(dbCtx).Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "h1", file.Hash, "stale save must not restamp the file")

	stored, err := svc.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Metadata.Len())
}

func TestDocumentServiceSaveRejectsSecondWriterWithEqualTimestamp(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	svc := NewDocumentService(dbCtx)

	base := model.NewMarkdownMetadata("doc-1", nil, nil, epoch)
	_, err := svc.Create(ctx, database.DocumentRecord{TeamID: team.ID, Metadata: base, CreatedAt: epoch},
		Snapshot{FileName: "doc-1.md", Hash: "h0", Path: "/p0"})
	require.NoError(t, err)

	tr := tracker.New()
	writerA, err := tr.AppendIfCurrent(base, epoch, model.DocumentChange{
		UserID: "owner", Username: "owner", Timestamp: epoch,
		Sections: []model.TextSection{{StartIndex: 0, EndIndex: 0, Content: "from a"}},
	})
	require.NoError(t, err)
	writerB, err := tr.AppendIfCurrent(base, epoch, model.DocumentChange{
		UserID: "owner", Username: "owner", Timestamp: epoch,
		Sections: []model.TextSection{{StartIndex: 0, EndIndex: 0, Content: "from b"}},
	})
	require.NoError(t, err)

	_, err = svc.Save(ctx, team.ID, writerA, database.VersionOf(base), Snapshot{FileName: "doc-1.md", Hash: "ha", Path: "/pa"}, epoch)
	require.NoError(t, err)
	_, err = svc.Save(ctx, team.ID, writerB, database.VersionOf(base), Snapshot{FileName: "doc-1.md", Hash: "hb", Path: "/pb"}, epoch)
	require.ErrorIs(t, err, apperrors.ErrStaleWrite)

	stored, err := svc.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "from a", tr.Materialize(stored.Metadata))
}

func TestNextFileTimestamp(t *testing.T) {
	now := epoch.Add(500 * time.Microsecond)
	assert.True(t, NextFileTimestamp(model.None[time.Time](), now).Equal(epoch), "truncated now")
	assert.True(t, NextFileTimestamp(model.Some(epoch), epoch).Equal(epoch.Add(time.Millisecond)), "previous+1ms")
	later := epoch.Add(time.Minute)
	assert.True(t, NextFileTimestamp(model.Some(epoch), later).Equal(later), "now when ahead")
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newInvitationService(dbCtx *database.Context, clock *fakeClock, seen *[]model.InvitationStatus) *InvitationService {
	lifecycle := invitation.New(invitation.ConfigFromDays(1), invitation.WithClock(clock.Now))
	return NewInvitationService(dbCtx, lifecycle, func(inv model.TeamInvitation) {
		*seen = append(*seen, inv.Status)
	})
}

func TestInvitationServiceAcceptAddsMember(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	ana := register(t, dbCtx, "ana", "ana@example.com")
	clock := &fakeClock{now: epoch}
	var seen []model.InvitationStatus
	svc := newInvitationService(dbCtx, clock, &seen)

	inv, err := svc.Create(ctx, invitation.CreateInput{TeamID: team.ID, InvitedEmail: "ANA@example.com", InvitedBy: "owner", Role: model.RoleContributor})
	require.NoError(t, err)

	accepted, member, err := svc.Accept(ctx, inv.ID, ana)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationAccepted, accepted.Status)
	assert.Equal(t, model.RoleContributor, member.Role)

	got, err := NewTeamService(dbCtx).Membership(ctx, team.ID, "ana")
	require.NoError(t, err)
	assert.True(t, got.Present())

	_, _, err = svc.Accept(ctx, inv.ID, ana)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, []model.InvitationStatus{model.InvitationAccepted}, seen)
}

func TestInvitationServicePersistsLazyExpiry(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	ana := register(t, dbCtx, "ana", "ana@example.com")
	clock := &fakeClock{now: epoch}
	var seen []model.InvitationStatus
	svc := newInvitationService(dbCtx, clock, &seen)

	inv, err := svc.Create(ctx, invitation.CreateInput{TeamID: team.ID, InvitedEmail: "ana@example.com", InvitedBy: "owner", Role: model.RoleViewer})
	require.NoError(t, err)

	clock.now = epoch.Add(48 * time.Hour)

	_, _, err = svc.Accept(ctx, inv.ID, ana)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	stored, err := database.NewInvitationRepository(dbCtx).FindByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.InvitationExpired, stored.Status)

	for i := 0; i < 2; i++ {
		got, err := svc.Get(ctx, inv.ID)
		require.NoError(t, err, "Get #%d", i)
		assert.Equal(t, model.InvitationExpired, got.Status, "Get #%d", i)
	}
	assert.Equal(t, []model.InvitationStatus{model.InvitationExpired}, seen, "exactly one expiry transition")

	_, err = svc.Decline(ctx, inv.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestInvitationServiceReportsTransitionsAfterCommit(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	clock := &fakeClock{now: epoch}
	lifecycle := invitation.New(invitation.ConfigFromDays(1), invitation.WithClock(clock.Now))

	invitations := database.NewInvitationRepository(dbCtx)
	var committed []model.InvitationStatus
	svc := NewInvitationService(dbCtx, lifecycle, func(inv model.TeamInvitation) {
		// Outside the service transaction only committed rows are visible.
		stored, err := invitations.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		committed = append(committed, stored.Status)
	})

	inv, err := svc.Create(ctx, invitation.CreateInput{TeamID: team.ID, InvitedEmail: "ana@example.com", InvitedBy: "owner", Role: model.RoleViewer})
	require.NoError(t, err)

	// No user row exists for the acceptor, so inserting the membership fails
	// after the invitation was marked accepted and the transaction rolls back.
	ghost := model.User{UserID: "ghost", Email: "ana@example.com"}
	_, _, err = svc.Accept(ctx, inv.ID, ghost)
	require.Error(t, err)
	assert.Empty(t, committed, "rolled back transition must not be reported")

	stored, err := invitations.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.InvitationPending, stored.Status)

	clock.now = epoch.Add(48 * time.Hour)
	list, err := svc.ListByTeam(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []model.InvitationStatus{model.InvitationExpired}, committed)
}

func TestInvitationServiceRefusals(t *testing.T) {
	dbCtx := setupServiceDB(t)
	ctx := context.Background()
	team := seedOwnedTeam(t, dbCtx)
	bo := register(t, dbCtx, "bo", "bo@example.com")
	clock := &fakeClock{now: epoch}
	var seen []model.InvitationStatus
	svc := newInvitationService(dbCtx, clock, &seen)

	inv, err := svc.Create(ctx, invitation.CreateInput{TeamID: team.ID, InvitedEmail: "ana@example.com", InvitedBy: "owner", Role: model.RoleViewer})
	require.NoError(t, err)
	_, _, err = svc.Accept(ctx, inv.ID, bo)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied, "another recipient")

	owner, err := NewUserService(dbCtx).Get(ctx, "owner")
	require.NoError(t, err)
	toOwner, err := svc.Create(ctx, invitation.CreateInput{TeamID: team.ID, InvitedEmail: owner.Email, InvitedBy: "owner", Role: model.RoleViewer})
	require.NoError(t, err)
	_, _, err = svc.Accept(ctx, toOwner.ID, owner)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)

	declined, err := svc.Decline(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationDeclined, declined.Status)

	list, err := svc.ListByTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	byEmail, err := svc.ListByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, model.InvitationDeclined, byEmail[0].Status)

	_, err = svc.Create(ctx, invitation.CreateInput{TeamID: "missing", InvitedEmail: "x@example.com", InvitedBy: "owner"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
