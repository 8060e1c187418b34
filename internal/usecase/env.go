// Package usecase orchestrates the collaboration core for the CLI and the
// MCP server: it decodes input, checks permissions, runs the tracker and the
// invitation lifecycle, and persists the outcome.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/laminotes/laminotes/internal/access"
	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/config"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/filesystem"
	"github.com/laminotes/laminotes/internal/invitation"
	"github.com/laminotes/laminotes/internal/logging"
	"github.com/laminotes/laminotes/internal/metrics"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/services"
	"github.com/laminotes/laminotes/internal/tracker"
)

// Env carries the collaborators shared by every use case.
type Env struct {
	DB         *database.Context
	Store      *filesystem.Store
	Tracker    *tracker.Tracker
	Access     *access.Engine
	Lifecycle  *invitation.Lifecycle
	Visibility access.Visibility
	Logger     *slog.Logger
	Metrics    *metrics.Collector
	Now        func() time.Time

	users       *services.UserService
	teams       *services.TeamService
	documents   *services.DocumentService
	files       *services.FileService
	invitations *services.InvitationService
}

type envOptions struct {
	now        func() time.Time
	objectsDir string
	logger     *slog.Logger
	metrics    *metrics.Collector
	tracker    *tracker.Tracker
}

// Option configures NewEnv.
type Option func(*envOptions)

// WithClock sets the time source used by permissions, invitations and stamps.
func WithClock(now func() time.Time) Option {
	return func(o *envOptions) { o.now = now }
}

// WithObjectsDir overrides where snapshots are written.
func WithObjectsDir(dir string) Option {
	return func(o *envOptions) { o.objectsDir = dir }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *envOptions) { o.logger = logger }
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(o *envOptions) { o.metrics = collector }
}

// WithTracker replaces the default last-writer-wins tracker.
func WithTracker(t *tracker.Tracker) Option {
	return func(o *envOptions) { o.tracker = t }
}

// NewEnv wires the core engines and services over dbCtx using settings.
func NewEnv(dbCtx *database.Context, settings config.Settings, opts ...Option) *Env {
	o := envOptions{
		now:        time.Now,
		objectsDir: config.GetObjectsDir(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}
	if o.tracker == nil {
		o.tracker = tracker.New()
	}

	visibility := access.Private
	if settings.PublicTeams {
		visibility = access.Public
	}

	env := &Env{
		DB:         dbCtx,
		Store:      filesystem.NewStore(o.objectsDir),
		Tracker:    o.tracker,
		Access:     access.NewEngine(access.WithClock(o.now)),
		Lifecycle:  invitation.New(invitation.ConfigFromDays(settings.InvitationTTLDays), invitation.WithClock(o.now)),
		Visibility: visibility,
		Logger:     o.logger,
		Metrics:    o.metrics,
		Now:        o.now,
	}
	env.users = services.NewUserService(dbCtx)
	env.teams = services.NewTeamService(dbCtx)
	env.documents = services.NewDocumentService(dbCtx)
	env.files = services.NewFileService(dbCtx)
	env.invitations = services.NewInvitationService(dbCtx, env.Lifecycle, env.recordTransition)
	return env
}

func (e *Env) now() time.Time { return model.Timestamp(e.Now()) }

func (e *Env) recordTransition(inv model.TeamInvitation) {
	e.Metrics.RecordInvitationTransition(string(inv.Status))
	e.Logger.Info("invitation transition",
		"invitation_id", inv.ID,
		"team_id", inv.TeamID,
		"status", string(inv.Status))
}

// authorize fetches the actor's membership and checks it against action.
func (e *Env) authorize(ctx context.Context, teamID, actorID string, action access.Action) (model.Optional[model.TeamMember], error) {
	if actorID == "" {
		return model.None[model.TeamMember](), apperrors.Malformed("actorId", "must not be empty")
	}
	member, err := e.teams.Membership(ctx, teamID, actorID)
	if err != nil {
		return member, err
	}
	if err := e.Access.Require(member, action, e.Visibility); err != nil {
		e.Logger.Warn("permission denied",
			"user_id", actorID,
			"team_id", teamID,
			"action", action.String())
		return member, err
	}
	return member, nil
}
