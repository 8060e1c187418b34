package services

import (
	"context"
	"fmt"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/invitation"
	"github.com/laminotes/laminotes/internal/model"
)

// TransitionFunc observes every status change the service persists.
type TransitionFunc func(inv model.TeamInvitation)

// InvitationService persists invitations and applies the lifecycle inside
// transactions. Reads observe expiry and write it back, so a stored
// invitation never stays pending past its deadline once it has been read.
type InvitationService struct {
	txRunner
	lifecycle    *invitation.Lifecycle
	onTransition TransitionFunc
}

func NewInvitationService(ctx *database.Context, lifecycle *invitation.Lifecycle, onTransition TransitionFunc) *InvitationService {
	if onTransition == nil {
		onTransition = func(model.TeamInvitation) {}
	}
	return &InvitationService{
		txRunner:     txRunner{name: "invitation service", ctx: ctx},
		lifecycle:    lifecycle,
		onTransition: onTransition,
	}
}

// Create builds a pending invitation and stores it.
func (s *InvitationService) Create(ctx context.Context, input invitation.CreateInput) (model.TeamInvitation, error) {
	inv, err := s.lifecycle.Create(input)
	if err != nil {
		return model.TeamInvitation{}, err
	}
	err = s.withTx(ctx, func(repos *database.Repositories) error {
		if _, err := getTeam(ctx, repos, inv.TeamID); err != nil {
			return err
		}
		return repos.Invitations.Create(ctx, inv)
	})
	if err != nil {
		return model.TeamInvitation{}, err
	}
	return inv, nil
}

// Get loads an invitation and persists lazy expiry.
func (s *InvitationService) Get(ctx context.Context, id string) (model.TeamInvitation, error) {
	var inv model.TeamInvitation
	err := s.withTransitions(ctx, func(repos *database.Repositories, moved *transitions) error {
		var err error
		inv, err = s.load(ctx, repos, moved, id)
		return err
	})
	return inv, err
}

func (s *InvitationService) ListByTeam(ctx context.Context, teamID string) ([]model.TeamInvitation, error) {
	return s.list(ctx, func(repos *database.Repositories) ([]model.TeamInvitation, error) {
		return repos.Invitations.ListByTeam(ctx, teamID)
	})
}

func (s *InvitationService) ListByEmail(ctx context.Context, email string) ([]model.TeamInvitation, error) {
	return s.list(ctx, func(repos *database.Repositories) ([]model.TeamInvitation, error) {
		return repos.Invitations.ListByEmail(ctx, invitation.NormalizeEmail(email))
	})
}

// Accept moves the invitation to accepted and inserts the membership in
// one transaction. A lifecycle refusal still commits any expiry observed on
// the way.
func (s *InvitationService) Accept(ctx context.Context, id string, acceptor model.User) (model.TeamInvitation, model.TeamMember, error) {
	var (
		accepted model.TeamInvitation
		member   model.TeamMember
		refusal  error
	)
	err := s.withTransitions(ctx, func(repos *database.Repositories, moved *transitions) error {
		inv, err := s.load(ctx, repos, moved, id)
		if err != nil {
			return err
		}
		members, err := repos.Members.ListByTeam(ctx, inv.TeamID)
		if err != nil {
			return err
		}
		accepted, member, refusal = s.lifecycle.Accept(inv, acceptor, members)
		if refusal != nil {
			return nil
		}
		if err := s.persistTransition(ctx, repos, inv.Status, accepted); err != nil {
			return err
		}
		if err := addMember(ctx, repos, member); err != nil {
			return err
		}
		moved.add(accepted)
		return nil
	})
	if err == nil {
		err = refusal
	}
	if err != nil {
		return model.TeamInvitation{}, model.TeamMember{}, err
	}
	return accepted, member, nil
}

// Decline moves a pending invitation to declined.
func (s *InvitationService) Decline(ctx context.Context, id string) (model.TeamInvitation, error) {
	var (
		declined model.TeamInvitation
		refusal  error
	)
	err := s.withTransitions(ctx, func(repos *database.Repositories, moved *transitions) error {
		inv, err := s.load(ctx, repos, moved, id)
		if err != nil {
			return err
		}
		declined, refusal = s.lifecycle.Decline(inv)
		if refusal != nil {
			return nil
		}
		if err := s.persistTransition(ctx, repos, inv.Status, declined); err != nil {
			return err
		}
		moved.add(declined)
		return nil
	})
	if err == nil {
		err = refusal
	}
	if err != nil {
		return model.TeamInvitation{}, err
	}
	return declined, nil
}

// transitions holds the status changes written by one transaction.
type transitions []model.TeamInvitation

func (t *transitions) add(inv model.TeamInvitation) {
	*t = append(*t, inv)
}

// withTransitions runs fn in a transaction and reports the status changes it
// recorded once the transaction has committed. Nothing is reported when it
// rolls back.
func (s *InvitationService) withTransitions(ctx context.Context, fn func(*database.Repositories, *transitions) error) error {
	var moved transitions
	err := s.withTx(ctx, func(repos *database.Repositories) error {
		moved = moved[:0]
		return fn(repos, &moved)
	})
	if err != nil {
		return err
	}
	for _, inv := range moved {
		s.onTransition(inv)
	}
	return nil
}

func (s *InvitationService) list(ctx context.Context, fetch func(*database.Repositories) ([]model.TeamInvitation, error)) ([]model.TeamInvitation, error) {
	var result []model.TeamInvitation
	err := s.withTransitions(ctx, func(repos *database.Repositories, moved *transitions) error {
		stored, err := fetch(repos)
		if err != nil {
			return err
		}
		result = make([]model.TeamInvitation, 0, len(stored))
		for _, inv := range stored {
			observed, err := s.observe(ctx, repos, moved, inv)
			if err != nil {
				return err
			}
			result = append(result, observed)
		}
		return nil
	})
	return result, err
}

func (s *InvitationService) load(ctx context.Context, repos *database.Repositories, moved *transitions, id string) (model.TeamInvitation, error) {
	stored, err := repos.Invitations.FindByID(ctx, id)
	if err != nil {
		return model.TeamInvitation{}, err
	}
	if stored == nil {
		return model.TeamInvitation{}, apperrors.Newf(apperrors.CodeNotFound, "invitation %s not found", id)
	}
	return s.observe(ctx, repos, moved, *stored)
}

func (s *InvitationService) observe(ctx context.Context, repos *database.Repositories, moved *transitions, inv model.TeamInvitation) (model.TeamInvitation, error) {
	observed, changed := s.lifecycle.Observe(inv)
	if !changed {
		return inv, nil
	}
	ok, err := repos.Invitations.Transition(ctx, inv.ID, inv.Status, observed.Status)
	if err != nil {
		return model.TeamInvitation{}, fmt.Errorf("persist expiry of %s: %w", inv.ID, err)
	}
	if ok {
		moved.add(observed)
	}
	return observed, nil
}

func (s *InvitationService) persistTransition(ctx context.Context, repos *database.Repositories, from model.InvitationStatus, to model.TeamInvitation) error {
	moved, err := repos.Invitations.Transition(ctx, to.ID, from, to.Status)
	if err != nil {
		return err
	}
	if !moved {
		return apperrors.Newf(apperrors.CodeInvalidTransition,
			"invitation %s is no longer %s", to.ID, from)
	}
	return nil
}
