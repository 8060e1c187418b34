package main

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/laminotes/laminotes/internal/codec"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/usecase"
)

func newInviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite users into teams and answer invitations",
	}
	cmd.AddCommand(
		newInviteCreateCmd(),
		newInviteAnswerCmd("accept", "Accept an invitation addressed to the acting user"),
		newInviteAnswerCmd("decline", "Decline an invitation addressed to the acting user"),
		newInviteListCmd(),
		newInviteInboxCmd(),
	)
	return cmd
}

func newInviteCreateCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "create <teamId> <email>",
		Short: "Invite an email address into a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := requireActor()
			if err != nil {
				return err
			}
			parsed, err := model.ParseTeamRole(role)
			if err != nil {
				return err
			}
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			inv, err := usecase.NewInvitation(a.env).Create(context.Background(), actor, args[0], args[1], parsed)
			if err != nil {
				return err
			}
			return renderInvitations(cmd, []model.TeamInvitation{inv})
		},
	}

	cmd.Flags().StringVar(&role, "role", "viewer", "Role granted on acceptance: viewer, contributor or owner")
	return cmd
}

func newInviteAnswerCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <invitationId>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := requireActor()
			if err != nil {
				return err
			}
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			invitations := usecase.NewInvitation(a.env)
			ctx := context.Background()

			var inv model.TeamInvitation
			if use == "accept" {
				inv, _, err = invitations.Accept(ctx, actor, args[0])
			} else {
				inv, err = invitations.Decline(ctx, actor, args[0])
			}
			if err != nil {
				return err
			}
			return renderInvitations(cmd, []model.TeamInvitation{inv})
		},
	}
}

func newInviteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <teamId>",
		Short: "List the invitations of a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := requireActor()
			if err != nil {
				return err
			}
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			invs, err := usecase.NewInvitation(a.env).ListForTeam(context.Background(), actor, args[0])
			if err != nil {
				return err
			}
			return renderInvitations(cmd, invs)
		},
	}
}

func newInviteInboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List the invitations addressed to the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, err := requireActor()
			if err != nil {
				return err
			}
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			invs, err := usecase.NewInvitation(a.env).Inbox(context.Background(), actor)
			if err != nil {
				return err
			}
			return renderInvitations(cmd, invs)
		},
	}
}

type invitationJSON struct {
	ID           string `json:"id"`
	TeamID       string `json:"teamId"`
	InvitedEmail string `json:"invitedEmail"`
	InvitedBy    string `json:"invitedBy"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	ExpiresAt    string `json:"expiresAt"`
}

func renderInvitations(cmd *cobra.Command, invs []model.TeamInvitation) error {
	items := make([]invitationJSON, 0, len(invs))
	for _, inv := range invs {
		items = append(items, invitationJSON{
			ID:           inv.ID,
			TeamID:       inv.TeamID,
			InvitedEmail: inv.InvitedEmail,
			InvitedBy:    inv.InvitedBy,
			Role:         inv.Role.String(),
			Status:       string(inv.Status),
			CreatedAt:    codec.FormatTime(inv.CreatedAt),
			ExpiresAt:    codec.FormatTime(inv.ExpiresAt),
		})
	}
	if globals.format == formatJSON {
		return outputJSON(cmd, items)
	}

	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, table.Row{it.ID, it.TeamID, it.InvitedEmail, it.Role, it.Status, it.ExpiresAt})
	}
	outputTable(cmd, table.Row{"Invitation", "Team", "Email", "Role", "Status", "Expires"}, rows, 2)
	return nil
}
