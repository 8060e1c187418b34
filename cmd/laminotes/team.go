package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/laminotes/laminotes/internal/codec"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/usecase"
)

func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage teams and their members",
	}
	cmd.AddCommand(
		newTeamCreateCmd(),
		newTeamShowCmd(),
		newTeamListCmd(),
		newTeamMembersCmd(),
		newTeamRemoveMemberCmd(),
		newTeamSetRoleCmd(),
	)
	return cmd
}

func newTeamCreateCmd() *cobra.Command {
	var localDir string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a team owned by the acting user",
		Long: `Create a team owned by the acting user.

When --local-dir is omitted and the working directory is inside a git
repository, the repository root becomes the team's local directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := requireActor()
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}

			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			team, err := usecase.NewTeam(a.env).Create(context.Background(), usecase.CreateTeamInput{
				ActorID:        actor,
				Name:           args[0],
				LocalDirectory: localDir,
				WorkingDir:     wd,
			})
			if err != nil {
				return err
			}
			return renderTeams(cmd, []model.Team{team})
		},
	}

	cmd.Flags().StringVar(&localDir, "local-dir", "", "Local directory the team's documents live in")
	return cmd
}

func newTeamShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <teamId>",
		Short: "Show a team",
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

			team, err := usecase.NewTeam(a.env).Show(context.Background(), actor, args[0])
			if err != nil {
				return err
			}
			return renderTeams(cmd, []model.Team{team})
		},
	}
}

func newTeamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the teams the acting user belongs to",
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

			teams, err := usecase.NewTeam(a.env).List(context.Background(), actor)
			if err != nil {
				return err
			}
			return renderTeams(cmd, teams)
		},
	}
}

func newTeamMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <teamId>",
		Short: "List the members of a team",
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

			members, err := usecase.NewTeam(a.env).Members(context.Background(), actor, args[0])
			if err != nil {
				return err
			}
			return renderMembers(cmd, members)
		},
	}
}

func newTeamRemoveMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <teamId> <userId>",
		Short: "Remove a member from a team",
		Long:  "Remove a member from a team. Owners may remove anyone but the last owner; any member may remove themselves.",
		Args:  cobra.ExactArgs(2),
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

			if err := usecase.NewTeam(a.env).RemoveMember(context.Background(), actor, args[0], args[1]); err != nil {
				return err
			}
			if globals.format == formatJSON {
				return outputJSON(cmd, map[string]string{"teamId": args[0], "removed": args[1]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}

func newTeamSetRoleCmd() *cobra.Command {
	var expires string

	cmd := &cobra.Command{
		Use:   "set-role <teamId> <userId> <role>",
		Short: "Change a member's role or access expiry",
		Long: `Change a member's role (viewer, contributor or owner).

--expires takes an RFC 3339 timestamp after which the member loses access.
Without it the member keeps access indefinitely.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := requireActor()
			if err != nil {
				return err
			}
			role, err := model.ParseTeamRole(args[2])
			if err != nil {
				return err
			}

			accessExpires := model.None[time.Time]()
			if expires != "" {
				t, err := codec.ParseTime(expires)
				if err != nil {
					return fmt.Errorf("invalid --expires: %w", err)
				}
				accessExpires = model.Some(t)
			}

			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			member, err := usecase.NewTeam(a.env).SetRole(context.Background(), usecase.SetRoleInput{
				ActorID:       actor,
				TeamID:        args[0],
				UserID:        args[1],
				Role:          role,
				AccessExpires: accessExpires,
			})
			if err != nil {
				return err
			}
			return renderMembers(cmd, []model.TeamMember{member})
		},
	}

	cmd.Flags().StringVar(&expires, "expires", "", "Access expiry timestamp (RFC 3339)")
	return cmd
}

type teamJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OwnerID        string `json:"ownerId"`
	CreatedAt      string `json:"createdAt"`
	LocalDirectory string `json:"localDirectory,omitempty"`
}

func renderTeams(cmd *cobra.Command, teams []model.Team) error {
	items := make([]teamJSON, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamJSON{
			ID:             t.ID,
			Name:           t.Name,
			OwnerID:        t.OwnerID,
			CreatedAt:      codec.FormatTime(t.CreatedAt),
			LocalDirectory: t.LocalDirectory.OrElse(""),
		})
	}
	if globals.format == formatJSON {
		return outputJSON(cmd, items)
	}

	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, table.Row{item.ID, item.Name, item.OwnerID, item.LocalDirectory})
	}
	outputTable(cmd, table.Row{"Team", "Name", "Owner", "Local directory"}, rows, 3)
	return nil
}

type memberJSON struct {
	UserID        string `json:"userId"`
	TeamID        string `json:"teamId"`
	Role          string `json:"role"`
	AccessExpires string `json:"accessExpires,omitempty"`
}

func renderMembers(cmd *cobra.Command, members []model.TeamMember) error {
	items := make([]memberJSON, 0, len(members))
	for _, m := range members {
		items = append(items, memberJSON{
			UserID:        m.UserID,
			TeamID:        m.TeamID,
			Role:          m.Role.String(),
			AccessExpires: formatOptionalTime(m.AccessExpires),
		})
	}
	if globals.format == formatJSON {
		return outputJSON(cmd, items)
	}

	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		expires := item.AccessExpires
		if expires == "" {
			expires = "-"
		}
		rows = append(rows, table.Row{item.UserID, item.Role, expires})
	}
	outputTable(cmd, table.Row{"User", "Role", "Access expires"}, rows, 0)
	return nil
}
