package main

import (
	"context"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/laminotes/laminotes/internal/codec"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/usecase"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <userId> <email>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := usecase.NewUser(a.env).Add(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			return renderUsers(cmd, []model.User{user})
		},
	}
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := usecase.NewUser(a.env).List(context.Background())
			if err != nil {
				return err
			}
			return renderUsers(cmd, users)
		},
	}
}

type userJSON struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func renderUsers(cmd *cobra.Command, users []model.User) error {
	items := make([]userJSON, 0, len(users))
	for _, u := range users {
		items = append(items, userJSON{
			UserID:    u.UserID,
			Email:     u.Email,
			CreatedAt: formatOptionalTime(u.CreatedAt),
		})
	}
	if globals.format == formatJSON {
		return outputJSON(cmd, items)
	}

	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, table.Row{item.UserID, item.Email, item.CreatedAt})
	}
	outputTable(cmd, table.Row{"User", "Email", "Created"}, rows, 1)
	return nil
}

func formatOptionalTime(value model.Optional[time.Time]) string {
	t, ok := value.Get()
	if !ok {
		return ""
	}
	return codec.FormatTime(t)
}
