package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/laminotes/laminotes/internal/config"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/logging"
	"github.com/laminotes/laminotes/internal/metrics"
	"github.com/laminotes/laminotes/internal/usecase"
)

var globals struct {
	actor  string
	dbPath string
	format string
}

var rootCmd = &cobra.Command{
	Use:          "laminotes",
	Short:        "laminotes - collaborative markdown documents",
	Long:         "laminotes tracks per-user edits of shared markdown documents, team membership and invitations.",
	Version:      version,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		switch globals.format {
		case formatTable, formatJSON:
			return nil
		default:
			return fmt.Errorf("invalid format: %s (valid values: table, json)", globals.format)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globals.actor, "as", os.Getenv("LAMINOTES_USER"), "Acting user id (defaults to $LAMINOTES_USER)")
	rootCmd.PersistentFlags().StringVar(&globals.dbPath, "db", "", "Database path (defaults to the data directory)")
	rootCmd.PersistentFlags().StringVar(&globals.format, "format", formatTable, "Output format: table or json")

	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newTeamCmd())
	rootCmd.AddCommand(newDocCmd())
	rootCmd.AddCommand(newInviteCmd())
	rootCmd.AddCommand(newFileCmd())
	rootCmd.AddCommand(newMCPCmd())
}

// app is the per-invocation wiring of settings, database and use cases.
type app struct {
	dbCtx    *database.Context
	env      *usecase.Env
	settings config.Settings
}

func openApp(collector *metrics.Collector) (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	dbCtx, err := database.CreateDatabase(globals.dbPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New("laminotes", logging.ParseLevel(settings.LogLevel))
	opts := []usecase.Option{usecase.WithLogger(logger)}
	if collector != nil {
		opts = append(opts, usecase.WithMetrics(collector))
	}

	return &app{
		dbCtx:    dbCtx,
		env:      usecase.NewEnv(dbCtx, settings, opts...),
		settings: settings,
	}, nil
}

func (a *app) Close() {
	_ = database.CloseDatabase(a.dbCtx)
}

func requireActor() (string, error) {
	if globals.actor == "" {
		return "", fmt.Errorf("acting user required: pass --as <userId> or set LAMINOTES_USER")
	}
	return globals.actor, nil
}
