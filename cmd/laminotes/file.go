package main

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/laminotes/laminotes/internal/codec"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/usecase"
)

func newFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Inspect stored document snapshots",
	}
	cmd.AddCommand(newFileListCmd())
	return cmd
}

func newFileListCmd() *cobra.Command {
	var teamID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the snapshot files visible to the acting user",
		Long:  "List snapshot files of one team, or of every team the acting user belongs to when --team is omitted.",
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

			files, err := usecase.NewFile(a.env).List(context.Background(), actor, teamID)
			if err != nil {
				return err
			}
			return renderFiles(cmd, files)
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "Only list files of this team")
	return cmd
}

type fileJSON struct {
	FileID       string `json:"fileId"`
	FileName     string `json:"fileName"`
	TeamID       string `json:"teamId,omitempty"`
	LastModified string `json:"lastModified"`
	Hash         string `json:"hash"`
	Path         string `json:"path"`
}

func renderFiles(cmd *cobra.Command, files []database.FileRecord) error {
	items := make([]fileJSON, 0, len(files))
	for _, f := range files {
		items = append(items, fileJSON{
			FileID:       f.Metadata.FileID,
			FileName:     f.Metadata.FileName,
			TeamID:       f.Metadata.TeamID.OrElse(""),
			LastModified: codec.FormatTime(f.Metadata.LastModified),
			Hash:         f.Hash,
			Path:         f.Path,
		})
	}
	if globals.format == formatJSON {
		return outputJSON(cmd, items)
	}

	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		hash := it.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		rows = append(rows, table.Row{it.FileName, it.TeamID, it.LastModified, hash, it.Path})
	}
	outputTable(cmd, table.Row{"File", "Team", "Last modified", "Hash", "Path"}, rows, 4)
	return nil
}
