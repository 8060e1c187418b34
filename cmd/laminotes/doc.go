package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/laminotes/laminotes/internal/codec"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/tracker"
	"github.com/laminotes/laminotes/internal/usecase"
)

func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Create, edit and inspect documents",
	}
	cmd.AddCommand(
		newDocCreateCmd(),
		newDocEditCmd(),
		newDocShowCmd(),
		newDocHistoryCmd(),
		newDocConflictsCmd(),
		newDocExportCmd(),
		newDocListCmd(),
	)
	return cmd
}

func newDocCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <teamId> <documentId>",
		Short: "Create an empty document in a team",
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

			view, err := usecase.NewDocument(a.env).Create(context.Background(), actor, args[0], args[1])
			if err != nil {
				return err
			}
			return renderDocument(cmd, view)
		},
	}
}

func newDocEditCmd() *cobra.Command {
	var (
		file   string
		expect string
	)

	cmd := &cobra.Command{
		Use:   "edit <documentId>",
		Short: "Append a change set to a document",
		Long: `Append a change set to a document.

The change is read as JSON from --file, or from stdin when --file is "-" or
omitted:

  {"userId": "olga", "sections": [{"startIndex": 0, "endIndex": 0, "content": "# Notes"}]}

Pass --expect with the version token printed by "doc show" to refuse the edit
when someone else has written in between.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := requireActor()
			if err != nil {
				return err
			}

			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			expected := model.None[time.Time]()
			if expect != "" {
				t, err := codec.ParseTime(expect)
				if err != nil {
					return fmt.Errorf("invalid --expect: %w", err)
				}
				expected = model.Some(t)
			}

			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := usecase.NewDocument(a.env).EditJSON(context.Background(), actor, args[0], raw, expected)
			if err != nil {
				return err
			}
			return renderDocument(cmd, view)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Change JSON file (- for stdin)")
	cmd.Flags().StringVar(&expect, "expect", "", "Version token the document must still carry")
	return cmd
}

func newDocShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <documentId>",
		Short: "Print the merged content of a document",
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

			view, err := usecase.NewDocument(a.env).Show(context.Background(), actor, args[0])
			if err != nil {
				return err
			}
			return renderDocument(cmd, view)
		},
	}
}

func newDocHistoryCmd() *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "history <documentId>",
		Short: "List the change history of a document",
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

			documents := usecase.NewDocument(a.env)
			ctx := context.Background()

			var changes []model.DocumentChange
			offset := 0
			if cmd.Flags().Changed("index") {
				change, err := documents.History(ctx, actor, args[0], index)
				if err != nil {
					return err
				}
				changes = []model.DocumentChange{change}
				offset = index
			} else {
				changes, err = documents.Changes(ctx, actor, args[0])
				if err != nil {
					return err
				}
			}
			return renderChanges(cmd, changes, offset)
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "Show only the change at this position")
	return cmd
}

func newDocConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts <documentId>",
		Short: "List overlapping edits and how they were resolved",
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

			conflicts, err := usecase.NewDocument(a.env).Conflicts(context.Background(), actor, args[0])
			if err != nil {
				return err
			}
			return renderConflicts(cmd, conflicts)
		},
	}
}

func newDocExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <documentId>",
		Short: "Print the document metadata in its wire format",
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

			raw, err := usecase.NewDocument(a.env).Export(context.Background(), actor, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(raw); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out)
			return err
		},
	}
}

func newDocListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <teamId>",
		Short: "List the documents of a team",
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

			records, err := usecase.NewDocument(a.env).List(context.Background(), actor, args[0])
			if err != nil {
				return err
			}
			return renderDocumentList(cmd, records)
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}

type documentJSON struct {
	DocumentID   string   `json:"documentId"`
	TeamID       string   `json:"teamId"`
	LastModified string   `json:"lastModified"`
	Changes      int      `json:"changes"`
	Contributors []string `json:"contributors,omitempty"`
	Content      string   `json:"content"`
	Path         string   `json:"path,omitempty"`
}

// renderDocument prints the merged content as-is in table mode, with the
// version token on stderr so the content can be piped.
func renderDocument(cmd *cobra.Command, view usecase.DocumentView) error {
	meta := view.Record.Metadata
	if globals.format == formatJSON {
		return outputJSON(cmd, documentJSON{
			DocumentID:   meta.DocumentID(),
			TeamID:       view.Record.TeamID,
			LastModified: codec.FormatTime(meta.LastModified()),
			Changes:      meta.Len(),
			Contributors: view.Contributors,
			Content:      view.Content,
			Path:         view.File.Path,
		})
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s  version %s  (%d changes)\n",
		meta.DocumentID(), codec.FormatTime(meta.LastModified()), meta.Len())
	if len(view.Contributors) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "contributors: %s\n", strings.Join(view.Contributors, ", "))
	}
	out := cmd.OutOrStdout()
	if _, err := io.WriteString(out, view.Content); err != nil {
		return err
	}
	if view.Content != "" && view.Content[len(view.Content)-1] != '\n' {
		_, err := fmt.Fprintln(out)
		return err
	}
	return nil
}

type sectionJSON struct {
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Content    string `json:"content"`
}

type changeJSON struct {
	Index     int           `json:"index"`
	UserID    string        `json:"userId"`
	Username  string        `json:"username,omitempty"`
	Timestamp string        `json:"timestamp"`
	Sections  []sectionJSON `json:"sections"`
}

func renderChanges(cmd *cobra.Command, changes []model.DocumentChange, offset int) error {
	if globals.format == formatJSON {
		items := make([]changeJSON, 0, len(changes))
		for i, c := range changes {
			sections := make([]sectionJSON, 0, len(c.Sections))
			for _, s := range c.Sections {
				sections = append(sections, sectionJSON{StartIndex: s.StartIndex, EndIndex: s.EndIndex, Content: s.Content})
			}
			items = append(items, changeJSON{
				Index:     offset + i,
				UserID:    c.UserID,
				Username:  c.Username,
				Timestamp: codec.FormatTime(c.Timestamp),
				Sections:  sections,
			})
		}
		return outputJSON(cmd, items)
	}

	rows := make([]table.Row, 0, len(changes))
	for i, c := range changes {
		for j, s := range c.Sections {
			index := ""
			who := ""
			when := ""
			if j == 0 {
				index = strconv.Itoa(offset + i)
				who = c.UserID
				when = codec.FormatTime(c.Timestamp)
			}
			span := fmt.Sprintf("%d-%d", s.StartIndex, s.EndIndex)
			rows = append(rows, table.Row{index, who, when, span, s.Content})
		}
	}
	outputTable(cmd, table.Row{"#", "User", "Timestamp", "Span", "Content"}, rows, 4)
	return nil
}

type conflictJSON struct {
	Winner     int    `json:"winner"`
	Loser      int    `json:"loser"`
	WinnerUser string `json:"winnerUser"`
	LoserUser  string `json:"loserUser"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Resolution string `json:"resolution"`
}

func renderConflicts(cmd *cobra.Command, conflicts []tracker.Conflict) error {
	if globals.format == formatJSON {
		items := make([]conflictJSON, 0, len(conflicts))
		for _, c := range conflicts {
			items = append(items, conflictJSON(c))
		}
		return outputJSON(cmd, items)
	}
	if len(conflicts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conflicts")
		return nil
	}

	rows := make([]table.Row, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d-%d", c.Start, c.End),
			fmt.Sprintf("%s (#%d)", c.WinnerUser, c.Winner),
			fmt.Sprintf("%s (#%d)", c.LoserUser, c.Loser),
			c.Resolution,
		})
	}
	outputTable(cmd, table.Row{"Span", "Winner", "Overwritten", "Resolution"}, rows, -1)
	return nil
}

func renderDocumentList(cmd *cobra.Command, records []database.DocumentRecord) error {
	type item struct {
		DocumentID   string `json:"documentId"`
		LastModified string `json:"lastModified"`
		Changes      int    `json:"changes"`
		Users        int    `json:"users"`
	}
	items := make([]item, 0, len(records))
	for _, r := range records {
		items = append(items, item{
			DocumentID:   r.Metadata.DocumentID(),
			LastModified: codec.FormatTime(r.Metadata.LastModified()),
			Changes:      r.Metadata.Len(),
			Users:        len(r.Metadata.ColoredUsers()),
		})
	}
	if globals.format == formatJSON {
		return outputJSON(cmd, items)
	}

	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, table.Row{it.DocumentID, it.LastModified, it.Changes, it.Users})
	}
	outputTable(cmd, table.Row{"Document", "Last modified", "Changes", "Users"}, rows, 0)
	return nil
}
