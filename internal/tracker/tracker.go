// Package tracker owns the change history of a markdown document: it appends
// validated change sets, materializes the merged content and reports
// overlapping edits. Every operation is a pure transformation of
// model.MarkdownMetadata.
package tracker

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/model"
)

// DefaultPalette is the fixed set of author colors.
var DefaultPalette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#42d4f4", "#f032e6", "#9a6324",
	"#469990", "#800000", "#808000", "#000075",
}

// Tracker applies the change-history rules with a configurable conflict
// policy and color palette. The zero value is not usable; call New.
type Tracker struct {
	policy  ConflictPolicy
	palette []string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPolicy replaces the default last-writer-wins policy.
func WithPolicy(p ConflictPolicy) Option {
	return func(t *Tracker) {
		if p != nil {
			t.policy = p
		}
	}
}

// WithPalette replaces the author color palette.
func WithPalette(palette []string) Option {
	return func(t *Tracker) {
		if len(palette) > 0 {
			t.palette = append([]string(nil), palette...)
		}
	}
}

// New constructs a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		policy:  LastWriterWins{},
		palette: DefaultPalette,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDocument returns the metadata of a document without changes.
func (t *Tracker) NewDocument(documentID string, createdAt time.Time) model.MarkdownMetadata {
	return model.NewMarkdownMetadata(documentID, nil, nil, model.Timestamp(createdAt))
}

// ColorFor returns the palette color of userID. The same user always gets the
// same color.
func (t *Tracker) ColorFor(userID string) string {
	return t.palette[xxhash.Sum64String(userID)%uint64(len(t.palette))]
}

// Append validates change against meta and returns the extended history.
func (t *Tracker) Append(meta model.MarkdownMetadata, change model.DocumentChange) (model.MarkdownMetadata, error) {
	if err := validateChange(meta, change); err != nil {
		return model.MarkdownMetadata{}, err
	}
	color, ok := meta.Color(change.UserID)
	if !ok {
		color = t.ColorFor(change.UserID)
	}
	return meta.Extend(change, color), nil
}

// AppendIfCurrent appends only when expected still equals meta.LastModified.
// A writer presents the token it last read; if the document has moved on the
// write fails with StaleWrite and must be retried on fresh state.
func (t *Tracker) AppendIfCurrent(meta model.MarkdownMetadata, expected time.Time, change model.DocumentChange) (model.MarkdownMetadata, error) {
	if !meta.LastModified().Equal(expected) {
		return model.MarkdownMetadata{}, apperrors.WithMetadata(apperrors.CodeStaleWrite,
			fmt.Sprintf("document %s was modified at %s, write was based on %s",
				meta.DocumentID(), meta.LastModified().Format(time.RFC3339Nano), expected.Format(time.RFC3339Nano)),
			map[string]string{"documentId": meta.DocumentID()})
	}
	return t.Append(meta, change)
}

// Materialize replays the history and returns the merged content.
//
// Conflict policy: changes are applied in the policy's order (by default
// timestamp order, ties by insertion order), so where spans of different
// changes overlap the last applied change wins. Within one change the
// sections are spliced from the highest StartIndex down, so every index
// refers to the text the change was cut from. Spans reaching past the end of
// the buffer are clamped to it.
func (t *Tracker) Materialize(meta model.MarkdownMetadata) string {
	changes := meta.Changes()
	var buf []rune
	for _, pos := range t.policy.Order(changes) {
		buf = applyChange(buf, changes[pos])
	}
	return string(buf)
}

// History returns the change at position index in application order.
func (t *Tracker) History(meta model.MarkdownMetadata, index int) (model.DocumentChange, error) {
	changes := meta.Changes()
	if index < 0 || index >= len(changes) {
		return model.DocumentChange{}, apperrors.WithMetadata(apperrors.CodeIndexOutOfRange,
			fmt.Sprintf("history index %d out of range [0,%d)", index, len(changes)),
			map[string]string{"index": strconv.Itoa(index)})
	}
	return changes[t.policy.Order(changes)[index]], nil
}

// Contributors lists the distinct authors in order of their first change.
func (t *Tracker) Contributors(meta model.MarkdownMetadata) []string {
	seen := make(map[string]bool)
	var users []string
	for _, c := range meta.Changes() {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			users = append(users, c.UserID)
		}
	}
	return users
}

func validateChange(meta model.MarkdownMetadata, change model.DocumentChange) error {
	if change.UserID == "" {
		return invalidChange("change has no userId")
	}
	if change.Timestamp.Before(meta.LastModified()) {
		return invalidChange(fmt.Sprintf("change timestamp %s is earlier than lastModified %s",
			change.Timestamp.Format(time.RFC3339Nano), meta.LastModified().Format(time.RFC3339Nano)))
	}
	for i, s := range change.Sections {
		if s.StartIndex < 0 || s.EndIndex < 0 {
			return invalidChange(fmt.Sprintf("section %d has a negative index", i))
		}
		if s.StartIndex > s.EndIndex {
			return invalidChange(fmt.Sprintf("section %d starts after it ends (%d > %d)", i, s.StartIndex, s.EndIndex))
		}
		if i == 0 {
			continue
		}
		prev := change.Sections[i-1]
		if s.StartIndex < prev.StartIndex {
			return invalidChange(fmt.Sprintf("section %d is not ordered by startIndex", i))
		}
		if s.Overlaps(prev) {
			return invalidChange(fmt.Sprintf("section %d overlaps section %d", i, i-1))
		}
	}
	return nil
}

func invalidChange(msg string) error {
	return apperrors.New(apperrors.CodeInvalidChange, "invalid change: "+msg)
}

func applyChange(buf []rune, change model.DocumentChange) []rune {
	sections := append([]model.TextSection(nil), change.Sections...)
	sort.SliceStable(sections, func(a, b int) bool {
		return sections[a].StartIndex > sections[b].StartIndex
	})
	for _, s := range sections {
		start := min(s.StartIndex, len(buf))
		end := min(s.EndIndex, len(buf))
		content := []rune(s.Content)
		next := make([]rune, 0, len(buf)-(end-start)+len(content))
		next = append(next, buf[:start]...)
		next = append(next, content...)
		next = append(next, buf[end:]...)
		buf = next
	}
	return buf
}
