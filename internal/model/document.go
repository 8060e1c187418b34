// Package model holds the immutable value types shared by the collaboration
// core: document history, teams, memberships, invitations and file stamps.
package model

import (
	"sort"
	"time"
)

// TextSection is a half-open span [StartIndex, EndIndex) of document text,
// counted in runes, together with the content written into it.
type TextSection struct {
	StartIndex int
	EndIndex   int
	Content    string
}

// Overlaps reports whether two spans share an index. Spans starting at the
// same position always overlap, which covers two insertions at one point.
func (s TextSection) Overlaps(other TextSection) bool {
	if s.StartIndex == other.StartIndex {
		return true
	}
	return s.StartIndex < other.EndIndex && other.StartIndex < s.EndIndex
}

// Intersection returns the shared span of two overlapping sections.
func (s TextSection) Intersection(other TextSection) (start, end int) {
	return max(s.StartIndex, other.StartIndex), min(s.EndIndex, other.EndIndex)
}

// DocumentChange is one atomic save by one user: every section that user
// edited, ordered by StartIndex.
type DocumentChange struct {
	UserID    string
	Username  string
	Timestamp time.Time
	Sections  []TextSection
}

// Clone returns a deep copy of the change.
func (c DocumentChange) Clone() DocumentChange {
	c.Sections = cloneSections(c.Sections)
	return c
}

// MarkdownMetadata is the change history and authorship coloring of one
// document. It exclusively owns its changes and colors: every accessor hands
// out copies and every update returns a new value.
type MarkdownMetadata struct {
	documentID   string
	changes      []DocumentChange
	userColors   map[string]string
	lastModified time.Time
}

// NewMarkdownMetadata builds a metadata value from decoded or stored parts.
// The inputs are copied.
func NewMarkdownMetadata(documentID string, changes []DocumentChange, userColors map[string]string, lastModified time.Time) MarkdownMetadata {
	m := MarkdownMetadata{
		documentID:   documentID,
		changes:      make([]DocumentChange, 0, len(changes)),
		userColors:   make(map[string]string, len(userColors)),
		lastModified: lastModified,
	}
	for _, c := range changes {
		m.changes = append(m.changes, c.Clone())
	}
	for user, color := range userColors {
		m.userColors[user] = color
	}
	return m
}

// DocumentID returns the document identifier.
func (m MarkdownMetadata) DocumentID() string { return m.documentID }

// LastModified is the timestamp of the last change, or the creation time of
// a document without changes. It doubles as the optimistic version token.
func (m MarkdownMetadata) LastModified() time.Time { return m.lastModified }

// Len returns the number of recorded changes.
func (m MarkdownMetadata) Len() int { return len(m.changes) }

// Changes returns a copy of the change history in insertion order.
func (m MarkdownMetadata) Changes() []DocumentChange {
	out := make([]DocumentChange, 0, len(m.changes))
	for _, c := range m.changes {
		out = append(out, c.Clone())
	}
	return out
}

// Change returns a copy of the change at insertion position i.
func (m MarkdownMetadata) Change(i int) (DocumentChange, bool) {
	if i < 0 || i >= len(m.changes) {
		return DocumentChange{}, false
	}
	return m.changes[i].Clone(), true
}

// UserColors returns a copy of the userId -> color map.
func (m MarkdownMetadata) UserColors() map[string]string {
	out := make(map[string]string, len(m.userColors))
	for user, color := range m.userColors {
		out[user] = color
	}
	return out
}

// Color returns the color assigned to userID.
func (m MarkdownMetadata) Color(userID string) (string, bool) {
	color, ok := m.userColors[userID]
	return color, ok
}

// ColoredUsers returns the user ids that have a color, sorted.
func (m MarkdownMetadata) ColoredUsers() []string {
	users := make([]string, 0, len(m.userColors))
	for user := range m.userColors {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// Extend returns a new value with change appended, lastModified moved to the
// change timestamp, and color recorded for the author when none is set yet.
// It performs no validation; the tracker does.
func (m MarkdownMetadata) Extend(change DocumentChange, color string) MarkdownMetadata {
	next := NewMarkdownMetadata(m.documentID, m.changes, m.userColors, change.Timestamp)
	next.changes = append(next.changes, change.Clone())
	if _, ok := next.userColors[change.UserID]; !ok {
		next.userColors[change.UserID] = color
	}
	return next
}

func cloneSections(sections []TextSection) []TextSection {
	out := make([]TextSection, len(sections))
	copy(out, sections)
	return out
}
