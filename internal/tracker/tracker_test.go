package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/model"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func change(user string, at time.Time, sections ...model.TextSection) model.DocumentChange {
	return model.DocumentChange{UserID: user, Username: user, Timestamp: at, Sections: sections}
}

func section(start, end int, content string) model.TextSection {
	return model.TextSection{StartIndex: start, EndIndex: end, Content: content}
}

func mustAppend(t *testing.T, tr *Tracker, meta model.MarkdownMetadata, changes ...model.DocumentChange) model.MarkdownMetadata {
	t.Helper()
	for _, c := range changes {
		var err error
		meta, err = tr.Append(meta, c)
		require.NoError(t, err)
	}
	return meta
}

func TestLaterTimestampWins(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u1", t0, section(0, 5, "hello")),
		change("u2", t0.Add(time.Second), section(0, 5, "HELLO")),
	)

	assert.Equal(t, "HELLO", tr.Materialize(meta))
}

func TestMaterializeIsDeterministic(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u1", t0, section(0, 0, "# Title\n")),
		change("u2", t0.Add(time.Minute), section(8, 8, "body")),
		change("u1", t0.Add(2*time.Minute), section(2, 7, "Heading")),
	)

	first := tr.Materialize(meta)
	assert.Equal(t, "# Heading\nbody", first)
	assert.Equal(t, first, tr.Materialize(meta))
}

func TestMaterializeSplicesSectionsAgainstBase(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u1", t0, section(0, 0, "abcdef")),
		// Both spans refer to "abcdef"; the first replacement grows the text.
		change("u2", t0.Add(time.Second), section(0, 1, "AAA"), section(4, 5, "E")),
	)

	assert.Equal(t, "AAAbcdEf", tr.Materialize(meta))
}

func TestMaterializeCountsRunes(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u1", t0, section(0, 0, "héllo wörld")),
		change("u1", t0.Add(time.Second), section(6, 11, "welt")),
	)

	assert.Equal(t, "héllo welt", tr.Materialize(meta))
}

func TestMaterializeOrdersOutOfOrderHistory(t *testing.T) {
	tr := New()
	// Decoded histories need not be sorted; replay still follows timestamps.
	meta := model.NewMarkdownMetadata("doc", []model.DocumentChange{
		change("u2", t0.Add(time.Second), section(0, 5, "later")),
		change("u1", t0, section(0, 5, "early")),
	}, map[string]string{"u1": "#1", "u2": "#2"}, t0.Add(time.Second))

	assert.Equal(t, "later", tr.Materialize(meta))
}

func TestEqualTimestampsKeepInsertionOrder(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u1", t0, section(0, 0, "first")),
		change("u2", t0, section(0, 5, "second")),
	)

	assert.Equal(t, "second", tr.Materialize(meta))
}

func TestAppendRejectsInvalidChanges(t *testing.T) {
	tr := New()
	base := mustAppend(t, tr, tr.NewDocument("doc", t0), change("u1", t0.Add(time.Hour), section(0, 0, "x")))

	tests := []struct {
		name   string
		change model.DocumentChange
	}{
		{"earlier than lastModified", change("u1", t0, section(0, 1, "y"))},
		{"start after end", change("u1", t0.Add(2*time.Hour), section(3, 1, ""))},
		{"negative index", change("u1", t0.Add(2*time.Hour), section(-1, 1, "y"))},
		{"unordered sections", change("u1", t0.Add(2*time.Hour), section(5, 6, "a"), section(0, 1, "b"))},
		{"overlapping sections", change("u1", t0.Add(2*time.Hour), section(0, 4, "abcd"), section(2, 6, "cdef"))},
		{"two insertions at one point", change("u1", t0.Add(2*time.Hour), section(1, 1, "a"), section(1, 1, "b"))},
		{"missing user", change("", t0.Add(2*time.Hour), section(0, 0, "a"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Append(base, tt.change)
			assert.ErrorIs(t, err, apperrors.ErrInvalidChange)
			assert.Equal(t, 1, base.Len(), "original history must not change")
		})
	}
}

func TestAppendEarlierTimestampAlwaysFails(t *testing.T) {
	tr := New()
	last := t0.Add(24 * time.Hour)
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0), change("u1", last, section(0, 0, "x")))

	for offset := time.Millisecond; offset <= 48*time.Hour; offset *= 3 {
		_, err := tr.Append(meta, change("u2", last.Add(-offset), section(0, 0, "y")))
		assert.ErrorIs(t, err, apperrors.ErrInvalidChange, "offset %s", offset)
	}
}

func TestAppendIsMonotone(t *testing.T) {
	tr := New()
	meta := tr.NewDocument("doc", t0)
	for i := 0; i < 5; i++ {
		before := meta.LastModified()
		next, err := tr.Append(meta, change("u1", t0.Add(time.Duration(i)*time.Minute), section(0, 0, "x")))
		require.NoError(t, err)
		assert.False(t, next.LastModified().Before(before))
		meta = next
	}
	assert.Equal(t, t0.Add(4*time.Minute), meta.LastModified())
}

func TestAppendAssignsStableColors(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("alice", t0, section(0, 0, "a")),
		change("bob", t0.Add(time.Second), section(0, 0, "b")),
		change("alice", t0.Add(2*time.Second), section(0, 0, "c")),
	)

	alice, ok := meta.Color("alice")
	require.True(t, ok)
	bob, ok := meta.Color("bob")
	require.True(t, ok)
	assert.Equal(t, tr.ColorFor("alice"), alice)
	assert.Equal(t, tr.ColorFor("bob"), bob)
	assert.Contains(t, DefaultPalette, alice)
	assert.Equal(t, alice, New().ColorFor("alice"), "color is derived from the user id only")

	for _, c := range meta.Changes() {
		_, ok := meta.Color(c.UserID)
		assert.True(t, ok, "every author has a color")
	}
}

func TestAppendKeepsExistingColor(t *testing.T) {
	tr := New(WithPalette([]string{"#abcdef"}))
	meta := model.NewMarkdownMetadata("doc", nil, map[string]string{"alice": "#123456"}, t0)

	meta = mustAppend(t, tr, meta, change("alice", t0, section(0, 0, "a")))

	color, _ := meta.Color("alice")
	assert.Equal(t, "#123456", color)
}

func TestAppendIfCurrent(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0), change("u1", t0.Add(time.Minute), section(0, 0, "a")))

	_, err := tr.AppendIfCurrent(meta, t0, change("u2", t0.Add(2*time.Minute), section(0, 0, "b")))
	assert.ErrorIs(t, err, apperrors.ErrStaleWrite)

	next, err := tr.AppendIfCurrent(meta, meta.LastModified(), change("u2", t0.Add(2*time.Minute), section(0, 0, "b")))
	require.NoError(t, err)
	assert.Equal(t, 2, next.Len())
}

func TestHistory(t *testing.T) {
	tr := New()
	meta := model.NewMarkdownMetadata("doc", []model.DocumentChange{
		change("u2", t0.Add(time.Second), section(0, 0, "b")),
		change("u1", t0, section(0, 0, "a")),
	}, map[string]string{"u1": "#1", "u2": "#2"}, t0.Add(time.Second))

	first, err := tr.History(meta, 0)
	require.NoError(t, err)
	assert.Equal(t, "u1", first.UserID, "history follows application order")

	_, err = tr.History(meta, 2)
	assert.ErrorIs(t, err, apperrors.ErrIndexOutOfRange)
	_, err = tr.History(meta, -1)
	assert.ErrorIs(t, err, apperrors.ErrIndexOutOfRange)
}

func TestConflicts(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u1", t0, section(0, 5, "hello")),
		change("u1", t0.Add(time.Second), section(0, 2, "HE")),
		change("u2", t0.Add(2*time.Second), section(3, 8, "LO!!!")),
	)

	conflicts := tr.Conflicts(meta)
	require.Len(t, conflicts, 1, "same-user overwrites are not conflicts")
	assert.Equal(t, Conflict{
		Winner:     2,
		Loser:      0,
		WinnerUser: "u2",
		LoserUser:  "u1",
		Start:      3,
		End:        5,
		Resolution: "last_write_wins",
	}, conflicts[0])
}

type firstWriterWins struct{}

func (firstWriterWins) Name() string { return "first_write_wins" }

func (firstWriterWins) Order(changes []model.DocumentChange) []int {
	order := LastWriterWins{}.Order(changes)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func TestPolicyIsSwappable(t *testing.T) {
	tr := New(WithPolicy(firstWriterWins{}))
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u1", t0, section(0, 5, "hello")),
		change("u2", t0.Add(time.Second), section(0, 5, "HELLO")),
	)

	assert.Equal(t, "hello", tr.Materialize(meta))
	assert.Equal(t, "first_write_wins", tr.Conflicts(meta)[0].Resolution)
}

func TestContributors(t *testing.T) {
	tr := New()
	meta := mustAppend(t, tr, tr.NewDocument("doc", t0),
		change("u2", t0, section(0, 0, "a")),
		change("u1", t0.Add(time.Second), section(0, 0, "b")),
		change("u2", t0.Add(2*time.Second), section(0, 0, "c")),
	)

	assert.Equal(t, []string{"u2", "u1"}, tr.Contributors(meta))
}
