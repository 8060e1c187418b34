package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/model"
)

var t0 = time.Date(2026, 4, 2, 10, 15, 30, 250_000_000, time.UTC)

func sampleMetadata() model.MarkdownMetadata {
	return model.NewMarkdownMetadata("doc-1", []model.DocumentChange{
		{
			UserID:    "u1",
			Username:  "ana",
			Timestamp: t0,
			Sections:  []model.TextSection{{StartIndex: 0, EndIndex: 5, Content: "hello"}},
		},
		{
			UserID:    "u2",
			Username:  "bo",
			Timestamp: t0.Add(1500 * time.Millisecond),
			Sections: []model.TextSection{
				{StartIndex: 0, EndIndex: 1, Content: "<H>"},
				{StartIndex: 3, EndIndex: 3, Content: ""},
			},
		},
	}, map[string]string{"u1": "#e6194b", "u2": "#3cb44b"}, t0.Add(1500*time.Millisecond))
}

func TestMarkdownMetadataRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		meta model.MarkdownMetadata
	}{
		{"with changes", sampleMetadata()},
		{"empty history", model.NewMarkdownMetadata("doc-2", nil, nil, t0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeMarkdownMetadata(tt.meta)
			require.NoError(t, err)

			got, err := DecodeMarkdownMetadata(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.meta, got)
		})
	}
}

func TestEncodeMarkdownMetadataShape(t *testing.T) {
	raw, err := EncodeMarkdownMetadata(model.NewMarkdownMetadata("d", []model.DocumentChange{{
		UserID:    "u1",
		Username:  "ana",
		Timestamp: t0,
		Sections:  []model.TextSection{{StartIndex: 0, EndIndex: 2, Content: "<b>"}},
	}}, map[string]string{"u1": "#fff"}, t0))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"documentId": "d",
		"changes": [{"userId": "u1", "username": "ana", "timestamp": "2026-04-02T10:15:30.250Z",
			"sections": [{"startIndex": 0, "endIndex": 2, "content": "<b>"}]}],
		"userColors": {"u1": "#fff"},
		"lastModified": "2026-04-02T10:15:30.250Z"
	}`, string(raw))
	assert.Contains(t, string(raw), `"<b>"`, "markdown is not HTML-escaped")
}

func TestDecodeMarkdownMetadataNamesFirstOffendingField(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"not json", `{"documentId":`, "$"},
		{"not an object", `[1,2]`, "$"},
		{"missing id", `{"changes":[],"userColors":{},"lastModified":"2026-01-01T00:00:00.000Z"}`, "documentId"},
		{"changes not array", `{"documentId":"d","changes":{},"userColors":{},"lastModified":"2026-01-01T00:00:00.000Z"}`, "changes"},
		{
			"bad change timestamp",
			`{"documentId":"d","changes":[
				{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00.000Z","sections":[]},
				{"userId":"u","username":"u","timestamp":"yesterday","sections":[]}],
			"userColors":{"u":"#000"},"lastModified":"2026-01-01T00:00:00.000Z"}`,
			"changes.1.timestamp",
		},
		{
			"reports earlier field first",
			`{"documentId":"d","changes":[{"username":"u","timestamp":"nope","sections":[]}],"userColors":{},"lastModified":"x"}`,
			"changes.0.userId",
		},
		{
			"fractional index",
			`{"documentId":"d","changes":[{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z",
				"sections":[{"startIndex":1.5,"endIndex":2,"content":"a"}]}],"userColors":{"u":"#000"},"lastModified":"2026-01-01T00:00:00Z"}`,
			"changes.0.sections.0.startIndex",
		},
		{
			"reversed span",
			`{"documentId":"d","changes":[{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z",
				"sections":[{"startIndex":4,"endIndex":2,"content":"a"}]}],"userColors":{"u":"#000"},"lastModified":"2026-01-01T00:00:00Z"}`,
			"changes.0.sections.0.endIndex",
		},
		{
			"unordered sections",
			`{"documentId":"d","changes":[{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z",
				"sections":[{"startIndex":5,"endIndex":6,"content":"a"},{"startIndex":0,"endIndex":1,"content":"b"}]}],
			"userColors":{"u":"#000"},"lastModified":"2026-01-01T00:00:00Z"}`,
			"changes.0.sections.1.startIndex",
		},
		{
			"overlapping sections",
			`{"documentId":"d","changes":[
				{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z","sections":[]},
				{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z","sections":[
					{"startIndex":0,"endIndex":4,"content":"abcd"},
					{"startIndex":6,"endIndex":6,"content":"x"},
					{"startIndex":6,"endIndex":8,"content":"y"}]}],
			"userColors":{"u":"#000"},"lastModified":"2026-01-01T00:00:00Z"}`,
			"changes.1.sections.2.startIndex",
		},
		{
			"decreasing timestamps",
			`{"documentId":"d","changes":[
				{"userId":"u","username":"u","timestamp":"2026-01-02T00:00:00Z","sections":[]},
				{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z","sections":[]}],
			"userColors":{"u":"#000"},"lastModified":"2026-01-01T00:00:00Z"}`,
			"changes.1.timestamp",
		},
		{
			"color not string",
			`{"documentId":"d","changes":[],"userColors":{"u":7},"lastModified":"2026-01-01T00:00:00Z"}`,
			"userColors.u",
		},
		{
			"lastModified mismatch",
			`{"documentId":"d","changes":[{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z","sections":[]}],
			"userColors":{"u":"#000"},"lastModified":"2026-01-03T00:00:00Z"}`,
			"lastModified",
		},
		{
			"author without color",
			`{"documentId":"d","changes":[{"userId":"u","username":"u","timestamp":"2026-01-01T00:00:00Z","sections":[]}],
			"userColors":{},"lastModified":"2026-01-01T00:00:00Z"}`,
			"userColors.u",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMarkdownMetadata([]byte(tt.raw))
			require.ErrorIs(t, err, apperrors.ErrMalformedInput)
			assert.Equal(t, tt.field, apperrors.Field(err))
		})
	}
}

func TestDecodeDocumentChangeNormalizesTimestamp(t *testing.T) {
	c, err := DecodeDocumentChange([]byte(`{"userId":"u","username":"ana",
		"timestamp":"2026-04-02T12:15:30.250999+02:00","sections":[{"startIndex":0,"endIndex":0,"content":"hi"}]}`))
	require.NoError(t, err)

	assert.Equal(t, t0, c.Timestamp)
	assert.Equal(t, []model.TextSection{{StartIndex: 0, EndIndex: 0, Content: "hi"}}, c.Sections)
}

func TestDecodeTextSection(t *testing.T) {
	s, err := DecodeTextSection([]byte(`{"startIndex":2,"endIndex":4,"content":"ab"}`))
	require.NoError(t, err)
	assert.Equal(t, model.TextSection{StartIndex: 2, EndIndex: 4, Content: "ab"}, s)

	_, err = DecodeTextSection([]byte(`{"startIndex":-1,"endIndex":4,"content":"ab"}`))
	assert.Equal(t, "startIndex", apperrors.Field(err))
	_, err = DecodeTextSection([]byte(`{"startIndex":0,"endIndex":4,"content":3}`))
	assert.Equal(t, "content", apperrors.Field(err))
}

func TestTeamRoundTrip(t *testing.T) {
	teams := []model.Team{
		{ID: "t1", Name: "Docs", OwnerID: "u1", CreatedAt: t0},
		{ID: "t2", Name: "Wiki", OwnerID: "u2", CreatedAt: t0, LocalDirectory: model.Some("/srv/wiki")},
	}
	for _, team := range teams {
		raw, err := EncodeTeam(team)
		require.NoError(t, err)
		got, err := DecodeTeam(raw)
		require.NoError(t, err)
		assert.Equal(t, team, got)
	}

	raw, err := EncodeTeam(teams[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "localDirectory")
}

func TestOptionalNullIsAbsent(t *testing.T) {
	team, err := DecodeTeam([]byte(`{"id":"t","name":"n","owner_id":"o","created_at":"2026-01-01T00:00:00Z","localDirectory":null}`))
	require.NoError(t, err)
	assert.False(t, team.LocalDirectory.Present())

	member, err := DecodeTeamMember([]byte(`{"user_id":"u","team_id":"t","role":1,"access_expires":null}`))
	require.NoError(t, err)
	assert.False(t, member.AccessExpires.Present())

	_, err = DecodeTeamMember([]byte(`{"user_id":"u","team_id":"t","role":1,"access_expires":12}`))
	assert.Equal(t, "access_expires", apperrors.Field(err))
}

func TestTeamMemberRoundTrip(t *testing.T) {
	members := []model.TeamMember{
		{UserID: "u1", TeamID: "t1", Role: model.RoleViewer},
		{UserID: "u2", TeamID: "t1", Role: model.RoleOwner, AccessExpires: model.Some(t0)},
	}
	for _, m := range members {
		raw, err := EncodeTeamMember(m)
		require.NoError(t, err)
		got, err := DecodeTeamMember(raw)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	raw, err := EncodeTeamMember(members[1])
	require.NoError(t, err)
	assert.Equal(t, `{"user_id":"u2","team_id":"t1","role":2,"access_expires":"2026-04-02T10:15:30.250Z"}`, string(raw))
}

func TestDecodeTeamMemberRole(t *testing.T) {
	for _, raw := range []string{
		`{"user_id":"u","team_id":"t","role":3}`,
		`{"user_id":"u","team_id":"t","role":-1}`,
		`{"user_id":"u","team_id":"t","role":"owner"}`,
	} {
		_, err := DecodeTeamMember([]byte(raw))
		assert.ErrorIs(t, err, apperrors.ErrMalformedInput, raw)
		assert.Equal(t, "role", apperrors.Field(err), raw)
	}
}

func TestTeamInvitationRoundTrip(t *testing.T) {
	inv := model.TeamInvitation{
		ID:           "inv",
		TeamID:       "t1",
		InvitedEmail: "ana@example.com",
		InvitedBy:    "u1",
		Role:         model.RoleContributor,
		CreatedAt:    t0,
		ExpiresAt:    t0.Add(7 * 24 * time.Hour),
		Status:       model.InvitationPending,
	}

	raw, err := EncodeTeamInvitation(inv)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"pending"`)
	assert.Contains(t, string(raw), `"role":1`)

	got, err := DecodeTeamInvitation(raw)
	require.NoError(t, err)
	assert.Equal(t, inv, got)
}

func TestDecodeTeamInvitationValidation(t *testing.T) {
	base := `{"id":"i","team_id":"t","invited_email":"a@b.c","invited_by":"u","role":0,`

	_, err := DecodeTeamInvitation([]byte(base + `"created_at":"2026-01-02T00:00:00Z","expires_at":"2026-01-01T00:00:00Z","status":"pending"}`))
	assert.Equal(t, "expires_at", apperrors.Field(err))

	_, err = DecodeTeamInvitation([]byte(base + `"created_at":"2026-01-01T00:00:00Z","expires_at":"2026-01-02T00:00:00Z","status":"Pending"}`))
	assert.Equal(t, "status", apperrors.Field(err))
}

func TestUserRoundTrip(t *testing.T) {
	users := []model.User{
		{UserID: "u1", Email: "a@b.c"},
		{UserID: "u2", Email: "d@e.f", CreatedAt: model.Some(t0)},
	}
	for _, u := range users {
		raw, err := EncodeUser(u)
		require.NoError(t, err)
		got, err := DecodeUser(raw)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	}
}

func TestFileMetadataRoundTripsByteForByte(t *testing.T) {
	inputs := []string{
		`{"fileId":"f1","fileName":"notes.md","lastModified":"2026-04-02T10:15:30.250Z"}`,
		`{"fileId":"f2","fileName":"a&b <draft>.md","lastModified":"2026-04-02T10:15:30.000Z","team_id":"t1"}`,
	}

	for _, in := range inputs {
		f, err := DecodeFileMetadata([]byte(in))
		require.NoError(t, err)
		out, err := EncodeFileMetadata(f)
		require.NoError(t, err)
		assert.Equal(t, in, string(out))
	}
}

func TestDecodeFileMetadataFields(t *testing.T) {
	_, err := DecodeFileMetadata([]byte(`{"fileId":"f1","file_name":"x","lastModified":"2026-04-02T10:15:30.250Z"}`))
	assert.Equal(t, "fileName", apperrors.Field(err))

	_, err = DecodeFileMetadata([]byte(`{"fileId":"f1","fileName":"x","lastModified":"2026-04-02"}`))
	assert.Equal(t, "lastModified", apperrors.Field(err))
}

func TestTimeHelpers(t *testing.T) {
	assert.Equal(t, "2026-04-02T10:15:30.250Z", FormatTime(t0.Add(999*time.Microsecond)))

	got, err := ParseTime("2026-04-02T10:15:30.25Z")
	require.NoError(t, err)
	assert.Equal(t, t0, got)

	_, err = ParseTime("soon")
	assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
}
