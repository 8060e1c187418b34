// Package mcp exposes the collaboration use cases as Model Context Protocol
// tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/laminotes/laminotes/internal/codec"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/usecase"
)

// Server wraps the MCP server with the laminotes tools.
type Server struct {
	server      *mcp.Server
	env         *usecase.Env
	documents   *usecase.Document
	teams       *usecase.Team
	invitations *usecase.Invitation
}

// NewServer registers every tool over env.
func NewServer(env *usecase.Env, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "laminotes",
		Version: version,
	}, nil)

	s := &Server{
		server:      mcpServer,
		env:         env,
		documents:   usecase.NewDocument(env),
		teams:       usecase.NewTeam(env),
		invitations: usecase.NewInvitation(env),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over transport.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "doc_edit",
		Description: "Append one change set to a document and return the merged content",
	}, s.handleEdit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "doc_show",
		Description: "Return the merged content and version token of a document",
	}, s.handleShow)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "doc_history",
		Description: "Return the change history of a document in application order",
	}, s.handleHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "team_members",
		Description: "List the members of a team",
	}, s.handleMembers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "invite_create",
		Description: "Invite an email address into a team",
	}, s.handleInviteCreate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "invite_accept",
		Description: "Accept an invitation addressed to the acting user",
	}, s.handleInviteAccept)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "invite_decline",
		Description: "Decline an invitation addressed to the acting user",
	}, s.handleInviteDecline)
}

type Section struct {
	StartIndex int    `json:"startIndex" jsonschema:"first code point replaced"`
	EndIndex   int    `json:"endIndex" jsonschema:"code point after the replaced span"`
	Content    string `json:"content" jsonschema:"replacement text"`
}

type Change struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Timestamp string    `json:"timestamp"`
	Sections  []Section `json:"sections"`
}

type EditInput struct {
	ActorID      string    `json:"actorId" jsonschema:"user performing the edit"`
	DocumentID   string    `json:"documentId" jsonschema:"document to edit"`
	Sections     []Section `json:"sections" jsonschema:"edited sections ordered by startIndex"`
	Username     string    `json:"username,omitempty" jsonschema:"display name recorded with the change"`
	Timestamp    string    `json:"timestamp,omitempty" jsonschema:"ISO-8601 time of the change; now when omitted"`
	LastModified string    `json:"lastModified,omitempty" jsonschema:"version token the edit is based on"`
}

type DocumentOutput struct {
	DocumentID   string   `json:"documentId"`
	TeamID       string   `json:"teamId"`
	Content      string   `json:"content"`
	LastModified string   `json:"lastModified"`
	Changes      int      `json:"changes"`
	Contributors []string `json:"contributors,omitempty"`
}

type DocumentInput struct {
	ActorID    string `json:"actorId" jsonschema:"user reading the document"`
	DocumentID string `json:"documentId" jsonschema:"document to read"`
}

type HistoryInput struct {
	ActorID    string `json:"actorId" jsonschema:"user reading the history"`
	DocumentID string `json:"documentId" jsonschema:"document to read"`
	Index      *int   `json:"index,omitempty" jsonschema:"single position to return; all changes when omitted"`
}

type HistoryOutput struct {
	Changes []Change `json:"changes"`
}

type TeamInput struct {
	ActorID string `json:"actorId" jsonschema:"user asking"`
	TeamID  string `json:"teamId" jsonschema:"team to list"`
}

type Member struct {
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	AccessExpires string `json:"access_expires,omitempty"`
}

type MembersOutput struct {
	Members []Member `json:"members"`
}

type InviteCreateInput struct {
	ActorID string `json:"actorId" jsonschema:"team owner sending the invitation"`
	TeamID  string `json:"teamId" jsonschema:"team to join"`
	Email   string `json:"email" jsonschema:"address of the invitee"`
	Role    string `json:"role,omitempty" jsonschema:"viewer, contributor or owner; viewer when omitted"`
}

type InviteInput struct {
	ActorID      string `json:"actorId" jsonschema:"user the invitation was sent to"`
	InvitationID string `json:"invitationId" jsonschema:"invitation to answer"`
}

type InvitationOutput struct {
	ID           string `json:"id"`
	TeamID       string `json:"team_id"`
	InvitedEmail string `json:"invited_email"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	ExpiresAt    string `json:"expires_at"`
}

func (s *Server) handleEdit(ctx context.Context, _ *mcp.CallToolRequest, input EditInput) (*mcp.CallToolResult, DocumentOutput, error) {
	change := Change{
		UserID:    input.ActorID,
		Username:  input.Username,
		Timestamp: input.Timestamp,
		Sections:  input.Sections,
	}
	if change.Username == "" {
		change.Username = input.ActorID
	}
	if change.Timestamp == "" {
		change.Timestamp = codec.FormatTime(s.env.Now())
	}
	if change.Sections == nil {
		change.Sections = []Section{}
	}
	raw, err := json.Marshal(change)
	if err != nil {
		return nil, DocumentOutput{}, err
	}

	expected := model.None[time.Time]()
	if input.LastModified != "" {
		token, err := codec.ParseTime(input.LastModified)
		if err != nil {
			return nil, DocumentOutput{}, err
		}
		expected = model.Some(token)
	}

	view, err := s.documents.EditJSON(ctx, input.ActorID, input.DocumentID, raw, expected)
	if err != nil {
		return nil, DocumentOutput{}, fmt.Errorf("failed to edit document: %w", err)
	}
	return nil, documentOutput(view), nil
}

func (s *Server) handleShow(ctx context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, DocumentOutput, error) {
	view, err := s.documents.Show(ctx, input.ActorID, input.DocumentID)
	if err != nil {
		return nil, DocumentOutput{}, fmt.Errorf("failed to show document: %w", err)
	}
	return nil, documentOutput(view), nil
}

func (s *Server) handleHistory(ctx context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	var changes []model.DocumentChange
	if input.Index != nil {
		change, err := s.documents.History(ctx, input.ActorID, input.DocumentID, *input.Index)
		if err != nil {
			return nil, HistoryOutput{}, fmt.Errorf("failed to read history: %w", err)
		}
		changes = []model.DocumentChange{change}
	} else {
		var err error
		changes, err = s.documents.Changes(ctx, input.ActorID, input.DocumentID)
		if err != nil {
			return nil, HistoryOutput{}, fmt.Errorf("failed to read history: %w", err)
		}
	}

	out := HistoryOutput{Changes: make([]Change, 0, len(changes))}
	for _, c := range changes {
		sections := make([]Section, 0, len(c.Sections))
		for _, sec := range c.Sections {
			sections = append(sections, Section{StartIndex: sec.StartIndex, EndIndex: sec.EndIndex, Content: sec.Content})
		}
		out.Changes = append(out.Changes, Change{
			UserID:    c.UserID,
			Username:  c.Username,
			Timestamp: codec.FormatTime(c.Timestamp),
			Sections:  sections,
		})
	}
	return nil, out, nil
}

func (s *Server) handleMembers(ctx context.Context, _ *mcp.CallToolRequest, input TeamInput) (*mcp.CallToolResult, MembersOutput, error) {
	members, err := s.teams.Members(ctx, input.ActorID, input.TeamID)
	if err != nil {
		return nil, MembersOutput{}, fmt.Errorf("failed to list members: %w", err)
	}
	out := MembersOutput{Members: make([]Member, 0, len(members))}
	for _, m := range members {
		item := Member{UserID: m.UserID, Role: m.Role.String()}
		if expires, ok := m.AccessExpires.Get(); ok {
			item.AccessExpires = codec.FormatTime(expires)
		}
		out.Members = append(out.Members, item)
	}
	return nil, out, nil
}

func (s *Server) handleInviteCreate(ctx context.Context, _ *mcp.CallToolRequest, input InviteCreateInput) (*mcp.CallToolResult, InvitationOutput, error) {
	role := model.RoleViewer
	if input.Role != "" {
		parsed, err := model.ParseTeamRole(input.Role)
		if err != nil {
			return nil, InvitationOutput{}, err
		}
		role = parsed
	}
	inv, err := s.invitations.Create(ctx, input.ActorID, input.TeamID, input.Email, role)
	if err != nil {
		return nil, InvitationOutput{}, fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil, invitationOutput(inv), nil
}

func (s *Server) handleInviteAccept(ctx context.Context, _ *mcp.CallToolRequest, input InviteInput) (*mcp.CallToolResult, InvitationOutput, error) {
	inv, _, err := s.invitations.Accept(ctx, input.ActorID, input.InvitationID)
	if err != nil {
		return nil, InvitationOutput{}, fmt.Errorf("failed to accept invitation: %w", err)
	}
	return nil, invitationOutput(inv), nil
}

func (s *Server) handleInviteDecline(ctx context.Context, _ *mcp.CallToolRequest, input InviteInput) (*mcp.CallToolResult, InvitationOutput, error) {
	inv, err := s.invitations.Decline(ctx, input.ActorID, input.InvitationID)
	if err != nil {
		return nil, InvitationOutput{}, fmt.Errorf("failed to decline invitation: %w", err)
	}
	return nil, invitationOutput(inv), nil
}

func documentOutput(view usecase.DocumentView) DocumentOutput {
	return DocumentOutput{
		DocumentID:   view.Record.Metadata.DocumentID(),
		TeamID:       view.Record.TeamID,
		Content:      view.Content,
		LastModified: codec.FormatTime(view.Record.Metadata.LastModified()),
		Changes:      view.Record.Metadata.Len(),
		Contributors: view.Contributors,
	}
}

func invitationOutput(inv model.TeamInvitation) InvitationOutput {
	return InvitationOutput{
		ID:           inv.ID,
		TeamID:       inv.TeamID,
		InvitedEmail: inv.InvitedEmail,
		Role:         inv.Role.String(),
		Status:       string(inv.Status),
		ExpiresAt:    codec.FormatTime(inv.ExpiresAt),
	}
}
