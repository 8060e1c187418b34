package sqldb

import "database/sql"

type Document struct {
	ID           string
	TeamID       string
	Metadata     string
	LastModified string
	CreatedAt    string
	ChangeCount  int64
}

type File struct {
	FileID       string
	FileName     string
	LastModified string
	TeamID       sql.NullString
	Hash         string
	FilePath     string
}

type Invitation struct {
	ID           string
	TeamID       string
	InvitedEmail string
	InvitedBy    string
	Role         int64
	CreatedAt    string
	ExpiresAt    string
	Status       string
}

type Team struct {
	ID             string
	Name           string
	OwnerID        string
	CreatedAt      string
	LocalDirectory sql.NullString
}

type TeamMember struct {
	UserID        string
	TeamID        string
	Role          int64
	AccessExpires sql.NullString
}

type User struct {
	UserID    string
	Email     string
	CreatedAt sql.NullString
}
