package model

import "time"

// Team is a collaboration group and the root owner of its memberships.
type Team struct {
	ID             string
	Name           string
	OwnerID        string
	CreatedAt      time.Time
	LocalDirectory Optional[string]
}

// TeamMember links a user to a team. A membership whose AccessExpires lies in
// the past is inactive but is never removed because of it.
type TeamMember struct {
	UserID        string
	TeamID        string
	Role          TeamRole
	AccessExpires Optional[time.Time]
}

// ActiveAt reports whether the membership still grants access at now.
func (m TeamMember) ActiveAt(now time.Time) bool {
	expires, ok := m.AccessExpires.Get()
	return !ok || !expires.Before(now)
}

// User is an account identity. UserID is stable for the account lifetime.
type User struct {
	UserID    string
	Email     string
	CreatedAt Optional[time.Time]
}

// FileMetadata stamps the identity and version of a stored file.
// LastModified increases on every write.
type FileMetadata struct {
	FileID       string
	FileName     string
	LastModified time.Time
	TeamID       Optional[string]
}
