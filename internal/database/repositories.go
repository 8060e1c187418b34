package database

// Repositories bundles every repository over one Context, so a transaction
// can hand all of them to a single unit of work.
type Repositories struct {
	Users       *UserRepository
	Teams       *TeamRepository
	Members     *MemberRepository
	Invitations *InvitationRepository
	Documents   *DocumentRepository
	Files       *FileRepository
}

func NewRepositories(dbCtx *Context) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(dbCtx),
		Teams:       NewTeamRepository(dbCtx),
		Members:     NewMemberRepository(dbCtx),
		Invitations: NewInvitationRepository(dbCtx),
		Documents:   NewDocumentRepository(dbCtx),
		Files:       NewFileRepository(dbCtx),
	}
}
