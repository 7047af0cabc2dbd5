package domain

import "time"

// Role is an application role carried by an authenticated principal.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

// Principal is the authenticated caller supplied by the identity collaborator.
// The core trusts it; it never verifies credentials itself.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// CanManage reports whether the principal may act on a resource owned by
// ownerID. Admins may act on anything.
func (p Principal) CanManage(ownerID string) bool {
	return p.Role == RoleAdmin || p.ID == ownerID
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated principal.
type TokenIssuer interface {
	Issue(p Principal, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}
