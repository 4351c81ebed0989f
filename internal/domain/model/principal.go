package model

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated identity behind a request.
// UserID is only set for RoleUser.
type Principal struct {
	Role   Role   `json:"role"`
	UserID string `json:"uuid,omitempty"`
}

func AdminPrincipal() Principal {
	return Principal{Role: RoleAdmin}
}

func UserPrincipal(id string) Principal {
	return Principal{Role: RoleUser, UserID: id}
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether p may act on the record keyed by id.
func (p Principal) CanAccess(id string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleUser && p.UserID == id
}
