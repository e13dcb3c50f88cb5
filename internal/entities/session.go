package entities

// Session identifies the actor behind an operation. It is passed explicitly
// into every operation that needs an identity or role check; there is no
// ambient current-user state.
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the session carries the GM/admin role
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
