package domain

// Principal is the identity bound to a connection at handshake time.
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

const RoleAdmin = "ADMIN"

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
