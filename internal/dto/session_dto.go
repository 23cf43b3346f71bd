package dto

// SessionUser is the header data shown next to the sign-out control.
type SessionUser struct {
	ID        uint   `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	RoleLabel string `json:"role_label"`
}

// SessionResponse tells the client which view to render.
type SessionResponse struct {
	View     string       `json:"view"`
	Redirect string       `json:"redirect,omitempty"`
	User     *SessionUser `json:"user,omitempty"`
}
