package domain

// UserIdentity is the authenticated caller as supplied by the session
// authority. The core treats ID as an opaque ownership tag and never
// interprets Email.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IsAnonymous reports whether the identity is absent or carries no ID.
func (u *UserIdentity) IsAnonymous() bool {
	return u == nil || u.ID == ""
}
