package models

// User is a storefront account as stored by the backend. Passwords arrive
// in whatever form the backend holds them and never leave this service.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Public returns a copy safe to hand to clients.
func (u User) Public() User {
	u.Password = ""
	return u
}

// AdminFlag is the persisted admin session marker.
type AdminFlag struct {
	IsAuth bool `json:"isAuth"`
}
