package user

// User is the authenticated account identity carried through request
// context. It is read-only for consumers; mutation happens through the
// profile and auth services.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UserType  string `json:"user_type"`
	IsActive  bool   `json:"is_active"`
	IsStaff   bool   `json:"is_staff"`
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CanReview reports whether this account may decide approval requests.
func (u *User) CanReview() bool {
	return u.IsStaff && u.IsActive
}
