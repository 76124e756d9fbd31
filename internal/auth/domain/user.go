package domain

// User is the directory service's view of an account. The auth service owns
// no user rows itself; it fetches this record at login and caches nothing.
type User struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	PasswordHash  string   `json:"password_hash,omitempty"` // argon2id encoded
	Roles         []string `json:"roles"`
	Permissions   []string `json:"permissions"`
	EmailVerified bool     `json:"email_verified"`
	Enabled       bool     `json:"enabled"`
	Locked        bool     `json:"locked"`
}

// UserInfo is the public projection returned by /v1/auth/me.
type UserInfo struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}
