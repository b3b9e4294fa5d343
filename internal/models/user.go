package models

// User is a team member record in the users collection. Pw holds an argon2id
// hash for accounts registered here and plain text for older accounts.
type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Pw       string `json:"pw,omitempty"`
	Tel      string `json:"tel,omitempty"`
}

type CurrentUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Tel      string `json:"tel,omitempty"`
}

func (u User) Current() CurrentUser {
	return CurrentUser{
		Email:    u.Email,
		Name:     u.Name,
		Initials: u.Initials,
		Tel:      u.Tel,
	}
}

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterData struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AcceptPrivacy   bool   `json:"accept_privacy"`
}

// GuestUser is the shared demo account.
var GuestUser = CurrentUser{
	Email:    "guest",
	Name:     "Guest User",
	Initials: "GU",
}

const (
	GuestEmail    = "guest"
	GuestPassword = "guest123"
)

type RateLimitRecord struct {
	Count       int    `json:"count"`
	LastUpdated string `json:"last_updated"`
}
