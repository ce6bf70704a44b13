package identity

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account. The wallet balance lives on the user
// record and is mutated only through the ledger.
type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	PasswordHash  []byte
	Role          string
	IsActive      bool
	WalletBalance int64
	CreatedAt     time.Time
}

// Credentials carries a login attempt.
type Credentials struct {
	Email    string
	Password string
}
