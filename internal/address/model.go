package address

import "time"

// Address is a saved address owned by one user. ExternalID links the
// carrier-side mirror when one exists; it stays empty when mirroring failed.
type Address struct {
	ID            string
	UserID        string
	ExternalID    string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Line1         string
	Line2         string
	City          string
	State         string
	Country       string
	Zip           string
	IsResidential bool
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
