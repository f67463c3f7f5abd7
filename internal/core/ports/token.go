package ports

import "time"

// TokenIssuer signs access tokens for authenticated service accounts.
type TokenIssuer interface {
	// Issue returns a signed token for subject and the time at which it expires.
	Issue(subject string) (string, time.Time, error)
}
