package domain

import "time"

// Profile is the application-level account record, keyed by the same
// identifier as the account in the external auth store.
type Profile struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// SessionUser is the identity a session holds once authentication completes.
// Its presence is the sole authentication signal for the rest of the system.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
