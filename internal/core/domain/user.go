package domain

import "time"

// User is an end user of the embedding application, identified by the
// opaque external id the application supplies. A user owns zero or more
// Gmail connections. Users are created lazily on the first authorization
// attempt and never deleted automatically.
type User struct {
	ID             string    `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	Email          string    `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
