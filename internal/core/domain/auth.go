package domain

// AuthContext carries the authenticated API caller through the request
// context. The caller is the embedding application's backend; when it
// mints per-user tokens, ExternalUserID attributes the request to one
// of its end users.
type AuthContext struct {
	Subject        string `json:"sub"`
	ExternalUserID string `json:"external_user_id,omitempty"`
}

// TokenClaims represents the API JWT payload
type TokenClaims struct {
	Subject        string `json:"sub"`
	ExternalUserID string `json:"external_user_id,omitempty"`
	IssuedAt       int64  `json:"iat"`
	ExpiresAt      int64  `json:"exp"`
}
