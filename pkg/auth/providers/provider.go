package providers

import "context"

// AuthProvider verifies a caller-supplied bearer token and resolves it
// to a player identity. Token issuance happens outside this server.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

type TokenClaims struct {
	UID string `json:"uid"`
}
