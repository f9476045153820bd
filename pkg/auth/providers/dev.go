package providers

import (
	"context"
	"fmt"
)

var _ AuthProvider = &DevAuthProvider{}

// DevAuthProvider treats the bearer token itself as the player id.
// It performs no verification and must never be used outside local
// development and tests.
type DevAuthProvider struct {
}

func NewDevAuthProvider() *DevAuthProvider {
	return &DevAuthProvider{}
}

func (p *DevAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty token")
	}
	return &TokenClaims{
		UID: idToken,
	}, nil
}
