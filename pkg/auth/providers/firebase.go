package providers

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

var _ AuthProvider = &FirebaseAuthProvider{}

// FirebaseAuthProvider verifies Firebase ID tokens issued to players by
// the Firebase client SDKs.
type FirebaseAuthProvider struct {
	app  *firebase.App
	auth *auth.Client
}

// NewFirebaseAuthProvider creates a FirebaseAuthProvider from a service
// account credentials JSON blob.
func NewFirebaseAuthProvider(ctx context.Context, projectID string, credentialsJSON []byte) (*FirebaseAuthProvider, error) {
	opt := option.WithCredentialsJSON(credentialsJSON)
	cfg := &firebase.Config{
		ProjectID: projectID,
	}
	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %v", err)
	}

	return &FirebaseAuthProvider{
		app:  app,
		auth: authClient,
	}, nil
}

func (p *FirebaseAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	token, err := p.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("error verifying token: %v", err)
	}

	return &TokenClaims{
		UID: token.UID,
	}, nil
}
