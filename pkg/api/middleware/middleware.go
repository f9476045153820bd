package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/gametag/assassin/pkg/auth/providers"
	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/log"
)

type ContextKey int

const (
	// PlayerContextKey is the key used to store the caller's player id
	// in the request context
	PlayerContextKey ContextKey = iota
)

// NewAuthMiddleware resolves the bearer token to a player identity and
// stores it in the request context. Requests without a valid identity
// are rejected here; engine operations never see an anonymous caller.
func NewAuthMiddleware(authProvider authproviders.AuthProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearerToken, err := parseBearerToken(r)
			if err != nil {
				log.Debug("failed to parse bearer token: %v", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := authProvider.VerifyToken(r.Context(), bearerToken)
			if err != nil {
				log.Debug("failed to verify token: %v", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PlayerContextKey, gametypes.PlayerID(claims.UID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPlayer returns the authenticated caller stored by the auth
// middleware.
func GetPlayer(ctx context.Context) (gametypes.PlayerID, bool) {
	player, ok := ctx.Value(PlayerContextKey).(gametypes.PlayerID)
	return player, ok
}

// CORS answers preflight requests and sets the response headers that let
// browser clients call the API from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// parseBearerToken parses the bearer token from the Authorization header
func parseBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	return parts[1], nil
}
