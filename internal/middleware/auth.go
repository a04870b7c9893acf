package middleware

import (
	"context"
	"net/http"
	"strings"

	"invexqr/internal/config"
	"invexqr/internal/logger"
	"invexqr/internal/model"
	"invexqr/internal/service"
	"invexqr/internal/util"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// UserID returns the authenticated internal user ID from the request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserContextKey).(string)
	return id
}

// AuthMiddleware authenticates a bearer token from either provider. The
// unverified issuer claim selects the key material: Firebase tokens verify
// against the configured public key, everything else against the platform's
// session secret. The verified credential is then resolved to the canonical
// internal user, creating the account link on first sight.
func AuthMiddleware(cfg *config.Config, users service.UserService) func(http.Handler) http.Handler {
	firebaseIssuer := "https://securetoken.google.com/" + cfg.FirebaseProjectID
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.New()
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Error().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Error().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]

			issuer, err := util.PeekIssuer(tokenString)
			if err != nil {
				logger.Error().Msgf("Unreadable token: %+v", err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			provider := model.ProviderNative
			keyMaterial := cfg.JWTSecret
			if cfg.FirebaseProjectID != "" && issuer == firebaseIssuer {
				provider = model.ProviderFirebase
				keyMaterial = cfg.FirebasePublicKey
			}

			claims, err := util.ValidateJWT(tokenString, keyMaterial)
			if err != nil {
				logger.Error().Msgf("Invalid token: %+v", err)
				http.Error(w, "Invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}

			var email *string
			if claims.Email != "" {
				email = &claims.Email
			}
			user, err := users.ResolveIdentity(r.Context(), provider, claims.Subject, email)
			if err != nil {
				logger.Error().Err(err).Str("provider", provider).Msg("Failed to resolve identity")
				http.Error(w, "Authentication failed", http.StatusInternalServerError)
				return
			}

			// Embed the internal user ID into request context
			ctx := context.WithValue(r.Context(), UserContextKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
