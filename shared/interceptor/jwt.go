package interceptor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rareminds-eym/skillpassport-sub044/shared/auth"
)

type contextKey struct{}

var CallerClaimsKey = contextKey{}

// NewJWTMiddleware rejects requests without a valid bearer token and stores
// the caller's claims in the request context.
func NewJWTMiddleware(
	jwtAuth auth.JWTAuthenticator,
	secret string,
	logger *zerolog.Logger,
	onUnauthorized func(w http.ResponseWriter, message string),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateJWT(r, jwtAuth, secret)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				onUnauthorized(w, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), CallerClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the claims stored by NewJWTMiddleware.
func CallerFromContext(ctx context.Context) (*auth.CallerClaims, bool) {
	claims, ok := ctx.Value(CallerClaimsKey).(*auth.CallerClaims)
	return claims, ok
}

func extractAndValidateJWT(r *http.Request, jwtAuth auth.JWTAuthenticator, secret string) (*auth.CallerClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("invalid authorization header format")
	}

	return jwtAuth.ValidateCallerToken(strings.TrimSpace(parts[1]), secret)
}
