package middleware

import (
	"context"
	"net/http"

	"tap-analytics-service/internal/auth"
	"tap-analytics-service/pkg/response"

	"go.uber.org/zap"
)

type contextKey string

const claimsContextKey contextKey = "claims"

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	value := ctx.Value(claimsContextKey)
	if value == nil {
		return nil, false
	}
	c, ok := value.(*auth.Claims)
	return c, ok
}

// APIAuth requires a valid HS256 bearer token. With no secret configured
// every request passes through unauthenticated.
func APIAuth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, secret)
			if err != nil {
				if logger != nil {
					logger.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				}
				response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// ClientAllowed reports whether the request may read clientID. Requests
// that carry no claims (auth disabled) are allowed.
func ClientAllowed(r *http.Request, clientID string) bool {
	claims, ok := GetClaims(r.Context())
	if !ok {
		return true
	}
	return claims.AllowsClient(clientID)
}
