package middleware

import (
	"context"
	"net/http"

	"bike-bazaar/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const IdentityKey contextKey = "identity"

// IdentityResolver loads the caller's role memberships in one lookup.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID uuid.UUID) (*domain.Identity, error)
}

// IdentityMiddleware resolves the authenticated caller's Identity once per request.
// It must run after AuthMiddleware.
func IdentityMiddleware(resolver IdentityResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), userID)
			if err != nil {
				if domain.IsKind(err, domain.KindNotFound) {
					logger.Debug("Token refers to a missing user", zap.String("user_id", userID.String()))
					RespondWithError(w, http.StatusUnauthorized, "user no longer exists")
					return
				}
				logger.Error("Failed to resolve identity", zap.Error(err), zap.String("user_id", userID.String()))
				RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, *identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the Identity stored by IdentityMiddleware.
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
