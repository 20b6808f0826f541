package middleware

import (
	"net/http"

	"bike-bazaar/internal/domain"

	"go.uber.org/zap"
)

// RequireSeller ensures the caller has a seller profile
func RequireSeller(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireRole("seller", domain.Identity.IsSeller, logger)
}

// RequireMechanic ensures the caller has a mechanic profile
func RequireMechanic(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireRole("mechanic", domain.Identity.IsMechanic, logger)
}

// RequireAdmin middleware ensures the user has admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireRole("admin", func(i domain.Identity) bool { return i.IsAdmin }, logger)
}

func requireRole(role string, has func(domain.Identity) bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok {
				logger.Warn("Identity not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !has(identity) {
				logger.Warn("User lacks required role",
					zap.String("user_id", identity.UserID.String()),
					zap.String("required_role", role),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
