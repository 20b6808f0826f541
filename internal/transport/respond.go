package transport

import (
	"net/http"
	"strconv"

	"bike-bazaar/internal/domain"
	"bike-bazaar/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondWithServiceError maps a service error to its HTTP status. Anything that is not
// a domain error is logged and reported as a generic 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, action string, err error) {
	if status, ok := middleware.StatusForError(err); ok {
		logger.Debug(action+" rejected", zap.Error(err), zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, status, domain.MessageOf(err))
		return
	}

	logger.Error(action+" failed", zap.Error(err), zap.String("path", r.URL.Path))
	middleware.RespondWithError(w, http.StatusInternalServerError, "failed to "+action)
}

// decodeBody decodes and validates a JSON body, writing the 400 response itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err), zap.String("path", r.URL.Path))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func identityFrom(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return identity, ok
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter; missing or malformed values give 0.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
