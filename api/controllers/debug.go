package controllers

import (
	"net/http"

	"github.com/debugly/debugly-backend/api/middleware"
	"github.com/debugly/debugly-backend/api/responses"
	"github.com/debugly/debugly-backend/api/validators"
	"github.com/debugly/debugly-backend/internal/debugger"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/debugly/debugly-backend/pkg/logger"
	"github.com/google/uuid"
)

type debugRequest struct {
	Code  string `json:"code"`
	Title string `json:"title,omitempty"`
}

// DebugCode serves the legacy /functions/v1/debug-code shape: the flat
// {"debuggedCode": ...} payload on success and {"error": ...} on failure.
func DebugCode(svc debugger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "debug service unavailable")
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		var body debugRequest
		if err := validators.DecodeLooseJSONBody(r, &body); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Debug(r.Context(), userID, body.Code, body.Title)
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		responses.WriteLegacyJSON(w, http.StatusOK, map[string]string{"debuggedCode": result})
	}
}

func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
