package controllers

import (
	"net/http"

	"github.com/debugly/debugly-backend/api/responses"
	"github.com/debugly/debugly-backend/api/validators"
	"github.com/debugly/debugly-backend/internal/subscriptions"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
	"github.com/debugly/debugly-backend/pkg/logger"
)

// subscriptionRequest uses the camelCase field names the original clients
// send; renaming them would break every deployed caller.
type subscriptionRequest struct {
	Action         string `json:"action"`
	Plan           string `json:"planId,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

// Subscription serves the legacy /functions/v1/subscription multiplexer. One
// POST endpoint carries four actions selected by the request body.
func Subscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable")
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		var body subscriptionRequest
		if err := validators.DecodeLooseJSONBody(r, &body); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		switch body.Action {
		case "get_plans":
			responses.WriteLegacyJSON(w, http.StatusOK, map[string]any{"plans": svc.GetPlans()})
		case "create_subscription":
			userID, err := requestUserID(r)
			if err != nil {
				responses.WriteLegacyError(r.Context(), logg, w, err)
				return
			}
			checkout, err := svc.CreateCheckout(r.Context(), userID, body.Plan)
			if err != nil {
				responses.WriteLegacyError(r.Context(), logg, w, err)
				return
			}
			responses.WriteLegacyJSON(w, http.StatusOK, checkout)
		case "verify_subscription":
			userID, err := requestUserID(r)
			if err != nil {
				responses.WriteLegacyError(r.Context(), logg, w, err)
				return
			}
			verified, err := svc.Verify(r.Context(), userID, body.SubscriptionID)
			if err != nil {
				responses.WriteLegacyError(r.Context(), logg, w, err)
				return
			}
			responses.WriteLegacyJSON(w, http.StatusOK, verified)
		case "get_user_subscription":
			userID, err := requestUserID(r)
			if err != nil {
				responses.WriteLegacyError(r.Context(), logg, w, err)
				return
			}
			status, err := svc.Status(r.Context(), userID)
			if err != nil {
				responses.WriteLegacyError(r.Context(), logg, w, err)
				return
			}
			responses.WriteLegacyJSON(w, http.StatusOK, status)
		default:
			responses.WriteLegacyError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Invalid action"))
		}
	}
}
