package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/mecajames/NewMECAV2-sub005/internal/app/memberships"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/wizard"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/logging"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/validate"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

// writeAppError maps application errors to their HTTP shape. Anything it does
// not recognize is logged and reported as a 500.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		me *memberships.Error
		we *wizard.Error
		fe *validate.FieldsError
	)
	switch {
	case errors.As(err, &me):
		writeError(w, r, me.Status, me.Code, me.Message, me.Details)
	case errors.As(err, &we):
		writeError(w, r, we.Status, we.Code, we.Message, we.Details)
	case errors.As(err, &fe):
		details := make(map[string]any, len(fe.Fields))
		for k, v := range fe.Fields {
			details[k] = v
		}
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", details)
	default:
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
