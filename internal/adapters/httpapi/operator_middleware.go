package httpapi

import (
	"net/http"
	"strings"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/logging"
)

// OperatorHeader names the console operator making the request.
const OperatorHeader = "X-Operator"

// NewOperatorMiddleware identifies the console operator for every API request.
//
// The operator is taken from X-Operator. If the header is absent it falls back
// to defaultOperator (if provided). Authentication itself is handled in front
// of this service.
func NewOperatorMiddleware(defaultOperator string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op := strings.TrimSpace(r.Header.Get(OperatorHeader))
			if op == "" {
				op = strings.TrimSpace(defaultOperator)
			}
			if op == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing operator (set X-Operator)", nil)
				return
			}

			ctx := WithOperator(r.Context(), domain.OperatorID(op))
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithField("operator", op))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
