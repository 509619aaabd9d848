package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
)

// IdempotencyKeyHeader is optional on mutating requests.
const IdempotencyKeyHeader = "Idempotency-Key"

// idempotent runs handle at most once per operator, key, route and body.
//
//   - Replay if same operator+key+route+bodyHash
//   - Reject if same operator+key+route with different bodyHash (409)
//
// Only successful responses are stored.
func (s *Server) idempotent(w http.ResponseWriter, r *http.Request, route, bodyHash string, handle func() (int, any, error)) {
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" || s.idem == nil {
		status, body, err := handle()
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, status, body)
		return
	}

	op, _ := OperatorFromContext(ctx)
	metaFP := idempotency.Fingerprint{
		Key:      idempotency.Key(key),
		Operator: op,
		Method:   r.Method,
		Route:    route,
		BodyHash: "",
	}
	if meta, ok, err := s.idem.Get(ctx, metaFP); err != nil {
		writeAppError(w, r, err)
		return
	} else if ok {
		if string(meta.Body) != bodyHash {
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
			return
		}
	} else {
		_ = s.idem.Put(ctx, metaFP, idempotency.Record{
			StatusCode:  0,
			ContentType: "text/plain",
			Body:        []byte(bodyHash),
			CreatedAt:   s.clk.Now().UTC(),
		})
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	if rec, ok, err := s.idem.Get(ctx, respFP); err != nil {
		writeAppError(w, r, err)
		return
	} else if ok && rec.StatusCode >= 200 && rec.StatusCode < 300 && strings.HasPrefix(rec.ContentType, "application/json") {
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	}

	status, body, err := handle()
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	b, err := json.Marshal(body)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	_ = s.idem.Put(ctx, respFP, idempotency.Record{
		StatusCode:  status,
		ContentType: "application/json",
		Body:        b,
		CreatedAt:   s.clk.Now().UTC(),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
