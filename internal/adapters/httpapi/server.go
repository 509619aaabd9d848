package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mecajames/NewMECAV2-sub005/internal/app/memberships"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/wizard"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/validate"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

// maxBodyBytes bounds request bodies; the largest is a full wizard form.
const maxBodyBytes = 1 << 20

type Deps struct {
	Memberships     *memberships.Service
	Types           membershiptypes.Catalog
	Profiles        profilestore.Repository
	MembershipStore membershipstore.Repository
	Search          *wizard.MasterSearch
	Submitter       *wizard.Submitter
	Policy          wizard.Policy
	// Idem is optional. Without it Idempotency-Key headers are ignored.
	Idem           idempotency.Store
	Clock          clock.Clock
	SearchDebounce time.Duration
}

type Server struct {
	memberships     *memberships.Service
	types           membershiptypes.Catalog
	profiles        profilestore.Repository
	membershipStore membershipstore.Repository
	submitter       *wizard.Submitter
	policy          wizard.Policy
	idem            idempotency.Store
	clk             clock.Clock

	live *liveSearches
}

func NewServer(d Deps) *Server {
	return &Server{
		memberships:     d.Memberships,
		types:           d.Types,
		profiles:        d.Profiles,
		membershipStore: d.MembershipStore,
		submitter:       d.Submitter,
		policy:          d.Policy,
		idem:            d.Idem,
		clk:             d.Clock,
		live:            newLiveSearches(d.Search, d.SearchDebounce),
	}
}

// Close stops every pending master search. Requests still waiting on one are
// answered as stale.
func (s *Server) Close() {
	s.live.closeAll()
}

// liveSearches keeps one debounced master search per operator, so typing in
// one console never cancels another operator's search.
type liveSearches struct {
	search *wizard.MasterSearch
	delay  time.Duration

	mu     sync.Mutex
	byOp   map[domain.OperatorID]*liveSearch
	closed bool
}

type liveSearch struct {
	ls *wizard.LiveMasterSearch
	// superseded is closed when a newer request from the same operator arrives.
	superseded chan struct{}
}

func newLiveSearches(search *wizard.MasterSearch, delay time.Duration) *liveSearches {
	return &liveSearches{
		search: search,
		delay:  delay,
		byOp:   make(map[domain.OperatorID]*liveSearch),
	}
}

// submit schedules query for op and returns a channel that is closed when the
// request is superseded. ok is false after closeAll.
func (l *liveSearches) submit(ctx context.Context, op domain.OperatorID, query string, commit func([]wizard.MasterCandidate, error)) (<-chan struct{}, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, false
	}
	cur, ok := l.byOp[op]
	if !ok {
		cur = &liveSearch{ls: wizard.NewLiveMasterSearch(l.search, l.delay)}
		l.byOp[op] = cur
	}
	if cur.superseded != nil {
		close(cur.superseded)
	}
	sup := make(chan struct{})
	cur.superseded = sup
	cur.ls.Type(ctx, query, commit)
	return sup, true
}

func (l *liveSearches) closeAll() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	all := make([]*liveSearch, 0, len(l.byOp))
	for _, cur := range l.byOp {
		if cur.superseded != nil {
			close(cur.superseded)
			cur.superseded = nil
		}
		all = append(all, cur)
	}
	l.mu.Unlock()

	for _, cur := range all {
		cur.ls.Stop()
	}
}

var errEmptyBody = errors.New("missing request body")

// decodeBody reads a JSON body into v and checks its validate tags.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return validate.Struct(v)
}

// writeDecodeError reports a body that could not be read as 422.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *validate.FieldsError
	if errors.As(err, &fe) {
		writeAppError(w, r, err)
		return
	}
	writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
}
