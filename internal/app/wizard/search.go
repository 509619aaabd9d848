package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/logging"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

const (
	DefaultMasterSearchLimit = 5
	minMasterQueryLen        = 2
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// MasterSearch finds memberships a new secondary can be linked to.
type MasterSearch struct {
	profiles    profilestore.Repository
	memberships membershipstore.Repository
	limit       int
}

func NewMasterSearch(profiles profilestore.Repository, memberships membershipstore.Repository, limit int) *MasterSearch {
	if limit <= 0 {
		limit = DefaultMasterSearchLimit
	}
	return &MasterSearch{profiles: profiles, memberships: memberships, limit: limit}
}

// Find matches the query against profile name and email, keeping only the
// first few profiles whose active membership has a MECA ID and may act as a
// master. A purely numeric query also matches a membership's MECA ID exactly.
// Queries shorter than two characters return no candidates.
func (s *MasterSearch) Find(ctx context.Context, query string) ([]MasterCandidate, error) {
	q := strings.TrimSpace(query)
	if q == "" || len(query) < minMasterQueryLen {
		return []MasterCandidate{}, nil
	}

	profiles, err := s.profiles.Search(ctx, q, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}

	log := logging.FromContext(ctx)
	out := make([]MasterCandidate, 0, len(profiles))
	seen := make(map[domain.MembershipID]struct{})
	for _, p := range profiles {
		m, err := s.memberships.GetActiveForUser(ctx, p.ID)
		if err != nil {
			if !errors.Is(err, membershipstore.ErrNotFound) {
				log.WithError(err).WithField("user_id", string(p.ID)).Debug("master search: active membership lookup failed")
			}
			continue
		}
		if !eligibleMaster(m) {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, MasterCandidate{Membership: m, Profile: p})
	}

	if digitsOnly.MatchString(q) {
		if c, ok := s.byMecaID(ctx, q, log); ok {
			if _, dup := seen[c.Membership.ID]; !dup {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (s *MasterSearch) byMecaID(ctx context.Context, q string, log *logrus.Entry) (MasterCandidate, bool) {
	want, err := strconv.Atoi(q)
	if err != nil {
		return MasterCandidate{}, false
	}
	all, err := s.memberships.ListAll(ctx)
	if err != nil {
		log.WithError(err).Debug("master search: list memberships failed")
		return MasterCandidate{}, false
	}
	for _, m := range all {
		if m.MecaID == nil || *m.MecaID != want {
			continue
		}
		if !m.AccountType.CanBeMaster() {
			return MasterCandidate{}, false
		}
		p, err := s.profiles.GetByID(ctx, m.UserID)
		if err != nil {
			return MasterCandidate{}, false
		}
		return MasterCandidate{Membership: m, Profile: p}, true
	}
	return MasterCandidate{}, false
}

func eligibleMaster(m domain.Membership) bool {
	return m.MecaID != nil && m.AccountType.CanBeMaster()
}
