package memberships

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/logging"
	clockport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

type Service struct {
	profiles    profilestore.Repository
	memberships membershipstore.Repository
	clk         clockport.Clock
}

func NewService(profiles profilestore.Repository, memberships membershipstore.Repository, clk clockport.Clock) *Service {
	return &Service{
		profiles:    profiles,
		memberships: memberships,
		clk:         clk,
	}
}

// Roster loads profiles and memberships and builds the display model.
// Orphaned secondaries are logged and counted, never dropped.
func (s *Service) Roster(ctx context.Context) (Roster, error) {
	var (
		profiles []domain.Profile
		records  []domain.Membership
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ps, err := s.profiles.ListMembers(gctx)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		profiles = ps
		return nil
	})
	g.Go(func() error {
		ms, err := s.memberships.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("list memberships: %w", err)
		}
		records = ms
		return nil
	})
	if err := g.Wait(); err != nil {
		recordRosterBuild(err, 0)
		logging.FromContext(ctx).WithError(err).Error("roster load failed")
		return Roster{}, err
	}

	r := Build(profiles, records)
	recordRosterBuild(nil, len(r.Orphans))
	reportOrphans(ctx, r.Orphans)
	return r, nil
}

// ListMembers returns the filtered, sorted member rows.
func (s *Service) ListMembers(ctx context.Context, q Query) ([]MemberView, error) {
	r, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(r.Members, q, s.clk.Now()), nil
}

// OrphanReport lists secondaries whose master is missing so an operator can relink them.
func (s *Service) OrphanReport(ctx context.Context) ([]SecondaryInfo, error) {
	r, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}
	return r.Orphans, nil
}

func reportOrphans(ctx context.Context, orphans []SecondaryInfo) {
	if len(orphans) == 0 {
		return
	}
	log := logging.FromContext(ctx)
	for _, o := range orphans {
		master := ""
		if o.MasterMembershipID != nil {
			master = string(*o.MasterMembershipID)
		}
		log.WithFields(logrus.Fields{
			"membership_id":        string(o.ID),
			"master_membership_id": master,
			"user_id":              string(o.UserID),
		}).Warn("secondary membership has no surviving master")
	}
}
