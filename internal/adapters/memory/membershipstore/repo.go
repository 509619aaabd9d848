package membershipstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/validate"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

const (
	DefaultMaxSecondaries = 10
	DefaultFirstMecaID    = 700001

	membershipTerm = 365 * 24 * time.Hour
)

// ProfileWriter is the part of the profile store this repo needs to create
// secondary profiles.
type ProfileWriter interface {
	GetByID(ctx context.Context, id domain.UserID) (domain.Profile, error)
	Insert(ctx context.Context, p domain.Profile) error
}

type Options struct {
	MaxSecondaries int
	FirstMecaID    int
}

// Repo is an in-memory implementation of membershipstore.Repository.
// It is safe for concurrent use.
type Repo struct {
	clk      clock.Clock
	types    membershiptypes.Catalog
	profiles ProfileWriter
	opts     Options

	mu         sync.RWMutex
	byID       map[domain.MembershipID]domain.Membership
	nextMecaID int
	invoiceSeq int
}

func NewRepo(clk clock.Clock, types membershiptypes.Catalog, profiles ProfileWriter, opts Options) *Repo {
	if opts.MaxSecondaries <= 0 {
		opts.MaxSecondaries = DefaultMaxSecondaries
	}
	if opts.FirstMecaID <= 0 {
		opts.FirstMecaID = DefaultFirstMecaID
	}
	return &Repo{
		clk:        clk,
		types:      types,
		profiles:   profiles,
		opts:       opts,
		byID:       make(map[domain.MembershipID]domain.Membership),
		nextMecaID: opts.FirstMecaID,
	}
}

// Insert stores a record as given, for seeding and imports. Unlike the create
// operations it does not check the hierarchy rules, so inconsistent data
// (such as a secondary whose master is gone) can be represented.
func (r *Repo) Insert(ctx context.Context, m domain.Membership) error {
	_ = ctx
	if m.ID == "" {
		return errors.New("membership id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; ok {
		return fmt.Errorf("membership %s already exists", m.ID)
	}
	r.byID[m.ID] = m.Clone()
	if m.MecaID != nil && *m.MecaID >= r.nextMecaID {
		r.nextMecaID = *m.MecaID + 1
	}
	return nil
}

func (r *Repo) ListAll(ctx context.Context) ([]domain.Membership, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Membership, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

// GetActiveForUser returns the user's newest paid, unexpired membership,
// preferring a base membership over an upgrade-only add-on.
func (r *Repo) GetActiveForUser(ctx context.Context, userID domain.UserID) (domain.Membership, error) {
	_ = ctx
	now := r.clk.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []domain.Membership
	for _, m := range r.byID {
		if m.UserID != userID || m.PaymentStatus != domain.PaymentStatusPaid {
			continue
		}
		if m.EndDate != nil && !m.EndDate.After(now) {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 0 {
		return domain.Membership{}, membershipstore.ErrNotFound
	}
	sortNewestFirst(candidates)
	for _, m := range candidates {
		if !m.IsUpgradeOnly {
			return m.Clone(), nil
		}
	}
	return candidates[0].Clone(), nil
}

func (r *Repo) AdminCreate(ctx context.Context, in membershipstore.AdminCreateInput) (membershipstore.AdminCreateResult, error) {
	if err := validate.Struct(in); err != nil {
		return membershipstore.AdminCreateResult{}, err
	}
	mt, err := r.lookupType(ctx, in.MembershipTypeID)
	if err != nil {
		return membershipstore.AdminCreateResult{}, err
	}
	owner, err := r.profiles.GetByID(ctx, in.UserID)
	if err != nil {
		return membershipstore.AdminCreateResult{}, fmt.Errorf("membership owner %s: %w", in.UserID, err)
	}

	now := r.clk.Now()
	end := now.Add(membershipTerm)
	status := in.PaymentMethod.InitialStatus()

	m := domain.Membership{
		ID:                 domain.MembershipID(uuid.NewString()),
		UserID:             in.UserID,
		MembershipTypeID:   mt.ID,
		MembershipTypeName: mt.Name,
		Category:           mt.Category,
		CompetitorName:     competitorName(in.CompetitorName, owner),
		HasTeamAddon:       in.HasTeamAddon || mt.IncludesTeam,
		PaymentStatus:      status,
		AccountType:        domain.AccountTypeIndependent,
		IsUpgradeOnly:      mt.IsUpgradeOnly,
		Vehicle:            in.Vehicle,
		TeamName:           in.TeamName,
		BusinessName:       in.BusinessName,
		ManufacturerTier:   in.ManufacturerTier,
		CreatedAt:          now,
		EndDate:            &end,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if status == domain.PaymentStatusPaid {
		id := r.assignMecaIDLocked(owner)
		m.MecaID = &id
	}
	r.byID[m.ID] = m.Clone()

	res := membershipstore.AdminCreateResult{Membership: m.Clone()}
	if in.CreateInvoice {
		r.invoiceSeq++
		inv := fmt.Sprintf("INV-%d-%06d", now.Year(), r.invoiceSeq)
		res.InvoiceID = &inv
	}
	if status == domain.PaymentStatusPending {
		res.Message = "Membership created; awaiting payment."
	} else {
		res.Message = "Membership created and marked paid."
	}
	return res, nil
}

func (r *Repo) CreateSecondary(ctx context.Context, masterID domain.MembershipID, in membershipstore.CreateSecondaryInput) (domain.Membership, error) {
	in.CompetitorName = domain.NormalizeHumanName(in.CompetitorName)
	if err := validate.Struct(in); err != nil {
		return domain.Membership{}, err
	}
	if in.CreateLogin && (in.Email == nil || strings.TrimSpace(*in.Email) == "") {
		return domain.Membership{}, membershipstore.ErrLoginEmailRequired
	}
	mt, err := r.lookupType(ctx, in.MembershipTypeID)
	if err != nil {
		return domain.Membership{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	master, ok := r.byID[masterID]
	if !ok {
		return domain.Membership{}, membershipstore.ErrNotFound
	}
	if !master.AccountType.CanBeMaster() {
		return domain.Membership{}, membershipstore.ErrMasterNotEligible
	}
	if master.PaymentStatus != domain.PaymentStatusPaid {
		return domain.Membership{}, membershipstore.ErrMasterUnpaid
	}
	if r.secondaryCountLocked(masterID) >= r.opts.MaxSecondaries {
		return domain.Membership{}, membershipstore.ErrSecondaryLimit
	}

	now := r.clk.Now()
	email := placeholderEmail()
	if in.Email != nil {
		email = domain.NormalizeEmail(*in.Email)
	}
	first, last := splitName(in.CompetitorName)
	masterUser := master.UserID
	profile := domain.Profile{
		ID:                  domain.UserID(uuid.NewString()),
		FirstName:           first,
		LastName:            last,
		Email:               email,
		Role:                domain.RoleUser,
		IsSecondaryAccount:  true,
		MasterProfileID:     &masterUser,
		ForcePasswordChange: in.CreateLogin,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := r.profiles.Insert(ctx, profile); err != nil {
		if errors.Is(err, profilestore.ErrEmailTaken) {
			return domain.Membership{}, membershipstore.ErrEmailTaken
		}
		return domain.Membership{}, fmt.Errorf("create secondary profile: %w", err)
	}

	if master.AccountType == domain.AccountTypeIndependent {
		master.AccountType = domain.AccountTypeMaster
		r.byID[master.ID] = master
	}

	end := now.Add(membershipTerm)
	if master.EndDate != nil {
		end = *master.EndDate
	}
	rel := in.Relationship
	mid := master.ID
	s := domain.Membership{
		ID:                   domain.MembershipID(uuid.NewString()),
		UserID:               profile.ID,
		MembershipTypeID:     mt.ID,
		MembershipTypeName:   mt.Name,
		Category:             mt.Category,
		CompetitorName:       in.CompetitorName,
		HasTeamAddon:         mt.IncludesTeam,
		PaymentStatus:        domain.PaymentStatusPending,
		AccountType:          domain.AccountTypeSecondary,
		MasterMembershipID:   &mid,
		HasOwnLogin:          in.CreateLogin,
		IsUpgradeOnly:        mt.IsUpgradeOnly,
		RelationshipToMaster: &rel,
		Vehicle:              in.Vehicle,
		TeamName:             in.TeamName,
		CreatedAt:            now,
		EndDate:              &end,
	}
	r.byID[s.ID] = s.Clone()
	return s.Clone(), nil
}

func (r *Repo) lookupType(ctx context.Context, id domain.MembershipTypeID) (domain.MembershipType, error) {
	mt, err := r.types.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, membershiptypes.ErrNotFound) {
			return domain.MembershipType{}, membershipstore.ErrTypeNotFound
		}
		return domain.MembershipType{}, err
	}
	if !mt.IsActive {
		return domain.MembershipType{}, membershipstore.ErrTypeNotFound
	}
	return mt, nil
}

// assignMecaIDLocked reuses a MECA ID the owner already carries, or takes the next one.
func (r *Repo) assignMecaIDLocked(owner domain.Profile) int {
	if owner.MecaID != nil {
		return *owner.MecaID
	}
	id := r.nextMecaID
	r.nextMecaID++
	return id
}

func (r *Repo) secondaryCountLocked(masterID domain.MembershipID) int {
	n := 0
	for _, m := range r.byID {
		if m.MasterMembershipID != nil && *m.MasterMembershipID == masterID {
			n++
		}
	}
	return n
}

func sortNewestFirst(ms []domain.Membership) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.After(ms[j].CreatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}

func competitorName(in *string, owner domain.Profile) string {
	if in != nil && strings.TrimSpace(*in) != "" {
		return domain.NormalizeHumanName(*in)
	}
	return owner.FullName()
}

func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(full, " ")
	return first, last
}

func placeholderEmail() string {
	return "secondary-" + uuid.NewString() + "@placeholder.meca.local"
}
