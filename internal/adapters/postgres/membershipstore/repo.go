package membershipstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres"
	pgprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/profilestore"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/validate"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

const (
	DefaultMaxSecondaries = 10

	membershipTerm = 365 * 24 * time.Hour
)

// Repo is a Postgres implementation of membershipstore.Repository.
type Repo struct {
	pool           *pgxpool.Pool
	clk            clock.Clock
	maxSecondaries int
}

func NewRepo(pool *pgxpool.Pool, clk clock.Clock, maxSecondaries int) *Repo {
	if maxSecondaries <= 0 {
		maxSecondaries = DefaultMaxSecondaries
	}
	return &Repo{pool: pool, clk: clk, maxSecondaries: maxSecondaries}
}

const membershipSelect = `
	SELECT
		m.id, m.user_id, m.meca_id,
		m.membership_type_id, t.name, t.category, t.is_upgrade_only,
		m.competitor_name, m.has_team_addon, m.payment_status,
		m.account_type, m.master_membership_id, m.has_own_login, m.relationship_to_master,
		m.vehicle_make, m.vehicle_model, m.vehicle_color, m.vehicle_license_plate,
		m.team_name, m.business_name, m.manufacturer_tier,
		m.stripe_subscription_id, m.had_legacy_subscription,
		m.created_at, m.end_date
	FROM memberships m
	JOIN membership_types t ON t.id = m.membership_type_id`

func (r *Repo) ListAll(ctx context.Context) ([]domain.Membership, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, membershipSelect+` ORDER BY m.created_at DESC, m.id ASC`)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

func (r *Repo) GetActiveForUser(ctx context.Context, userID domain.UserID) (domain.Membership, error) {
	if r.pool == nil {
		return domain.Membership{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return domain.Membership{}, membershipstore.ErrNotFound
	}
	rows, err := r.pool.Query(ctx, membershipSelect+`
		WHERE m.user_id = $1
		  AND m.payment_status = 'paid'
		  AND (m.end_date IS NULL OR m.end_date > $2)
		ORDER BY t.is_upgrade_only ASC, m.created_at DESC, m.id ASC
		LIMIT 1
	`, uid, r.clk.Now().UTC())
	if err != nil {
		return domain.Membership{}, err
	}
	ms, err := collectMemberships(rows)
	if err != nil {
		return domain.Membership{}, err
	}
	if len(ms) == 0 {
		return domain.Membership{}, membershipstore.ErrNotFound
	}
	return ms[0], nil
}

func (r *Repo) AdminCreate(ctx context.Context, in membershipstore.AdminCreateInput) (membershipstore.AdminCreateResult, error) {
	if r.pool == nil {
		return membershipstore.AdminCreateResult{}, errors.New("nil postgres pool")
	}
	if err := validate.Struct(in); err != nil {
		return membershipstore.AdminCreateResult{}, err
	}
	ownerID, err := uuid.Parse(string(in.UserID))
	if err != nil {
		return membershipstore.AdminCreateResult{}, fmt.Errorf("membership owner %s: %w", in.UserID, profilestore.ErrNotFound)
	}

	var res membershipstore.AdminCreateResult
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		mt, err := lookupType(ctx, tx, in.MembershipTypeID)
		if err != nil {
			return err
		}

		var (
			firstName, lastName string
			ownerMecaID         *int
		)
		if err := tx.QueryRow(ctx, `SELECT first_name, last_name, meca_id FROM profiles WHERE id = $1`, ownerID).
			Scan(&firstName, &lastName, &ownerMecaID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("membership owner %s: %w", in.UserID, profilestore.ErrNotFound)
			}
			return err
		}

		now := r.clk.Now().UTC()
		end := now.Add(membershipTerm)
		status := in.PaymentMethod.InitialStatus()

		var mecaID *int
		if status == domain.PaymentStatusPaid {
			if ownerMecaID != nil {
				mecaID = ownerMecaID
			} else {
				var next int
				if err := tx.QueryRow(ctx, `SELECT nextval('meca_id_seq')`).Scan(&next); err != nil {
					return err
				}
				mecaID = &next
			}
		}

		competitorName := domain.FullName(firstName, lastName)
		if in.CompetitorName != nil && strings.TrimSpace(*in.CompetitorName) != "" {
			competitorName = domain.NormalizeHumanName(*in.CompetitorName)
		}

		var invoice *string
		if in.CreateInvoice {
			inv := fmt.Sprintf("INV-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:8]))
			invoice = &inv
		}

		m := domain.Membership{
			ID:                 domain.MembershipID(uuid.NewString()),
			UserID:             in.UserID,
			MecaID:             mecaID,
			MembershipTypeID:   mt.ID,
			MembershipTypeName: mt.Name,
			Category:           mt.Category,
			CompetitorName:     competitorName,
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
		if err := insertMembership(ctx, tx, m, insertExtras{
			PaymentMethod:       string(in.PaymentMethod),
			TeamDescription:     in.TeamDescription,
			BusinessWebsite:     in.BusinessWebsite,
			Billing:             in.Billing,
			CheckNumber:         in.CheckNumber,
			ComplimentaryReason: in.ComplimentaryReason,
			Notes:               in.Notes,
			InvoiceNumber:       invoice,
		}); err != nil {
			return err
		}

		res = membershipstore.AdminCreateResult{Membership: m, InvoiceID: invoice}
		if status == domain.PaymentStatusPending {
			res.Message = "Membership created; awaiting payment."
		} else {
			res.Message = "Membership created and marked paid."
		}
		return nil
	})
	if err != nil {
		return membershipstore.AdminCreateResult{}, err
	}
	return res, nil
}

func (r *Repo) CreateSecondary(ctx context.Context, masterID domain.MembershipID, in membershipstore.CreateSecondaryInput) (domain.Membership, error) {
	if r.pool == nil {
		return domain.Membership{}, errors.New("nil postgres pool")
	}
	in.CompetitorName = domain.NormalizeHumanName(in.CompetitorName)
	if err := validate.Struct(in); err != nil {
		return domain.Membership{}, err
	}
	if in.CreateLogin && (in.Email == nil || strings.TrimSpace(*in.Email) == "") {
		return domain.Membership{}, membershipstore.ErrLoginEmailRequired
	}
	mid, err := uuid.Parse(string(masterID))
	if err != nil {
		return domain.Membership{}, membershipstore.ErrNotFound
	}

	var out domain.Membership
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		mt, err := lookupType(ctx, tx, in.MembershipTypeID)
		if err != nil {
			return err
		}

		var (
			masterUser    uuid.UUID
			accountType   *string
			paymentStatus string
			masterEnd     *time.Time
		)
		if err := tx.QueryRow(ctx, `
			SELECT user_id, account_type, payment_status, end_date
			FROM memberships
			WHERE id = $1
			FOR UPDATE
		`, mid).Scan(&masterUser, &accountType, &paymentStatus, &masterEnd); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return membershipstore.ErrNotFound
			}
			return err
		}
		masterType := accountTypeFromDB(accountType)
		if !masterType.CanBeMaster() {
			return membershipstore.ErrMasterNotEligible
		}
		if domain.PaymentStatus(paymentStatus) != domain.PaymentStatusPaid {
			return membershipstore.ErrMasterUnpaid
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM memberships WHERE master_membership_id = $1`, mid).Scan(&count); err != nil {
			return err
		}
		if count >= r.maxSecondaries {
			return membershipstore.ErrSecondaryLimit
		}

		now := r.clk.Now().UTC()
		email := "secondary-" + uuid.NewString() + "@placeholder.meca.local"
		if in.Email != nil {
			email = domain.NormalizeEmail(*in.Email)
		}
		first, last, _ := strings.Cut(in.CompetitorName, " ")
		masterProfile := domain.UserID(masterUser.String())
		profile := domain.Profile{
			ID:                  domain.UserID(uuid.NewString()),
			FirstName:           first,
			LastName:            last,
			Email:               email,
			Role:                domain.RoleUser,
			IsSecondaryAccount:  true,
			MasterProfileID:     &masterProfile,
			ForcePasswordChange: in.CreateLogin,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := pgprofilestore.InsertTx(ctx, tx, profile, nil); err != nil {
			if errors.Is(err, profilestore.ErrEmailTaken) {
				return membershipstore.ErrEmailTaken
			}
			return fmt.Errorf("create secondary profile: %w", err)
		}

		if masterType == domain.AccountTypeIndependent {
			if _, err := tx.Exec(ctx, `UPDATE memberships SET account_type = 'master' WHERE id = $1`, mid); err != nil {
				return err
			}
		}

		end := now.Add(membershipTerm)
		if masterEnd != nil {
			end = masterEnd.UTC()
		}
		rel := in.Relationship
		master := domain.MembershipID(mid.String())
		out = domain.Membership{
			ID:                   domain.MembershipID(uuid.NewString()),
			UserID:               profile.ID,
			MembershipTypeID:     mt.ID,
			MembershipTypeName:   mt.Name,
			Category:             mt.Category,
			CompetitorName:       in.CompetitorName,
			HasTeamAddon:         mt.IncludesTeam,
			PaymentStatus:        domain.PaymentStatusPending,
			AccountType:          domain.AccountTypeSecondary,
			MasterMembershipID:   &master,
			HasOwnLogin:          in.CreateLogin,
			IsUpgradeOnly:        mt.IsUpgradeOnly,
			RelationshipToMaster: &rel,
			Vehicle:              in.Vehicle,
			TeamName:             in.TeamName,
			CreatedAt:            now,
			EndDate:              &end,
		}
		return insertMembership(ctx, tx, out, insertExtras{TeamDescription: in.TeamDescription})
	})
	if err != nil {
		return domain.Membership{}, err
	}
	return out, nil
}

type typeInfo struct {
	ID            domain.MembershipTypeID
	Name          string
	Category      domain.Category
	IsUpgradeOnly bool
	IncludesTeam  bool
}

func lookupType(ctx context.Context, tx pgx.Tx, id domain.MembershipTypeID) (typeInfo, error) {
	var (
		t        typeInfo
		category string
		active   bool
	)
	err := tx.QueryRow(ctx, `
		SELECT name, category, is_upgrade_only, includes_team, is_active
		FROM membership_types
		WHERE id = $1
	`, string(id)).Scan(&t.Name, &category, &t.IsUpgradeOnly, &t.IncludesTeam, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return typeInfo{}, membershipstore.ErrTypeNotFound
		}
		return typeInfo{}, err
	}
	if !active {
		return typeInfo{}, membershipstore.ErrTypeNotFound
	}
	t.ID = id
	t.Category = domain.Category(category)
	return t, nil
}

// insertExtras are persisted columns that the domain record does not carry.
type insertExtras struct {
	PaymentMethod       string
	TeamDescription     *string
	BusinessWebsite     *string
	Billing             *domain.Billing
	CheckNumber         *string
	ComplimentaryReason *string
	Notes               *string
	InvoiceNumber       *string
}

type billingJSON struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func insertMembership(ctx context.Context, tx pgx.Tx, m domain.Membership, x insertExtras) error {
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid membership id: %w", err)
	}
	userID, err := uuid.Parse(string(m.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	var master *uuid.UUID
	if m.MasterMembershipID != nil {
		v, err := uuid.Parse(string(*m.MasterMembershipID))
		if err != nil {
			return fmt.Errorf("invalid master membership id: %w", err)
		}
		master = &v
	}
	var make_, model, color, plate *string
	if m.Vehicle != nil {
		make_, model, color, plate = m.Vehicle.Make, m.Vehicle.Model, m.Vehicle.Color, m.Vehicle.LicensePlate
	}
	var tier *string
	if m.ManufacturerTier != nil {
		v := string(*m.ManufacturerTier)
		tier = &v
	}
	var billing *billingJSON
	if x.Billing != nil {
		b := billingJSON(*x.Billing)
		billing = &b
	}
	var paymentMethod *string
	if x.PaymentMethod != "" {
		paymentMethod = &x.PaymentMethod
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO memberships (
			id, user_id, meca_id, membership_type_id, competitor_name, has_team_addon,
			payment_status, payment_method, account_type, master_membership_id, has_own_login,
			relationship_to_master, vehicle_make, vehicle_model, vehicle_color, vehicle_license_plate,
			team_name, team_description, business_name, business_website, manufacturer_tier,
			billing, check_number, complimentary_reason, notes, invoice_number,
			created_at, end_date
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21,
			$22, $23, $24, $25, $26,
			$27, $28
		)
	`,
		id, userID, m.MecaID, string(m.MembershipTypeID), m.CompetitorName, m.HasTeamAddon,
		string(m.PaymentStatus), paymentMethod, accountTypeToDB(m.AccountType), master, m.HasOwnLogin,
		m.RelationshipToMaster, make_, model, color, plate,
		m.TeamName, x.TeamDescription, m.BusinessName, x.BusinessWebsite, tier,
		billing, x.CheckNumber, x.ComplimentaryReason, x.Notes, x.InvoiceNumber,
		m.CreatedAt.UTC(), m.EndDate,
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
			switch pe.ConstraintName {
			case "memberships_user_id_fkey":
				return fmt.Errorf("membership owner %s: %w", m.UserID, profilestore.ErrNotFound)
			case "memberships_master_membership_id_fkey":
				return membershipstore.ErrNotFound
			case "memberships_membership_type_id_fkey":
				return membershipstore.ErrTypeNotFound
			}
		}
		return err
	}
	return nil
}

func collectMemberships(rows pgx.Rows) ([]domain.Membership, error) {
	defer rows.Close()
	out := make([]domain.Membership, 0)
	for rows.Next() {
		var (
			m                          domain.Membership
			id, userID                 uuid.UUID
			typeID, category, status   string
			accountType, tier          *string
			masterID                   *uuid.UUID
			make_, model, color, plate *string
		)
		if err := rows.Scan(
			&id, &userID, &m.MecaID,
			&typeID, &m.MembershipTypeName, &category, &m.IsUpgradeOnly,
			&m.CompetitorName, &m.HasTeamAddon, &status,
			&accountType, &masterID, &m.HasOwnLogin, &m.RelationshipToMaster,
			&make_, &model, &color, &plate,
			&m.TeamName, &m.BusinessName, &tier,
			&m.StripeSubscriptionID, &m.HadLegacySubscription,
			&m.CreatedAt, &m.EndDate,
		); err != nil {
			return nil, err
		}
		m.ID = domain.MembershipID(id.String())
		m.UserID = domain.UserID(userID.String())
		m.MembershipTypeID = domain.MembershipTypeID(typeID)
		m.Category = domain.Category(category)
		m.PaymentStatus = domain.PaymentStatus(status)
		m.AccountType = accountTypeFromDB(accountType)
		if masterID != nil {
			v := domain.MembershipID(masterID.String())
			m.MasterMembershipID = &v
		}
		if make_ != nil || model != nil || color != nil || plate != nil {
			m.Vehicle = &domain.Vehicle{Make: make_, Model: model, Color: color, LicensePlate: plate}
		}
		if tier != nil {
			v := domain.ManufacturerTier(*tier)
			m.ManufacturerTier = &v
		}
		m.CreatedAt = m.CreatedAt.UTC()
		if m.EndDate != nil {
			v := m.EndDate.UTC()
			m.EndDate = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Legacy rows predate the hierarchy and store NULL.
func accountTypeFromDB(s *string) domain.AccountType {
	if s == nil {
		return domain.AccountTypeLegacy
	}
	return domain.AccountType(*s)
}

func accountTypeToDB(a domain.AccountType) *string {
	if a == domain.AccountTypeLegacy {
		return nil
	}
	s := string(a)
	return &s
}
