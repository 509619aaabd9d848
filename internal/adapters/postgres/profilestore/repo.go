package profilestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	postgres "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/validate"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

// Repo is a Postgres implementation of profilestore.Repository.
type Repo struct {
	pool     *pgxpool.Pool
	clk      clock.Clock
	hashCost int
}

func NewRepo(pool *pgxpool.Pool, clk clock.Clock) *Repo {
	return &Repo{pool: pool, clk: clk, hashCost: bcrypt.DefaultCost}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (r *Repo) WithHashCost(cost int) *Repo {
	r.hashCost = cost
	return r
}

const profileColumns = `
	id, first_name, last_name, email, phone, meca_id, role,
	is_secondary_account, master_profile_id, force_password_change,
	created_at, updated_at`

func (r *Repo) ListMembers(ctx context.Context) ([]domain.Profile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Profile{}, profilestore.ErrNotFound
	}
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, uid)
	if err != nil {
		return domain.Profile{}, err
	}
	ps, err := collectProfiles(rows)
	if err != nil {
		return domain.Profile{}, err
	}
	if len(ps) == 0 {
		return domain.Profile{}, profilestore.ErrNotFound
	}
	return ps[0], nil
}

// Search requires every whitespace-separated token to appear in the name,
// email or MECA ID. Matching is case-insensitive.
func (r *Repo) Search(ctx context.Context, query string, limit int) ([]domain.Profile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	tokens := strings.Fields(strings.TrimSpace(query))
	if len(tokens) == 0 {
		return []domain.Profile{}, nil
	}
	patterns := make([]string, 0, len(tokens))
	for _, t := range tokens {
		patterns = append(patterns, "%"+escapeLike(t)+"%")
	}

	sql := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE (
			SELECT bool_and(
				(first_name || ' ' || last_name || ' ' || email || ' ' || coalesce(meca_id::text, '')) ILIKE p
			)
			FROM unnest($1::text[]) AS p
		)
		ORDER BY lower(last_name), lower(first_name), id`
	args := []any{patterns}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

func (r *Repo) CreateWithPassword(ctx context.Context, in profilestore.CreateWithPasswordInput) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	in.Email = domain.NormalizeEmail(in.Email)
	in.FirstName = domain.NormalizeHumanName(in.FirstName)
	in.LastName = domain.NormalizeHumanName(in.LastName)
	if err := validate.Struct(in); err != nil {
		return domain.Profile{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), r.hashCost)
	if err != nil {
		return domain.Profile{}, err
	}

	now := r.clk.Now().UTC()
	p := domain.Profile{
		ID:                  domain.UserID(uuid.NewString()),
		FirstName:           in.FirstName,
		LastName:            in.LastName,
		Email:               in.Email,
		Phone:               in.Phone,
		MecaID:              in.MecaID,
		Role:                in.Role,
		ForcePasswordChange: in.ForcePasswordChange,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := InsertTx(ctx, r.pool, p, hash); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// CheckPassword reports whether password matches the stored hash for id.
func (r *Repo) CheckPassword(ctx context.Context, id domain.UserID, password string) (bool, error) {
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return false, profilestore.ErrNotFound
	}
	var hash []byte
	if err := r.pool.QueryRow(ctx, `SELECT password_hash FROM profiles WHERE id = $1`, uid).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, profilestore.ErrNotFound
		}
		return false, err
	}
	if hash == nil {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return err == nil, err
}

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// InsertTx inserts p (and its password hash, if any) using e. The membership
// store calls it inside its own transaction when it creates a secondary profile.
func InsertTx(ctx context.Context, e Execer, p domain.Profile, passwordHash []byte) error {
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid profile id: %w", err)
	}
	var master *uuid.UUID
	if p.MasterProfileID != nil {
		m, err := uuid.Parse(string(*p.MasterProfileID))
		if err != nil {
			return fmt.Errorf("invalid master profile id: %w", err)
		}
		master = &m
	}
	_, err = e.Exec(ctx, `
		INSERT INTO profiles (
			id, first_name, last_name, email, phone, meca_id, role, password_hash,
			is_secondary_account, master_profile_id, force_password_change,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		id,
		p.FirstName,
		p.LastName,
		domain.NormalizeEmail(p.Email),
		p.Phone,
		p.MecaID,
		string(p.Role),
		passwordHash,
		p.IsSecondaryAccount,
		master,
		p.ForcePasswordChange,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "profiles_email_unique":
				return profilestore.ErrEmailTaken
			case "profiles_pkey", "profiles_meca_id_unique":
				return profilestore.ErrAlreadyExists
			default:
				return err
			}
		}
		return err
	}
	return nil
}

func collectProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	defer rows.Close()
	out := make([]domain.Profile, 0)
	for rows.Next() {
		var (
			p        domain.Profile
			id       uuid.UUID
			role     string
			masterID *uuid.UUID
		)
		if err := rows.Scan(
			&id,
			&p.FirstName,
			&p.LastName,
			&p.Email,
			&p.Phone,
			&p.MecaID,
			&role,
			&p.IsSecondaryAccount,
			&masterID,
			&p.ForcePasswordChange,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.ID = domain.UserID(id.String())
		p.Role = domain.Role(role)
		if masterID != nil {
			m := domain.UserID(masterID.String())
			p.MasterProfileID = &m
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
