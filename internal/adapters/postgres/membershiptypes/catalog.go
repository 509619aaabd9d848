package membershiptypes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
)

// Catalog is a Postgres implementation of membershiptypes.Catalog.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

const typeColumns = `id, name, category, tier, price_cents, currency, is_upgrade_only, includes_team, is_active, display_order`

func (c *Catalog) ListActive(ctx context.Context) ([]domain.MembershipType, error) {
	if c.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := c.pool.Query(ctx, `
		SELECT `+typeColumns+`
		FROM membership_types
		WHERE is_active AND NOT is_upgrade_only
		ORDER BY display_order, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MembershipType, 0)
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (c *Catalog) GetByID(ctx context.Context, id domain.MembershipTypeID) (domain.MembershipType, error) {
	if c.pool == nil {
		return domain.MembershipType{}, errors.New("nil postgres pool")
	}
	t, err := scanType(c.pool.QueryRow(ctx, `SELECT `+typeColumns+` FROM membership_types WHERE id = $1`, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MembershipType{}, membershiptypes.ErrNotFound
		}
		return domain.MembershipType{}, err
	}
	return t, nil
}

func scanType(row pgx.Row) (domain.MembershipType, error) {
	var (
		t        domain.MembershipType
		id       string
		category string
		tier     *string
	)
	if err := row.Scan(
		&id,
		&t.Name,
		&category,
		&tier,
		&t.PriceCents,
		&t.Currency,
		&t.IsUpgradeOnly,
		&t.IncludesTeam,
		&t.IsActive,
		&t.DisplayOrder,
	); err != nil {
		return domain.MembershipType{}, err
	}
	t.ID = domain.MembershipTypeID(id)
	t.Category = domain.Category(category)
	if tier != nil {
		mt := domain.ManufacturerTier(*tier)
		t.Tier = &mt
	}
	return t, nil
}
