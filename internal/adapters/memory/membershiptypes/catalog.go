package membershiptypes

import (
	"context"
	"sort"
	"sync"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
)

// Catalog is an in-memory implementation of membershiptypes.Catalog.
// It is safe for concurrent use.
type Catalog struct {
	mu   sync.RWMutex
	byID map[domain.MembershipTypeID]domain.MembershipType
}

func NewCatalog(types ...domain.MembershipType) *Catalog {
	c := &Catalog{byID: make(map[domain.MembershipTypeID]domain.MembershipType, len(types))}
	for _, t := range types {
		c.byID[t.ID] = cloneType(t)
	}
	return c
}

// NewDefaultCatalog returns a catalog holding the standard membership types.
func NewDefaultCatalog() *Catalog {
	return NewCatalog(DefaultTypes()...)
}

// Put adds or replaces a type.
func (c *Catalog) Put(t domain.MembershipType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[t.ID] = cloneType(t)
}

// ListActive returns active types that can be sold on their own. Upgrade-only
// add-ons are never offered as a base membership.
func (c *Catalog) ListActive(ctx context.Context) ([]domain.MembershipType, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.MembershipType, 0, len(c.byID))
	for _, t := range c.byID {
		if !t.IsActive || t.IsUpgradeOnly {
			continue
		}
		out = append(out, cloneType(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (c *Catalog) GetByID(ctx context.Context, id domain.MembershipTypeID) (domain.MembershipType, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	if !ok {
		return domain.MembershipType{}, membershiptypes.ErrNotFound
	}
	return cloneType(t), nil
}

func cloneType(t domain.MembershipType) domain.MembershipType {
	out := t
	if t.Tier != nil {
		v := *t.Tier
		out.Tier = &v
	}
	return out
}

func tier(t domain.ManufacturerTier) *domain.ManufacturerTier { return &t }

// DefaultTypes mirrors the seed rows of the postgres catalog.
func DefaultTypes() []domain.MembershipType {
	return []domain.MembershipType{
		{ID: "competitor", Name: "Competitor", Category: domain.CategoryCompetitor, PriceCents: 4000, Currency: "USD", IsActive: true, DisplayOrder: 10},
		{ID: "competitor-team", Name: "Competitor + Team", Category: domain.CategoryCompetitor, PriceCents: 5000, Currency: "USD", IncludesTeam: true, IsActive: true, DisplayOrder: 20},
		{ID: "team", Name: "Team", Category: domain.CategoryTeam, PriceCents: 2500, Currency: "USD", IncludesTeam: true, IsActive: true, DisplayOrder: 30},
		{ID: "retailer", Name: "Retailer", Category: domain.CategoryRetail, PriceCents: 10000, Currency: "USD", IsActive: true, DisplayOrder: 40},
		{ID: "manufacturer-bronze", Name: "Manufacturer Bronze", Category: domain.CategoryManufacturer, Tier: tier(domain.ManufacturerTierBronze), PriceCents: 25000, Currency: "USD", IsActive: true, DisplayOrder: 50},
		{ID: "manufacturer-silver", Name: "Manufacturer Silver", Category: domain.CategoryManufacturer, Tier: tier(domain.ManufacturerTierSilver), PriceCents: 50000, Currency: "USD", IsActive: true, DisplayOrder: 60},
		{ID: "manufacturer-gold", Name: "Manufacturer Gold", Category: domain.CategoryManufacturer, Tier: tier(domain.ManufacturerTierGold), PriceCents: 100000, Currency: "USD", IsActive: true, DisplayOrder: 70},
		{ID: "team-upgrade", Name: "Team Upgrade", Category: domain.CategoryCompetitor, PriceCents: 1000, Currency: "USD", IsUpgradeOnly: true, IncludesTeam: true, IsActive: true, DisplayOrder: 80},
	}
}
