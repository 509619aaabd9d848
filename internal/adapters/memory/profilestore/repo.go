package profilestore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/validate"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

// Repo is an in-memory implementation of profilestore.Repository.
// It is safe for concurrent use.
type Repo struct {
	clk      clock.Clock
	hashCost int

	mu sync.RWMutex

	byID         map[domain.UserID]domain.Profile
	idByEmail    map[string]domain.UserID
	idByMecaID   map[int]domain.UserID
	passwordHash map[domain.UserID][]byte
}

func NewRepo(clk clock.Clock) *Repo {
	return &Repo{
		clk:          clk,
		hashCost:     bcrypt.DefaultCost,
		byID:         make(map[domain.UserID]domain.Profile),
		idByEmail:    make(map[string]domain.UserID),
		idByMecaID:   make(map[int]domain.UserID),
		passwordHash: make(map[domain.UserID][]byte),
	}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (r *Repo) WithHashCost(cost int) *Repo {
	r.hashCost = cost
	return r
}

func (r *Repo) ListMembers(ctx context.Context) ([]domain.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, profilestore.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *Repo) Search(ctx context.Context, query string, limit int) ([]domain.Profile, error) {
	_ = ctx

	fold := cases.Fold()
	qTokens := tokenize(query, fold)
	if len(qTokens) == 0 {
		return []domain.Profile{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Profile, 0)
	for _, p := range r.byID {
		if matchesAllTokens(haystack(p, fold), qTokens) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := fold.String(out[i].LastName), fold.String(out[j].LastName)
		if li != lj {
			return li < lj
		}
		fi, fj := fold.String(out[i].FirstName), fold.String(out[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repo) CreateWithPassword(ctx context.Context, in profilestore.CreateWithPasswordInput) (domain.Profile, error) {
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

	now := r.clk.Now()
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

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insertLocked(p); err != nil {
		return domain.Profile{}, err
	}
	r.passwordHash[p.ID] = hash
	return p.Clone(), nil
}

// Insert stores a profile as given. It is used for secondary profiles and for seeding.
func (r *Repo) Insert(ctx context.Context, p domain.Profile) error {
	_ = ctx
	p.Email = domain.NormalizeEmail(p.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(p)
}

// CheckPassword reports whether password matches the stored hash for id.
func (r *Repo) CheckPassword(ctx context.Context, id domain.UserID, password string) (bool, error) {
	_ = ctx
	r.mu.RLock()
	hash, ok := r.passwordHash[id]
	r.mu.RUnlock()
	if !ok {
		return false, profilestore.ErrNotFound
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) insertLocked(p domain.Profile) error {
	if p.ID == "" {
		return profilestore.ErrAlreadyExists
	}
	if _, ok := r.byID[p.ID]; ok {
		return profilestore.ErrAlreadyExists
	}
	if _, ok := r.idByEmail[p.Email]; ok {
		return profilestore.ErrEmailTaken
	}
	if p.MecaID != nil {
		if _, ok := r.idByMecaID[*p.MecaID]; ok {
			return profilestore.ErrAlreadyExists
		}
		r.idByMecaID[*p.MecaID] = p.ID
	}
	r.byID[p.ID] = p.Clone()
	r.idByEmail[p.Email] = p.ID
	return nil
}

func haystack(p domain.Profile, fold cases.Caser) string {
	parts := []string{p.FirstName, p.LastName, p.Email}
	if p.MecaID != nil {
		parts = append(parts, strconv.Itoa(*p.MecaID))
	}
	return fold.String(strings.Join(parts, " "))
}

func tokenize(s string, fold cases.Caser) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(fold.String(s))
}

func matchesAllTokens(hay string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}
