// Package query is the read side: supply listings with derived stock
// levels, dashboard aggregates and transaction history. It never writes.
package query

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/cache"
	"ems-inventory/internal/models"
	"ems-inventory/internal/stock"

	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	cache cache.Cache
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, c cache.Cache, opts ...Option) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	s := &Service{db: db, cache: c, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type SupplyView struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	CategoryID      uint      `json:"category_id"`
	CategoryName    string    `json:"category_name"`
	CurrentQuantity int       `json:"current_quantity"`
	MinThreshold    int       `json:"min_threshold"`
	Unit            string    `json:"unit"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	LastUpdated     time.Time `json:"last_updated"`
	stock.Level
}

// NewSupplyView attaches the derived stock level to s.
func NewSupplyView(s models.Supply) SupplyView {
	v := SupplyView{
		ID:              s.ID,
		Name:            s.Name,
		CategoryID:      s.CategoryID,
		CurrentQuantity: s.CurrentQuantity,
		MinThreshold:    s.MinThreshold,
		Unit:            s.Unit,
		Location:        s.Location,
		Description:     s.Description,
		CreatedAt:       s.CreatedAt,
		LastUpdated:     s.LastUpdated,
		Level:           stock.Derive(s.CurrentQuantity, s.MinThreshold),
	}
	if s.Category != nil {
		v.CategoryName = s.Category.Name
	}
	return v
}

type Filter struct {
	CategoryID uint
	Status     stock.Status
	Search     string // case-insensitive match on name, category or location
}

func (f Filter) match(v SupplyView) bool {
	if f.CategoryID != 0 && v.CategoryID != f.CategoryID {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(v.Name), q) ||
			strings.Contains(strings.ToLower(v.CategoryName), q) ||
			strings.Contains(strings.ToLower(v.Location), q)
	}
	return true
}

func (s *Service) ListSupplies(ctx context.Context, f Filter) ([]SupplyView, error) {
	all, err := s.loadSupplies(ctx, f.CategoryID)
	if err != nil {
		return nil, err
	}
	out := make([]SupplyView, 0, len(all))
	for _, v := range all {
		if f.match(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Service) GetSupply(ctx context.Context, id uint) (*SupplyView, error) {
	var sup models.Supply
	if err := s.db.WithContext(ctx).Preload("Category").First(&sup, id).Error; err != nil {
		return nil, apperr.Storage(err, "Supply")
	}
	v := NewSupplyView(sup)
	return &v, nil
}

// FindSupplyByName resolves a supply by exact, case-insensitive name.
func (s *Service) FindSupplyByName(ctx context.Context, name string) (*SupplyView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("supply_name is required")
	}
	var sup models.Supply
	err := s.db.WithContext(ctx).Preload("Category").
		Where("LOWER(name) = LOWER(?)", name).
		First(&sup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Supply %q not found in inventory", name)
	}
	if err != nil {
		return nil, apperr.Storage(err, "Supply")
	}
	v := NewSupplyView(sup)
	return &v, nil
}

// ListLowStock returns supplies that are out of stock, low or medium,
// most depleted first.
func (s *Service) ListLowStock(ctx context.Context) ([]SupplyView, error) {
	all, err := s.loadSupplies(ctx, 0)
	if err != nil {
		return nil, err
	}
	return lowStock(all), nil
}

func lowStock(all []SupplyView) []SupplyView {
	out := make([]SupplyView, 0)
	for _, v := range all {
		if v.Status.NeedsAttention() {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri := stock.Ratio(out[i].CurrentQuantity, out[i].MinThreshold)
		rj := stock.Ratio(out[j].CurrentQuantity, out[j].MinThreshold)
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type CategoryView struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	SupplyCount int64     `json:"supply_count"`
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryView, error) {
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, apperr.Storage(err, "Category")
	}
	var counts []struct {
		CategoryID uint
		N          int64
	}
	err := s.db.WithContext(ctx).Model(&models.Supply{}).
		Select("category_id, COUNT(*) AS n").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, apperr.Storage(err, "Category")
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.N
	}

	out := make([]CategoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryView{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, SupplyCount: byID[c.ID]})
	}
	return out, nil
}

func (s *Service) GetCategory(ctx context.Context, id uint) (*CategoryView, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, apperr.Storage(err, "Category")
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Supply{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return nil, apperr.Storage(err, "Category")
	}
	return &CategoryView{ID: cat.ID, Name: cat.Name, CreatedAt: cat.CreatedAt, SupplyCount: n}, nil
}

// FindCategoryByName resolves a category by exact, case-insensitive name.
func (s *Service) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&cat).Error
	if err != nil {
		return nil, apperr.Storage(err, "Category")
	}
	return &cat, nil
}

func (s *Service) loadSupplies(ctx context.Context, categoryID uint) ([]SupplyView, error) {
	q := s.db.WithContext(ctx).Preload("Category").Order("name ASC")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var rows []models.Supply
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperr.Storage(err, "Supply")
	}
	out := make([]SupplyView, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewSupplyView(r))
	}
	return out, nil
}

// cached serves key from the cache or computes and stores it. The entry is
// stored under the generation read before computing, so a result that raced
// a ledger write lands in an orphaned generation. Cache errors fall back to
// recomputing.
func cached[T any](ctx context.Context, s *Service, key string, compute func() (T, error)) (T, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		log.Printf("[WARN] cache generation: %v", err)
		return compute()
	}
	key = fmt.Sprintf("%s@%d", key, gen)

	var v T
	ok, err := s.cache.Get(ctx, key, &v)
	if err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	}
	if ok && err == nil {
		return v, nil
	}

	v, err = compute()
	if err != nil {
		return v, err
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return v, nil
}
