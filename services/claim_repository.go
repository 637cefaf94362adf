// services/claim_repository.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"item-claim-system/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// ClaimRepository is the append-only claim store. Create must reject a second claim
// for the same order id with ErrDuplicateOrder, whatever Exists said earlier.
type ClaimRepository interface {
	Exists(ctx context.Context, orderID string) (bool, error)
	Create(ctx context.Context, claim *models.Claim) (*models.Claim, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Claim, error)
	ListByEmail(ctx context.Context, email string) ([]models.Claim, error)
	ListCreatedAfter(ctx context.Context, after time.Time, limit int) ([]models.Claim, error)
	Ping(ctx context.Context) error
}

type GormClaimRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{DB: db, now: time.Now}
}

func (r *GormClaimRepository) Exists(ctx context.Context, orderID string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Claim{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count claims for order %s: %w", orderID, err)
	}
	return count > 0, nil
}

func (r *GormClaimRepository) Create(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	stored := *claim
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC()

	if err := r.DB.WithContext(ctx).Create(&stored).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOrder
		}
		return nil, fmt.Errorf("insert claim for order %s: %w", claim.OrderID, err)
	}
	return &stored, nil
}

func (r *GormClaimRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Claim, error) {
	var claim models.Claim
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("find claim for order %s: %w", orderID, err)
	}
	return &claim, nil
}

func (r *GormClaimRepository) ListByEmail(ctx context.Context, email string) ([]models.Claim, error) {
	var claims []models.Claim
	if err := r.DB.WithContext(ctx).Where("email = ?", email).Order("created_at ASC").Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("list claims by email: %w", err)
	}
	return claims, nil
}

func (r *GormClaimRepository) ListCreatedAfter(ctx context.Context, after time.Time, limit int) ([]models.Claim, error) {
	var claims []models.Claim
	if err := r.DB.WithContext(ctx).
		Where("created_at > ?", after).
		Order("created_at ASC").
		Limit(limit).
		Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("list claims after %s: %w", after.Format(time.RFC3339), err)
	}
	return claims, nil
}

func (r *GormClaimRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// MemoryClaimRepository keeps claims in process memory. Used for local runs without
// Postgres and in tests; uniqueness is checked under the same lock as the insert.
type MemoryClaimRepository struct {
	mu      sync.RWMutex
	byOrder map[string]models.Claim
	now     func() time.Time
}

func NewMemoryClaimRepository() *MemoryClaimRepository {
	return &MemoryClaimRepository{byOrder: make(map[string]models.Claim), now: time.Now}
}

func (r *MemoryClaimRepository) Exists(_ context.Context, orderID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byOrder[orderID]
	return ok, nil
}

func (r *MemoryClaimRepository) Create(_ context.Context, claim *models.Claim) (*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOrder[claim.OrderID]; ok {
		return nil, ErrDuplicateOrder
	}

	stored := *claim
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC()
	r.byOrder[stored.OrderID] = stored
	return &stored, nil
}

func (r *MemoryClaimRepository) FindByOrderID(_ context.Context, orderID string) (*models.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	claim, ok := r.byOrder[orderID]
	if !ok {
		return nil, ErrClaimNotFound
	}
	return &claim, nil
}

func (r *MemoryClaimRepository) ListByEmail(_ context.Context, email string) ([]models.Claim, error) {
	return r.filter(func(c models.Claim) bool { return c.Email == email }, 0), nil
}

func (r *MemoryClaimRepository) ListCreatedAfter(_ context.Context, after time.Time, limit int) ([]models.Claim, error) {
	return r.filter(func(c models.Claim) bool { return c.CreatedAt.After(after) }, limit), nil
}

func (r *MemoryClaimRepository) Ping(context.Context) error { return nil }

func (r *MemoryClaimRepository) filter(keep func(models.Claim) bool, limit int) []models.Claim {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Claim
	for _, c := range r.byOrder {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
