package repository

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paybridge/internal/models"
)

// CallbackRepository archives verified gateway callbacks keyed by tid.
type CallbackRepository struct {
	db *gorm.DB
}

func NewCallbackRepository(db *gorm.DB) *CallbackRepository {
	return &CallbackRepository{db: db}
}

// Save stores cb unless a callback with the same tid already exists.
func (r *CallbackRepository) Save(ctx context.Context, cb *models.GatewayCallback) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tid"}}, DoNothing: true}).
		Create(cb).Error
}

// FindByTID returns the archived callback for tid.
func (r *CallbackRepository) FindByTID(ctx context.Context, tid string) (*models.GatewayCallback, error) {
	var cb models.GatewayCallback
	if err := r.db.WithContext(ctx).Where("tid = ?", tid).First(&cb).Error; err != nil {
		return nil, err
	}
	return &cb, nil
}

// MemoryCallbackRepository is the in-process archive used by the memory backend.
type MemoryCallbackRepository struct {
	mu    sync.Mutex
	byTID map[string]models.GatewayCallback
}

func NewMemoryCallbackRepository() *MemoryCallbackRepository {
	return &MemoryCallbackRepository{byTID: make(map[string]models.GatewayCallback)}
}

func (r *MemoryCallbackRepository) Save(_ context.Context, cb *models.GatewayCallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTID[cb.TID]; ok {
		return nil
	}
	if cb.CreatedAt.IsZero() {
		cb.CreatedAt = time.Now()
	}
	r.byTID[cb.TID] = *cb
	return nil
}

// Len returns the number of archived callbacks.
func (r *MemoryCallbackRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byTID)
}
