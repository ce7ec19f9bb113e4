package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"paybridge/internal/models"
)

// MemoryPaymentRepository keeps payments in process memory. It honours the
// same version discipline as PaymentRepository.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*models.PaymentRecord
	nextTxID uint
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[string]*models.PaymentRecord),
	}
}

func (r *MemoryPaymentRepository) Create(_ context.Context, p *models.PaymentRecord) error {
	prepareNew(p)
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *MemoryPaymentRepository) FindByID(_ context.Context, id string) (*models.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return clonePayment(p), nil
}

func (r *MemoryPaymentRepository) AppendTransaction(_ context.Context, id string, version int64, tx models.Transaction) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if p.Version != version {
		return nil, ErrVersionConflict
	}

	now := time.Now()
	r.nextTxID++
	tx.ID = r.nextTxID
	tx.PaymentID = id
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	p.Transactions = append(p.Transactions, tx)
	p.Version++
	p.UpdatedAt = now
	if code := interfaceCodeFor(tx); code != "" {
		p.InterfaceCode = code
	}
	return clonePayment(p), nil
}

func (r *MemoryPaymentRepository) SetInterfaceID(_ context.Context, id string, version int64, interfaceID string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if p.Version != version {
		return nil, ErrVersionConflict
	}
	p.InterfaceID = interfaceID
	p.Version++
	p.UpdatedAt = time.Now()
	return clonePayment(p), nil
}

func (r *MemoryPaymentRepository) FindStalePending(_ context.Context, cutoff time.Time, limit int) ([]models.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.PaymentRecord
	for _, p := range r.payments {
		if p.InterfaceCode == models.InterfaceCodePending && p.CreatedAt.Before(cutoff) {
			out = append(out, *clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clonePayment(p *models.PaymentRecord) *models.PaymentRecord {
	cp := *p
	cp.Transactions = append([]models.Transaction(nil), p.Transactions...)
	return &cp
}
