package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"paybridge/internal/models"
)

// PaymentRepository handles payment record database operations.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new pending payment. An empty ID is filled with a UUID.
func (r *PaymentRepository) Create(ctx context.Context, p *models.PaymentRecord) error {
	prepareNew(p)
	return r.db.WithContext(ctx).Omit("Transactions").Create(p).Error
}

// FindByID returns a payment with its transactions in insertion order.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := r.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AppendTransaction bumps the version guarded by the expected version and
// inserts tx in the same database transaction.
func (r *PaymentRepository) AppendTransaction(ctx context.Context, id string, version int64, tx models.Transaction) (*models.PaymentRecord, error) {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		updates := map[string]interface{}{}
		if code := interfaceCodeFor(tx); code != "" {
			updates["interface_code"] = code
		}
		if err := bumpVersion(db, id, version, now, updates); err != nil {
			return err
		}

		tx.ID = 0
		tx.PaymentID = id
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = now
		}
		return db.Create(&tx).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// SetInterfaceID binds the gateway's transaction secret to the payment.
func (r *PaymentRepository) SetInterfaceID(ctx context.Context, id string, version int64, interfaceID string) (*models.PaymentRecord, error) {
	updates := map[string]interface{}{"interface_id": interfaceID}
	if err := bumpVersion(r.db.WithContext(ctx), id, version, time.Now(), updates); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// bumpVersion applies updates and increments the version only while the
// stored version still equals version.
func bumpVersion(db *gorm.DB, id string, version int64, now time.Time, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = now

	res := db.Model(&models.PaymentRecord{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.PaymentRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return ErrVersionConflict
}

// FindStalePending returns pending payments created before cutoff.
func (r *PaymentRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var payments []models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("interface_code = ? AND created_at < ?", models.InterfaceCodePending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

func prepareNew(p *models.PaymentRecord) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.InterfaceCode == "" {
		p.InterfaceCode = models.InterfaceCodePending
	}
	if p.PaymentInterface == "" {
		p.PaymentInterface = "Novalnet"
	}
}

func interfaceCodeFor(tx models.Transaction) string {
	switch tx.State {
	case models.TransactionSuccess:
		return models.InterfaceCodePaid
	case models.TransactionFailure:
		return models.InterfaceCodeFailed
	}
	return ""
}
