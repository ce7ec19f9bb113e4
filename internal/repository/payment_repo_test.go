package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paybridge/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PaymentRecord{}, &models.Transaction{}, &models.GatewayCallback{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func stores(t *testing.T) map[string]PaymentStore {
	return map[string]PaymentStore{
		"gorm":   NewPaymentRepository(setupTestDB(t)),
		"memory": NewMemoryPaymentRepository(),
	}
}

func successTx(tid string) models.Transaction {
	return models.Transaction{
		Type:          models.TransactionAuthorization,
		State:         models.TransactionSuccess,
		Amount:        models.Money{CentAmount: 1000, CurrencyCode: "EUR"},
		InteractionID: tid,
	}
}

func TestPaymentStore_CreateAndFind(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := &models.PaymentRecord{CartID: "cart-1", AmountPlanned: models.Money{CentAmount: 1000, CurrencyCode: "EUR"}}
			require.NoError(t, s.Create(ctx, p))
			require.NotEmpty(t, p.ID)

			got, err := s.FindByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.Version)
			assert.Equal(t, models.InterfaceCodePending, got.InterfaceCode)
			assert.Equal(t, "Novalnet", got.PaymentInterface)
			assert.Empty(t, got.Transactions)
			assert.Equal(t, models.StatusPending, got.Status())

			_, err = s.FindByID(ctx, "missing")
			assert.ErrorIs(t, err, ErrRecordNotFound)
		})
	}
}

func TestPaymentStore_AppendTransactionBumpsVersion(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := &models.PaymentRecord{ID: "pay-1", AmountPlanned: models.Money{CentAmount: 1000, CurrencyCode: "EUR"}}
			require.NoError(t, s.Create(ctx, p))

			got, err := s.AppendTransaction(ctx, "pay-1", 1, successTx("TX1"))
			require.NoError(t, err)
			assert.Equal(t, int64(2), got.Version)
			assert.Equal(t, models.InterfaceCodePaid, got.InterfaceCode)
			require.Len(t, got.Transactions, 1)
			assert.Equal(t, "TX1", got.Transactions[0].InteractionID)
			assert.Equal(t, models.StatusSuccess, got.Status())
		})
	}
}

func TestPaymentStore_StaleVersionConflicts(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Create(ctx, &models.PaymentRecord{ID: "pay-1"}))
			_, err := s.AppendTransaction(ctx, "pay-1", 1, successTx("TX1"))
			require.NoError(t, err)

			_, err = s.AppendTransaction(ctx, "pay-1", 1, successTx("TX1"))
			assert.ErrorIs(t, err, ErrVersionConflict)

			_, err = s.AppendTransaction(ctx, "nope", 1, successTx("TX1"))
			assert.ErrorIs(t, err, ErrRecordNotFound)

			got, err := s.FindByID(ctx, "pay-1")
			require.NoError(t, err)
			assert.Len(t, got.Transactions, 1)
		})
	}
}

func TestPaymentStore_SetInterfaceIDIsVersionGuarded(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Create(ctx, &models.PaymentRecord{ID: "pay-1"}))

			got, err := s.SetInterfaceID(ctx, "pay-1", 1, "SECRET")
			require.NoError(t, err)
			assert.Equal(t, "SECRET", got.InterfaceID)
			assert.Equal(t, int64(2), got.Version)
			assert.Equal(t, models.InterfaceCodePending, got.InterfaceCode)

			_, err = s.SetInterfaceID(ctx, "pay-1", 1, "OTHER")
			assert.ErrorIs(t, err, ErrVersionConflict)
			_, err = s.SetInterfaceID(ctx, "nope", 1, "OTHER")
			assert.ErrorIs(t, err, ErrRecordNotFound)

			stored, err := s.FindByID(ctx, "pay-1")
			require.NoError(t, err)
			assert.Equal(t, "SECRET", stored.InterfaceID)
		})
	}
}

func TestPaymentStore_FindStalePending(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			old := time.Now().Add(-48 * time.Hour)
			require.NoError(t, s.Create(ctx, &models.PaymentRecord{ID: "old", CreatedAt: old}))
			require.NoError(t, s.Create(ctx, &models.PaymentRecord{ID: "old-paid", CreatedAt: old}))
			require.NoError(t, s.Create(ctx, &models.PaymentRecord{ID: "fresh"}))
			_, err := s.AppendTransaction(ctx, "old-paid", 1, successTx("TX9"))
			require.NoError(t, err)

			stale, err := s.FindStalePending(ctx, time.Now().Add(-24*time.Hour), 10)
			require.NoError(t, err)
			require.Len(t, stale, 1)
			assert.Equal(t, "old", stale[0].ID)
		})
	}
}

func TestCallbackRepository_IgnoresDuplicateTID(t *testing.T) {
	ctx := context.Background()
	repo := NewCallbackRepository(setupTestDB(t))

	require.NoError(t, repo.Save(ctx, &models.GatewayCallback{TID: "TX1", PaymentID: "pay-1", Status: "100"}))
	require.NoError(t, repo.Save(ctx, &models.GatewayCallback{TID: "TX1", PaymentID: "pay-2", Status: "100"}))

	got, err := repo.FindByTID(ctx, "TX1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.PaymentID)
}

func TestMemorySessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	require.NoError(t, repo.Save(ctx, "s1", Session{CartID: "cart-1"}, time.Hour))
	require.NoError(t, repo.Save(ctx, "s2", Session{CartID: "cart-2"}, time.Nanosecond))
	time.Sleep(time.Millisecond)

	s, err := repo.Find(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", s.CartID)

	_, err = repo.Find(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.Find(ctx, "s3")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
