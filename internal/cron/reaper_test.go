package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paybridge/internal/config"
	"paybridge/internal/models"
	"paybridge/internal/repository"
)

func TestExpirePending(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryPaymentRepository()

	stale := &models.PaymentRecord{CreatedAt: now.Add(-48 * time.Hour), AmountPlanned: models.Money{CentAmount: 500, CurrencyCode: "EUR"}}
	fresh := &models.PaymentRecord{CreatedAt: now.Add(-time.Hour)}
	paid := &models.PaymentRecord{CreatedAt: now.Add(-72 * time.Hour)}
	for _, p := range []*models.PaymentRecord{stale, fresh, paid} {
		require.NoError(t, store.Create(ctx, p))
	}
	_, err := store.AppendTransaction(ctx, paid.ID, paid.Version, models.Transaction{
		Type: models.TransactionAuthorization, State: models.TransactionSuccess, InteractionID: "TX1",
	})
	require.NoError(t, err)

	s := New(config.MaintenanceConfig{PendingTTL: 24 * time.Hour}, store, nil)
	s.now = func() time.Time { return now }

	assert.Equal(t, 1, s.ExpirePending(ctx))

	got, err := store.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, models.TransactionFailure, got.Transactions[0].State)
	assert.Equal(t, ExpiredInteractionID, got.Transactions[0].InteractionID)
	assert.Equal(t, models.InterfaceCodeFailed, got.InterfaceCode)

	got, err = store.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Transactions)

	got, err = store.FindByID(ctx, paid.ID)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, models.TransactionSuccess, got.Transactions[0].State)

	assert.Equal(t, 0, s.ExpirePending(ctx), "second run finds nothing")
}

func TestScheduler_StartRejectsBadSchedule(t *testing.T) {
	s := New(config.MaintenanceConfig{ReaperSchedule: "not a schedule"}, repository.NewMemoryPaymentRepository(), nil)
	assert.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(config.MaintenanceConfig{}, repository.NewMemoryPaymentRepository(), nil)
	require.NoError(t, s.Start())
	<-s.Stop().Done()
}
