package cron

import (
	"context"
	"time"

	"go.uber.org/zap"

	"paybridge/internal/payment"
)

const (
	expireBatchSize  = 50
	expireMaxBatches = 20

	// ExpiredInteractionID marks transactions written by the reaper.
	ExpiredInteractionID = "expired"
)

// ── Expire pending payments ──────────────────────────────────────────

func (s *Scheduler) expirePendingPayments() {
	defer s.recoverFromPanic("expirePendingPayments")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	expired := s.ExpirePending(ctx)
	s.logger.Debug("Payment expire completed", zap.Int("processed", expired))
}

// ExpirePending writes a Failure transaction on every payment that stayed
// pending longer than PendingTTL. It returns how many payments it expired.
func (s *Scheduler) ExpirePending(ctx context.Context) int {
	ttl := s.cfg.PendingTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cutoff := s.now().Add(-ttl)
	sig := payment.VerifiedSignal{Kind: payment.OutcomeFailure, TID: ExpiredInteractionID}

	expired := 0
	skipped := make(map[string]bool)
	for batch := 0; batch < expireMaxBatches; batch++ {
		payments, err := s.store.FindStalePending(ctx, cutoff, expireBatchSize)
		if err != nil {
			s.logger.Error("Failed to list stale payments", zap.Error(err))
			return expired
		}

		progressed := false
		for _, p := range payments {
			if skipped[p.ID] {
				continue
			}
			if p.TerminalTransaction() != nil {
				skipped[p.ID] = true
				continue
			}

			record, err := s.transition.ApplyOutcome(ctx, p.ID, sig)
			if err != nil {
				s.logger.Warn("Failed to expire payment", zap.String("payment_id", p.ID), zap.Error(err))
				skipped[p.ID] = true
				continue
			}
			if tx := record.TerminalTransaction(); tx != nil && tx.InteractionID == ExpiredInteractionID {
				expired++
			}
			// A payment that was already terminal stays out of the pending set.
			skipped[p.ID] = true
			progressed = true
		}

		if len(payments) < expireBatchSize || !progressed {
			break
		}
	}
	return expired
}
