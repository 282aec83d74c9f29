package split

import (
	"context"
	"errors"

	appbilling "github.com/costledger/backend/internal/application/billing"
	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/domain/split"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SplitService orchestrates rule-driven splitting of a period's original
// bills into ledger bills. The ledger is always replaced wholesale, so
// it is an exact function of the current original bills and rules with
// no stale entries. Concurrent splits of the same period are not safe
// against each other and must be serialized by the caller.
type SplitService struct {
	periodRepo billing.BillPeriodRepository
	ledgerRepo billing.LedgerBillRepository
	txManager  shared.TransactionManager
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewSplitService creates a new SplitService
func NewSplitService(
	periodRepo billing.BillPeriodRepository,
	ledgerRepo billing.LedgerBillRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SplitService {
	return &SplitService{
		periodRepo: periodRepo,
		ledgerRepo: ledgerRepo,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger,
	}
}

// SplitPeriod allocates every original bill of the period. Bills with a
// matching rule are split by the rule's composite policy; unmatched
// bills pass through unchanged as single ledger bills. A missing period
// is a silent no-op so retries are safe; an undecodable policy payload
// aborts the whole operation with no partial writes.
func (s *SplitService) SplitPeriod(ctx context.Context, periodID uuid.UUID) error {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Split requested for missing period",
				zap.String("period_id", periodID.String()))
			return nil
		}
		return err
	}

	ledger := make([]billing.LedgerBill, 0, len(period.OriginalBills))
	matched := 0
	for i := range period.OriginalBills {
		original := &period.OriginalBills[i]

		rule := split.SelectSplitRule(period.SplitRules, original)
		if rule == nil {
			ledger = append(ledger, *billing.NewLedgerBillFromOriginal(original))
			continue
		}

		policy, err := split.ParseCompositePolicy(rule.Policy)
		if err != nil {
			s.logger.Error("Split aborted on undecodable policy",
				zap.String("rule_id", rule.ID.String()),
				zap.String("period", period.Label()),
				zap.ByteString("policy", rule.Policy),
				zap.Error(err))
			return err
		}
		ledger = append(ledger, policy.Split(original)...)
		matched++
	}

	period.SetLedgerBills(ledger)

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Save(ctx, period); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Billing period split",
		zap.String("period", period.Label()),
		zap.Int("original_bills", len(period.OriginalBills)),
		zap.Int("matched_bills", matched),
		zap.Int("ledger_bills", len(ledger)))
	return nil
}

// SplitLedgerBill replaces one ledger bill with caller-supplied
// replacement bills, re-parented to the same original bill. Used for
// manual correction of a single allocation; the caller is expected to
// keep the replacement totals reconciled to the removed bill.
func (s *SplitService) SplitLedgerBill(ctx context.Context, ledgerBillID uuid.UUID, payloads []appbilling.BillPayload) error {
	target, err := s.ledgerRepo.FindByID(ctx, ledgerBillID)
	if err != nil {
		return err
	}
	period, err := s.periodRepo.FindByID(ctx, target.BillPeriodID)
	if err != nil {
		return err
	}
	if period.Locked {
		return shared.ErrPeriodLocked
	}

	replacements := make([]billing.LedgerBill, 0, len(payloads))
	for i := range payloads {
		bill := billing.NewLedgerBill()
		payloads[i].Apply(&bill.Bill)
		replacements = append(replacements, *bill)
	}
	if err := period.SplitLedgerBill(ledgerBillID, replacements); err != nil {
		return err
	}

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Save(ctx, period); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Ledger bill re-split",
		zap.String("ledger_bill_id", ledgerBillID.String()),
		zap.String("period", period.Label()),
		zap.Int("replacements", len(payloads)))
	return nil
}
