package billing

import (
	"context"
	"time"

	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BillPeriodRepository persists billing periods together with their owned
// collections. Save replaces the stored collections with the aggregate's
// current ones; Delete cascades to bills and rules.
type BillPeriodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BillPeriod, error)
	FindByYearMonth(ctx context.Context, year, month int) (*BillPeriod, error)
	// FindPrevious returns the period with the greatest timestamp strictly
	// before the given one, or nil when none exists.
	FindPrevious(ctx context.Context, before time.Time) (*BillPeriod, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[BillPeriod], error)
	Save(ctx context.Context, period *BillPeriod) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OriginalBillRepository reads original bills independently of the
// owning aggregate, for listing and export.
type OriginalBillRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OriginalBill, error)
	FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[OriginalBill], error)
	FindAllByPeriod(ctx context.Context, periodID uuid.UUID) ([]OriginalBill, error)
	DeleteByPeriod(ctx context.Context, periodID uuid.UUID) error
}

// LedgerBillRepository reads ledger bills independently of the owning
// aggregate.
type LedgerBillRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerBill, error)
	FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[LedgerBill], error)
	FindAllByPeriod(ctx context.Context, periodID uuid.UUID) ([]LedgerBill, error)
	DeleteByPeriod(ctx context.Context, periodID uuid.UUID) error
}

// SplitRuleRepository reads split rules independently of the owning
// aggregate.
type SplitRuleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SplitRule, error)
	FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[SplitRule], error)
	FindAllByPeriod(ctx context.Context, periodID uuid.UUID) ([]SplitRule, error)
	DeleteByPeriod(ctx context.Context, periodID uuid.UUID) error
}
