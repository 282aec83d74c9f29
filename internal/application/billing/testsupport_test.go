package billing

import (
	"context"
	"sort"
	"time"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// memPeriodRepo is an in-memory BillPeriodRepository. It stores detached
// copies so mutations only become visible through Save, like a real
// storage layer.
type memPeriodRepo struct {
	periods map[uuid.UUID]*billing.BillPeriod
}

func newMemPeriodRepo() *memPeriodRepo {
	return &memPeriodRepo{periods: make(map[uuid.UUID]*billing.BillPeriod)}
}

// paginate slices items down to the requested page, keeping the full
// count as the total like a real repository query would.
func paginate[T any](items []T, filter shared.Filter) *shared.Paginated[T] {
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = len(items) + 1
	}
	start := (page - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	result := shared.NewPaginated(items[start:end], int64(len(items)), page, size)
	return &result
}

func clonePeriod(p *billing.BillPeriod) *billing.BillPeriod {
	clone := *p
	clone.ClearDomainEvents()
	clone.OriginalBills = append([]billing.OriginalBill(nil), p.OriginalBills...)
	clone.LedgerBills = append([]billing.LedgerBill(nil), p.LedgerBills...)
	clone.SplitRules = append([]billing.SplitRule(nil), p.SplitRules...)
	return &clone
}

func (r *memPeriodRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.BillPeriod, error) {
	period, ok := r.periods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clonePeriod(period), nil
}

func (r *memPeriodRepo) FindByYearMonth(_ context.Context, year, month int) (*billing.BillPeriod, error) {
	for _, period := range r.periods {
		if period.Year == year && period.Month == month {
			return clonePeriod(period), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPeriodRepo) FindPrevious(_ context.Context, before time.Time) (*billing.BillPeriod, error) {
	var best *billing.BillPeriod
	for _, period := range r.periods {
		if !period.Timestamp.Before(before) {
			continue
		}
		if best == nil || period.Timestamp.After(best.Timestamp) {
			best = period
		}
	}
	if best == nil {
		return nil, nil
	}
	return clonePeriod(best), nil
}

func (r *memPeriodRepo) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[billing.BillPeriod], error) {
	items := make([]billing.BillPeriod, 0, len(r.periods))
	for _, period := range r.periods {
		items = append(items, *clonePeriod(period))
	}
	sort.Slice(items, func(i, j int) bool {
		if filter.OrderDir == "asc" {
			return items[i].Timestamp.Before(items[j].Timestamp)
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return paginate(items, filter), nil
}

func (r *memPeriodRepo) Save(_ context.Context, period *billing.BillPeriod) error {
	r.periods[period.ID] = clonePeriod(period)
	return nil
}

func (r *memPeriodRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.periods, id)
	return nil
}

// staticSnapshots serves one fixed catalog snapshot
type staticSnapshots struct {
	snapshot *meta.Snapshot
}

func (s staticSnapshots) Snapshot(context.Context) (*meta.Snapshot, error) {
	return s.snapshot, nil
}

func catalogSnapshot() *meta.Snapshot {
	return meta.NewSnapshot(
		[]string{"infra", "ops", "payment"},
		[]string{"subject-a"},
		[]string{"aws", "aliyun"},
	)
}

// memOriginalRepo reads original bills out of the period store
type memOriginalRepo struct {
	store *memPeriodRepo
}

func (r *memOriginalRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.OriginalBill, error) {
	for _, period := range r.store.periods {
		if bill := period.FindOriginalBill(id); bill != nil {
			clone := *bill
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOriginalRepo) FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.OriginalBill], error) {
	bills, err := r.FindAllByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return paginate(bills, filter), nil
}

func (r *memOriginalRepo) FindAllByPeriod(_ context.Context, periodID uuid.UUID) ([]billing.OriginalBill, error) {
	period, ok := r.store.periods[periodID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]billing.OriginalBill(nil), period.OriginalBills...), nil
}

func (r *memOriginalRepo) DeleteByPeriod(_ context.Context, periodID uuid.UUID) error {
	if period, ok := r.store.periods[periodID]; ok {
		period.OriginalBills = nil
	}
	return nil
}

// memLedgerRepo reads ledger bills out of the period store
type memLedgerRepo struct {
	store *memPeriodRepo
}

func (r *memLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.LedgerBill, error) {
	for _, period := range r.store.periods {
		if bill := period.FindLedgerBill(id); bill != nil {
			clone := *bill
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLedgerRepo) FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.LedgerBill], error) {
	bills, err := r.FindAllByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return paginate(bills, filter), nil
}

func (r *memLedgerRepo) FindAllByPeriod(_ context.Context, periodID uuid.UUID) ([]billing.LedgerBill, error) {
	period, ok := r.store.periods[periodID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]billing.LedgerBill(nil), period.LedgerBills...), nil
}

func (r *memLedgerRepo) DeleteByPeriod(_ context.Context, periodID uuid.UUID) error {
	if period, ok := r.store.periods[periodID]; ok {
		period.LedgerBills = nil
	}
	return nil
}

// memRuleRepo reads split rules out of the period store
type memRuleRepo struct {
	store *memPeriodRepo
}

func (r *memRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.SplitRule, error) {
	for _, period := range r.store.periods {
		if rule := period.FindSplitRule(id); rule != nil {
			clone := *rule
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRuleRepo) FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.SplitRule], error) {
	rules, err := r.FindAllByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return paginate(rules, filter), nil
}

func (r *memRuleRepo) FindAllByPeriod(_ context.Context, periodID uuid.UUID) ([]billing.SplitRule, error) {
	period, ok := r.store.periods[periodID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]billing.SplitRule(nil), period.SplitRules...), nil
}

func (r *memRuleRepo) DeleteByPeriod(_ context.Context, periodID uuid.UUID) error {
	if period, ok := r.store.periods[periodID]; ok {
		period.SplitRules = nil
	}
	return nil
}
