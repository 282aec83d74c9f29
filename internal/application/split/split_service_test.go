package split

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	appbilling "github.com/costledger/backend/internal/application/billing"
	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/domain/split"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// periodStore is a single-period in-memory repository. Split operations
// always work on one period at a time, so one slot is enough.
type periodStore struct {
	period *billing.BillPeriod
	saves  int
}

func (s *periodStore) FindByID(_ context.Context, id uuid.UUID) (*billing.BillPeriod, error) {
	if s.period == nil || s.period.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.period, nil
}

func (s *periodStore) FindByYearMonth(_ context.Context, year, month int) (*billing.BillPeriod, error) {
	if s.period == nil || s.period.Year != year || s.period.Month != month {
		return nil, shared.ErrNotFound
	}
	return s.period, nil
}

func (s *periodStore) FindPrevious(_ context.Context, _ time.Time) (*billing.BillPeriod, error) {
	return nil, nil
}

func (s *periodStore) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[billing.BillPeriod], error) {
	var items []billing.BillPeriod
	if s.period != nil {
		items = append(items, *s.period)
	}
	result := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &result, nil
}

func (s *periodStore) Save(_ context.Context, period *billing.BillPeriod) error {
	s.period = period
	s.saves++
	return nil
}

func (s *periodStore) Delete(_ context.Context, _ uuid.UUID) error {
	s.period = nil
	return nil
}

type ledgerStore struct {
	store *periodStore
}

func (r *ledgerStore) FindByID(_ context.Context, id uuid.UUID) (*billing.LedgerBill, error) {
	if r.store.period != nil {
		if bill := r.store.period.FindLedgerBill(id); bill != nil {
			return bill, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *ledgerStore) FindByPeriod(_ context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.LedgerBill], error) {
	bills, err := r.FindAllByPeriod(context.Background(), periodID)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(bills, int64(len(bills)), filter.Page, filter.PageSize)
	return &result, nil
}

func (r *ledgerStore) FindAllByPeriod(_ context.Context, periodID uuid.UUID) ([]billing.LedgerBill, error) {
	if r.store.period == nil || r.store.period.ID != periodID {
		return nil, shared.ErrNotFound
	}
	return r.store.period.LedgerBills, nil
}

func (r *ledgerStore) DeleteByPeriod(_ context.Context, periodID uuid.UUID) error {
	if r.store.period != nil && r.store.period.ID == periodID {
		r.store.period.LedgerBills = nil
	}
	return nil
}

// dropPublisher swallows events; split tests assert on state, the event
// flow is covered by the application/billing tests.
type dropPublisher struct{}

func (dropPublisher) Publish(_ context.Context, _ ...shared.DomainEvent) error { return nil }

func newSplitFixture(t *testing.T) (*SplitService, *periodStore, *billing.BillPeriod) {
	t.Helper()
	period, err := billing.NewBillPeriod(2021, 11)
	require.NoError(t, err)
	period.ClearDomainEvents()

	store := &periodStore{period: period}
	svc := NewSplitService(store, &ledgerStore{store: store}, shared.NoOpTransactionManager{}, dropPublisher{}, zap.NewNop())
	return svc, store, period
}

func originalBill(t *testing.T, provider string, paid int64) *billing.OriginalBill {
	t.Helper()
	bill := billing.NewOriginalBill()
	bill.ProviderName = provider
	bill.ActuallyPaid = decimal.NewFromInt(paid)
	return bill
}

func addRule(t *testing.T, period *billing.BillPeriod, provider string, subs ...split.SubPolicyPayload) {
	t.Helper()
	matcher, err := json.Marshal(split.BillMatcher{ProviderName: &provider})
	require.NoError(t, err)
	payload, err := split.MarshalPolicyPayload(subs...)
	require.NoError(t, err)

	period.CreateSplitRule(billing.NewSplitRule(matcher, payload, ""))
	period.ClearDomainEvents()
}

func TestSplitService_SplitPeriod(t *testing.T) {
	t.Run("unmatched bills pass through unchanged", func(t *testing.T) {
		svc, store, period := newSplitFixture(t)
		period.CreateOriginalBill(originalBill(t, "aws", 100))
		period.ClearDomainEvents()

		require.NoError(t, svc.SplitPeriod(context.Background(), period.ID))

		require.Len(t, store.period.LedgerBills, 1)
		got := store.period.LedgerBills[0]
		assert.Equal(t, "aws", got.ProviderName)
		assert.True(t, got.ActuallyPaid.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, period.OriginalBills[0].ID, got.ParentID)
	})

	t.Run("matched bill is split by the composite policy", func(t *testing.T) {
		svc, store, period := newSplitFixture(t)
		period.CreateOriginalBill(originalBill(t, "aws", 1000000))
		period.ClearDomainEvents()

		fixed := decimal.NewFromInt(500000)
		p1 := decimal.RequireFromString("0.2")
		p2 := decimal.RequireFromString("0.8")
		addRule(t, period, "aws",
			split.SubPolicyPayload{Type: split.PolicyTypeFixed, BusinessCode: "infra", Value: &fixed},
			split.SubPolicyPayload{Type: split.PolicyTypeProportional, BusinessCode: "ops", Percent: &p1},
			split.SubPolicyPayload{Type: split.PolicyTypeProportional, BusinessCode: "payment", Percent: &p2},
		)

		require.NoError(t, svc.SplitPeriod(context.Background(), period.ID))

		require.Len(t, store.period.LedgerBills, 3)
		byBusiness := map[string]decimal.Decimal{}
		sum := decimal.Zero
		for _, bill := range store.period.LedgerBills {
			byBusiness[bill.BusinessCode] = bill.ActuallyPaid
			sum = sum.Add(bill.ActuallyPaid)
		}
		assert.True(t, byBusiness["infra"].Equal(decimal.NewFromInt(500000)))
		assert.True(t, byBusiness["ops"].Equal(decimal.NewFromInt(100000)))
		assert.True(t, byBusiness["payment"].Equal(decimal.NewFromInt(400000)))
		assert.True(t, sum.Equal(decimal.NewFromInt(1000000)))
	})

	t.Run("repeat split replaces the ledger instead of appending", func(t *testing.T) {
		svc, store, period := newSplitFixture(t)
		period.CreateOriginalBill(originalBill(t, "aws", 100))
		period.ClearDomainEvents()

		require.NoError(t, svc.SplitPeriod(context.Background(), period.ID))
		require.NoError(t, svc.SplitPeriod(context.Background(), period.ID))

		assert.Len(t, store.period.LedgerBills, 1)
	})

	t.Run("missing period is a no-op", func(t *testing.T) {
		svc, store, _ := newSplitFixture(t)
		store.period = nil

		require.NoError(t, svc.SplitPeriod(context.Background(), uuid.New()))
		assert.Zero(t, store.saves)
	})

	t.Run("undecodable policy aborts without writing", func(t *testing.T) {
		svc, store, period := newSplitFixture(t)
		period.CreateOriginalBill(originalBill(t, "aws", 100))
		period.ClearDomainEvents()

		provider := "aws"
		matcher, err := json.Marshal(split.BillMatcher{ProviderName: &provider})
		require.NoError(t, err)
		rule := billing.NewSplitRule(matcher, []byte(`{"policies":[{"type":"magic"}]}`), "")
		period.CreateSplitRule(rule)
		period.ClearDomainEvents()

		err = svc.SplitPeriod(context.Background(), period.ID)
		require.Error(t, err)
		assert.Zero(t, store.saves)
	})
}

func TestSplitService_SplitLedgerBill(t *testing.T) {
	setup := func(t *testing.T) (*SplitService, *periodStore, *billing.BillPeriod, uuid.UUID) {
		svc, store, period := newSplitFixture(t)
		period.CreateOriginalBill(originalBill(t, "aws", 100))
		period.ClearDomainEvents()
		require.NoError(t, svc.SplitPeriod(context.Background(), period.ID))
		return svc, store, period, store.period.LedgerBills[0].ID
	}

	t.Run("replaces the target with re-parented bills", func(t *testing.T) {
		svc, store, period, targetID := setup(t)
		parentID := period.OriginalBills[0].ID

		err := svc.SplitLedgerBill(context.Background(), targetID, []appbilling.BillPayload{
			{BusinessCode: "infra", ActuallyPaid: decimal.NewFromInt(40)},
			{BusinessCode: "ops", ActuallyPaid: decimal.NewFromInt(60)},
		})
		require.NoError(t, err)

		require.Len(t, store.period.LedgerBills, 2)
		for _, bill := range store.period.LedgerBills {
			assert.NotEqual(t, targetID, bill.ID)
			assert.Equal(t, parentID, bill.ParentID)
		}
	})

	t.Run("unknown ledger bill", func(t *testing.T) {
		svc, _, _, _ := setup(t)
		err := svc.SplitLedgerBill(context.Background(), uuid.New(), nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("locked period refuses the re-split", func(t *testing.T) {
		svc, store, _, targetID := setup(t)
		store.period.Lock()

		err := svc.SplitLedgerBill(context.Background(), targetID, []appbilling.BillPayload{
			{BusinessCode: "infra", ActuallyPaid: decimal.NewFromInt(100)},
		})
		assert.ErrorIs(t, err, shared.ErrPeriodLocked)
	})
}
