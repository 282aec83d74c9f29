package persistence

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPeriod(t *testing.T, year, month int) *billing.BillPeriod {
	t.Helper()
	period, err := billing.NewBillPeriod(year, month)
	require.NoError(t, err)
	period.ClearDomainEvents()
	return period
}

func newTestOriginalBill(provider string, paid string) *billing.OriginalBill {
	bill := billing.NewOriginalBill()
	bill.ProviderName = provider
	bill.BillSubjectName = "subject-a"
	bill.BusinessCode = "infra"
	bill.ActuallyPaid = decimal.RequireFromString(paid)
	return bill
}

func newTestRule(t *testing.T) *billing.SplitRule {
	t.Helper()
	matcher := json.RawMessage(`{"provider_name":"aws"}`)
	policy := json.RawMessage(`{"policies":[{"type":"proportional","business_code":"infra","percent":"1"}]}`)
	return billing.NewSplitRule(matcher, policy, "all to infra")
}

func TestGormBillPeriodRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBillPeriodRepository(db)
	ctx := context.Background()

	t.Run("round-trips the aggregate with its collections", func(t *testing.T) {
		period := newTestPeriod(t, 2021, 11)

		total := decimal.RequireFromString("120.50")
		withTotal := newTestOriginalBill("aws", "100.00")
		withTotal.Total = &total
		withTotal.Tag1 = "prod"
		period.CreateOriginalBill(withTotal)

		withoutTotal := newTestOriginalBill("azure", "33.10")
		period.CreateOriginalBill(withoutTotal)

		ledger := billing.NewLedgerBillFromOriginal(withTotal)
		period.CreateLedgerBill(ledger)

		period.CreateSplitRule(newTestRule(t))
		period.ClearDomainEvents()

		require.NoError(t, repo.Save(ctx, period))

		found, err := repo.FindByID(ctx, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 2021, found.Year)
		assert.Equal(t, 11, found.Month)
		assert.False(t, found.Locked)

		require.Len(t, found.OriginalBills, 2)
		require.Len(t, found.LedgerBills, 1)
		require.Len(t, found.SplitRules, 1)

		gotBill := found.FindOriginalBill(withTotal.ID)
		require.NotNil(t, gotBill)
		assert.Equal(t, "aws", gotBill.ProviderName)
		assert.Equal(t, "prod", gotBill.Tag1)
		assert.True(t, gotBill.ActuallyPaid.Equal(decimal.RequireFromString("100.00")))
		require.NotNil(t, gotBill.Total)
		assert.True(t, gotBill.Total.Equal(total))

		gotOther := found.FindOriginalBill(withoutTotal.ID)
		require.NotNil(t, gotOther)
		assert.Nil(t, gotOther.Total)

		gotLedger := found.FindLedgerBill(ledger.ID)
		require.NotNil(t, gotLedger)
		assert.Equal(t, withTotal.ID, gotLedger.ParentID)

		assert.JSONEq(t, `{"provider_name":"aws"}`, string(found.SplitRules[0].Matcher))
		assert.Equal(t, "all to infra", found.SplitRules[0].Description)
	})

	t.Run("save replaces stored collections", func(t *testing.T) {
		period := newTestPeriod(t, 2022, 1)
		period.CreateOriginalBill(newTestOriginalBill("aws", "10"))
		period.CreateOriginalBill(newTestOriginalBill("azure", "20"))
		require.NoError(t, repo.Save(ctx, period))

		period.OriginalBills = period.OriginalBills[:1]
		require.NoError(t, repo.Save(ctx, period))

		found, err := repo.FindByID(ctx, period.ID)
		require.NoError(t, err)
		require.Len(t, found.OriginalBills, 1)
		assert.Equal(t, "aws", found.OriginalBills[0].ProviderName)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBillPeriodRepository_FindByYearMonth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBillPeriodRepository(db)
	ctx := context.Background()

	period := newTestPeriod(t, 2021, 11)
	require.NoError(t, repo.Save(ctx, period))

	t.Run("finds the period of a calendar month", func(t *testing.T) {
		found, err := repo.FindByYearMonth(ctx, 2021, 11)
		require.NoError(t, err)
		assert.Equal(t, period.ID, found.ID)
	})

	t.Run("returns not found for a free month", func(t *testing.T) {
		_, err := repo.FindByYearMonth(ctx, 2021, 12)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBillPeriodRepository_FindPrevious(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBillPeriodRepository(db)
	ctx := context.Background()

	october := newTestPeriod(t, 2021, 10)
	november := newTestPeriod(t, 2021, 11)
	december := newTestPeriod(t, 2021, 12)
	// Insertion order deliberately differs from chronological order.
	require.NoError(t, repo.Save(ctx, december))
	require.NoError(t, repo.Save(ctx, october))
	require.NoError(t, repo.Save(ctx, november))

	t.Run("returns the latest period before the given timestamp", func(t *testing.T) {
		found, err := repo.FindPrevious(ctx, december.Timestamp)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, november.ID, found.ID)
	})

	t.Run("returns nil before the earliest period", func(t *testing.T) {
		found, err := repo.FindPrevious(ctx, october.Timestamp)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormBillPeriodRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBillPeriodRepository(db)
	ctx := context.Background()

	for month := 1; month <= 5; month++ {
		require.NoError(t, repo.Save(ctx, newTestPeriod(t, 2022, month)))
	}

	t.Run("paginates in timestamp order", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "timestamp"
		filter.OrderDir = "desc"
		filter.PageSize = 2

		page, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Items, 2)
		assert.Equal(t, 5, page.Items[0].Month)
		assert.Equal(t, 4, page.Items[1].Month)
	})

	t.Run("filters by period label search", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "2022-03"

		page, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, 3, page.Items[0].Month)
	})

	t.Run("falls back to safe ordering for unknown sort fields", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "year; DROP TABLE bill_periods"

		page, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
	})
}

func TestGormBillPeriodRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBillPeriodRepository(db)
	billRepo := NewGormOriginalBillRepository(db)
	ruleRepo := NewGormSplitRuleRepository(db)
	ctx := context.Background()

	t.Run("cascades to bills and rules", func(t *testing.T) {
		period := newTestPeriod(t, 2021, 11)
		period.CreateOriginalBill(newTestOriginalBill("aws", "10"))
		period.CreateSplitRule(newTestRule(t))
		require.NoError(t, repo.Save(ctx, period))

		require.NoError(t, repo.Delete(ctx, period.ID))

		_, err := repo.FindByID(ctx, period.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		bills, err := billRepo.FindAllByPeriod(ctx, period.ID)
		require.NoError(t, err)
		assert.Empty(t, bills)

		rules, err := ruleRepo.FindAllByPeriod(ctx, period.ID)
		require.NoError(t, err)
		assert.Empty(t, rules)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
