package billing

import (
	"context"
	"testing"

	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBillPayload() BillPayload {
	total := decimal.NewFromInt(120)
	return BillPayload{
		ProviderName:    "aws",
		BillSubjectName: "subject-a",
		BusinessCode:    "infra",
		ServiceType:     "compute",
		ServiceName:     "ec2",
		Total:           &total,
		ActuallyPaid:    decimal.NewFromInt(100),
	}
}

func TestBillService_CreateOriginalBill(t *testing.T) {
	t.Run("valid bill carries no exception", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()
		period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		resp, err := env.bills.CreateOriginalBill(ctx, period.ID, validBillPayload())
		require.NoError(t, err)
		assert.Empty(t, resp.Exception)
		assert.Equal(t, "aws", resp.ProviderName)
		assert.Equal(t, "100", resp.ActuallyPaid.String())
	})

	t.Run("unknown catalog entries are annotated not rejected", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()
		period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		payload := validBillPayload()
		payload.ProviderName = "gcp"
		payload.BusinessCode = "nonsense"
		resp, err := env.bills.CreateOriginalBill(ctx, period.ID, payload)
		require.NoError(t, err)
		assert.Contains(t, resp.Exception, "gcp")
		assert.Contains(t, resp.Exception, "nonsense")

		got, err := env.periods.GetByID(ctx, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AbnormalOriginalBills)
	})

	t.Run("unknown period", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.bills.CreateOriginalBill(context.Background(), uuid.New(), validBillPayload())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBillService_UpdateOriginalBill(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
	require.NoError(t, err)

	payload := validBillPayload()
	payload.ProviderName = "gcp"
	created, err := env.bills.CreateOriginalBill(ctx, period.ID, payload)
	require.NoError(t, err)
	require.NotEmpty(t, created.Exception)

	// Fixing the provider clears the stale exception on update
	fixed := validBillPayload()
	updated, err := env.bills.UpdateOriginalBill(ctx, created.ID, fixed)
	require.NoError(t, err)
	assert.Empty(t, updated.Exception)

	t.Run("unknown bill", func(t *testing.T) {
		_, err := env.bills.UpdateOriginalBill(ctx, uuid.New(), validBillPayload())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBillService_ListOriginalBills(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := env.bills.CreateOriginalBill(ctx, period.ID, validBillPayload())
		require.NoError(t, err)
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 2
	page, err := env.bills.ListOriginalBills(ctx, period.ID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
}

func TestSplitRuleService_Create(t *testing.T) {
	t.Run("valid rule is stored", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()
		period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		resp, err := env.rules.Create(ctx, period.ID, validRuleRequest(t))
		require.NoError(t, err)
		assert.Equal(t, period.ID, resp.BillPeriodID)
		assert.JSONEq(t, `{"provider_name":"aws"}`, string(resp.Matcher))
	})

	t.Run("invalid rule is rejected outright", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()
		period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		req := validRuleRequest(t)
		req.Policy = []byte(`{"policies":[{"type":"proportional","business_code":"infra","percent":"0.4"}]}`)
		_, err = env.rules.Create(ctx, period.ID, req)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.ErrValidation.Code, domainErr.Code)
		assert.Contains(t, domainErr.Message, "percent sum not 1")
	})

	t.Run("unknown business code in policy is rejected", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()
		period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		req := validRuleRequest(t)
		req.Policy = []byte(`{"policies":[{"type":"proportional","business_code":"nope","percent":"1"}]}`)
		_, err = env.rules.Create(ctx, period.ID, req)
		require.Error(t, err)
	})
}

func TestSplitRuleService_Set(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
	require.NoError(t, err)

	_, err = env.rules.Create(ctx, period.ID, validRuleRequest(t))
	require.NoError(t, err)

	// Set replaces the whole rule list
	replaced, err := env.rules.Set(ctx, period.ID, []SplitRuleRequest{validRuleRequest(t), validRuleRequest(t)})
	require.NoError(t, err)
	assert.Len(t, replaced, 2)

	page, err := env.rules.List(ctx, period.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}
