package billing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/infrastructure/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv wires services, repositories and the full handler table the
// way cmd/server does, against in-memory storage.
type testEnv struct {
	periodRepo   *memPeriodRepo
	originalRepo *memOriginalRepo
	ledgerRepo   *memLedgerRepo
	ruleRepo     *memRuleRepo
	bus          *event.InMemoryEventBus

	periods *BillPeriodService
	bills   *BillService
	rules   *SplitRuleService
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	periodRepo := newMemPeriodRepo()
	originalRepo := &memOriginalRepo{store: periodRepo}
	ledgerRepo := &memLedgerRepo{store: periodRepo}
	ruleRepo := &memRuleRepo{store: periodRepo}
	snapshots := staticSnapshots{snapshot: catalogSnapshot()}

	bus := event.NewInMemoryEventBus(logger)
	bus.Subscribe(NewPeriodCreatedHandler(periodRepo, logger))
	bus.Subscribe(NewPeriodDeletedHandler(originalRepo, ledgerRepo, ruleRepo, logger))
	bus.Subscribe(NewBillValidationHandler(periodRepo, snapshots, logger))
	bus.Subscribe(NewSplitRuleValidationHandler(periodRepo, snapshots, logger))

	tx := shared.NoOpTransactionManager{}
	return &testEnv{
		periodRepo:   periodRepo,
		originalRepo: originalRepo,
		ledgerRepo:   ledgerRepo,
		ruleRepo:     ruleRepo,
		bus:          bus,
		periods:      NewBillPeriodService(periodRepo, tx, bus, logger),
		bills:        NewBillService(periodRepo, originalRepo, ledgerRepo, tx, bus, logger),
		rules:        NewSplitRuleService(periodRepo, ruleRepo, tx, bus, logger),
	}
}

func validRuleRequest(t *testing.T) SplitRuleRequest {
	t.Helper()
	matcher, err := json.Marshal(map[string]string{"provider_name": "aws"})
	require.NoError(t, err)
	return SplitRuleRequest{
		Matcher:     matcher,
		Policy:      json.RawMessage(`{"policies":[{"type":"proportional","business_code":"infra","percent":"1"}]}`),
		Description: "all to infra",
	}
}

func TestBillPeriodService_Create(t *testing.T) {
	t.Run("creates and is retrievable", func(t *testing.T) {
		env := newTestEnv()
		resp, err := env.periods.Create(context.Background(), CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)
		assert.Equal(t, "2021-11", resp.Label)

		got, err := env.periods.GetByID(context.Background(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, resp.ID, got.ID)
	})

	t.Run("second create for the same month is a conflict", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.periods.Create(context.Background(), CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		_, err = env.periods.Create(context.Background(), CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("carries forward the previous period's rules", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()

		nov, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)
		_, err = env.rules.Create(ctx, nov.ID, validRuleRequest(t))
		require.NoError(t, err)
		_, err = env.rules.Create(ctx, nov.ID, validRuleRequest(t))
		require.NoError(t, err)

		dec, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 12})
		require.NoError(t, err)

		carried, err := env.rules.List(ctx, dec.ID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, carried.Items, 2)
		assert.Equal(t, "all to infra", carried.Items[0].Description)
		assert.Equal(t, dec.ID, carried.Items[0].BillPeriodID)

		original, err := env.rules.List(ctx, nov.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.NotEqual(t, original.Items[0].ID, carried.Items[0].ID)
	})

	t.Run("no carry forward without a previous period", func(t *testing.T) {
		env := newTestEnv()
		resp, err := env.periods.Create(context.Background(), CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		rules, err := env.rules.List(context.Background(), resp.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Empty(t, rules.Items)
	})

	t.Run("previous period is chosen by timestamp not creation order", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()

		// December first, then October: October's rules must not leak into
		// December retroactively, and a new November picks October.
		_, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 12})
		require.NoError(t, err)
		oct, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 10})
		require.NoError(t, err)
		_, err = env.rules.Create(ctx, oct.ID, validRuleRequest(t))
		require.NoError(t, err)

		nov, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)

		rules, err := env.rules.List(ctx, nov.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, rules.Items, 1)
	})
}

func TestBillPeriodService_Patch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	nov, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
	require.NoError(t, err)
	dec, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 12})
	require.NoError(t, err)

	t.Run("moving onto an occupied month is a conflict", func(t *testing.T) {
		_, err := env.periods.Patch(ctx, dec.ID, PatchBillPeriodRequest{Year: 2021, Month: 11})
		require.Error(t, err)
	})

	t.Run("re-targeting a free month succeeds", func(t *testing.T) {
		resp, err := env.periods.Patch(ctx, dec.ID, PatchBillPeriodRequest{Year: 2022, Month: 1, Locked: true})
		require.NoError(t, err)
		assert.Equal(t, "2022-01", resp.Label)
		assert.True(t, resp.Locked)
	})

	t.Run("patching the period onto its own month is fine", func(t *testing.T) {
		_, err := env.periods.Patch(ctx, nov.ID, PatchBillPeriodRequest{Year: 2021, Month: 11})
		require.NoError(t, err)
	})
}

func TestBillPeriodService_Delete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
	require.NoError(t, err)
	_, err = env.bills.CreateOriginalBill(ctx, period.ID, BillPayload{ProviderName: "aws", BillSubjectName: "subject-a"})
	require.NoError(t, err)

	require.NoError(t, env.periods.Delete(ctx, period.ID))

	_, err = env.periods.GetByID(ctx, period.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBillPeriodService_LockUnlock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	period, err := env.periods.Create(ctx, CreateBillPeriodRequest{Year: 2021, Month: 11})
	require.NoError(t, err)

	locked, err := env.periods.Lock(ctx, period.ID)
	require.NoError(t, err)
	assert.True(t, locked.Locked)

	// Locked periods refuse bill and rule mutation
	_, err = env.bills.CreateOriginalBill(ctx, period.ID, BillPayload{})
	assert.ErrorIs(t, err, shared.ErrPeriodLocked)
	_, err = env.rules.Create(ctx, period.ID, validRuleRequest(t))
	assert.ErrorIs(t, err, shared.ErrPeriodLocked)

	unlocked, err := env.periods.Unlock(ctx, period.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.Locked)
}
