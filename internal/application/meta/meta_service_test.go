package meta

import (
	"context"
	"testing"

	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMetaRepo struct {
	mock.Mock
}

func (m *mockMetaRepo) FindByID(ctx context.Context, id uuid.UUID) (*meta.Meta, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meta.Meta), args.Error(1)
}

func (m *mockMetaRepo) FindByKind(ctx context.Context, kind meta.Kind) ([]meta.Meta, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]meta.Meta), args.Error(1)
}

func (m *mockMetaRepo) Save(ctx context.Context, entry *meta.Meta) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockMetaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newMeta(t *testing.T, kind meta.Kind, name, code string) meta.Meta {
	t.Helper()
	entry, err := meta.NewMeta(kind, name, name, code)
	require.NoError(t, err)
	return *entry
}

func newService(repo *mockMetaRepo) *MetaService {
	return NewMetaService(repo, shared.NoOpTransactionManager{}, zap.NewNop())
}

func TestMetaService_List(t *testing.T) {
	t.Run("returns entries of the kind", func(t *testing.T) {
		repo := new(mockMetaRepo)
		repo.On("FindByKind", mock.Anything, meta.KindProvider).
			Return([]meta.Meta{newMeta(t, meta.KindProvider, "aws", "")}, nil)

		out, err := newService(repo).List(context.Background(), meta.KindProvider)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "aws", out[0].Name)
	})

	t.Run("unknown kind", func(t *testing.T) {
		repo := new(mockMetaRepo)
		_, err := newService(repo).List(context.Background(), meta.Kind("COLOR"))
		require.Error(t, err)
		repo.AssertNotCalled(t, "FindByKind")
	})
}

func TestMetaService_Create(t *testing.T) {
	t.Run("valid entry is saved", func(t *testing.T) {
		repo := new(mockMetaRepo)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*meta.Meta")).Return(nil)

		out, err := newService(repo).Create(context.Background(), CreateMetaRequest{
			Kind: meta.KindBusiness, Name: "Infrastructure", Code: "infra",
		})
		require.NoError(t, err)
		assert.Equal(t, "infra", out.Code)
		repo.AssertExpectations(t)
	})

	t.Run("business without a code is rejected", func(t *testing.T) {
		repo := new(mockMetaRepo)
		_, err := newService(repo).Create(context.Background(), CreateMetaRequest{
			Kind: meta.KindBusiness, Name: "Infrastructure",
		})
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestMetaService_SyncBusinesses(t *testing.T) {
	existing := func(t *testing.T) []meta.Meta {
		return []meta.Meta{
			newMeta(t, meta.KindBusiness, "Infrastructure", "infra"),
			newMeta(t, meta.KindBusiness, "Operations", "ops"),
		}
	}

	t.Run("inserts new codes", func(t *testing.T) {
		repo := new(mockMetaRepo)
		repo.On("FindByKind", mock.Anything, meta.KindBusiness).Return(existing(t), nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(m *meta.Meta) bool {
			return m.Code == "payment"
		})).Return(nil)

		err := newService(repo).SyncBusinesses(context.Background(), []BusinessRecord{
			{Code: "infra", Name: "Infrastructure", FullName: "Infrastructure"},
			{Code: "ops", Name: "Operations", FullName: "Operations"},
			{Code: "payment", Name: "Payments", FullName: "Payments"},
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("renames changed codes in place", func(t *testing.T) {
		repo := new(mockMetaRepo)
		repo.On("FindByKind", mock.Anything, meta.KindBusiness).Return(existing(t), nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(m *meta.Meta) bool {
			return m.Code == "ops" && m.Name == "Platform Operations"
		})).Return(nil)

		err := newService(repo).SyncBusinesses(context.Background(), []BusinessRecord{
			{Code: "infra", Name: "Infrastructure", FullName: "Infrastructure"},
			{Code: "ops", Name: "Platform Operations", FullName: "Platform Operations"},
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
		repo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("removes codes absent from the listing", func(t *testing.T) {
		repo := new(mockMetaRepo)
		rows := existing(t)
		repo.On("FindByKind", mock.Anything, meta.KindBusiness).Return(rows, nil)
		repo.On("Delete", mock.Anything, rows[1].ID).Return(nil)

		err := newService(repo).SyncBusinesses(context.Background(), []BusinessRecord{
			{Code: "infra", Name: "Infrastructure", FullName: "Infrastructure"},
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("unchanged listing writes nothing", func(t *testing.T) {
		repo := new(mockMetaRepo)
		repo.On("FindByKind", mock.Anything, meta.KindBusiness).Return(existing(t), nil)

		err := newService(repo).SyncBusinesses(context.Background(), []BusinessRecord{
			{Code: "infra", Name: "Infrastructure", FullName: "Infrastructure"},
			{Code: "ops", Name: "Operations", FullName: "Operations"},
		})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Save")
		repo.AssertNotCalled(t, "Delete")
	})
}

func TestCatalogSnapshotProvider(t *testing.T) {
	repo := new(mockMetaRepo)
	repo.On("FindByKind", mock.Anything, meta.KindBusiness).
		Return([]meta.Meta{newMeta(t, meta.KindBusiness, "Infrastructure", "infra")}, nil)
	repo.On("FindByKind", mock.Anything, meta.KindBillSubject).
		Return([]meta.Meta{newMeta(t, meta.KindBillSubject, "subject-a", "")}, nil)
	repo.On("FindByKind", mock.Anything, meta.KindProvider).
		Return([]meta.Meta{newMeta(t, meta.KindProvider, "aws", "")}, nil)

	snapshot, err := NewCatalogSnapshotProvider(repo).Snapshot(context.Background())
	require.NoError(t, err)

	ok, _ := snapshot.IsBusinessValid("infra")
	assert.True(t, ok)
	ok, _ = snapshot.IsBillSubjectValid("subject-a")
	assert.True(t, ok)
	ok, _ = snapshot.IsProviderValid("aws")
	assert.True(t, ok)
	ok, _ = snapshot.IsProviderValid("gcp")
	assert.False(t, ok)
}
