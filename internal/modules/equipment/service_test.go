package equipment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gearbook/internal/domain"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, tenant domain.TenantID) ([]domain.Equipment, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Equipment, error) {
	args := m.Called(ctx, tenant, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockRepository) FindByIDs(ctx context.Context, tenant domain.TenantID, ids []int64, forUpdate bool) ([]domain.Equipment, error) {
	args := m.Called(ctx, tenant, ids, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, e *domain.Equipment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, e *domain.Equipment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, tenant domain.TenantID, id int64) (int64, error) {
	args := m.Called(ctx, tenant, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) EquipmentHolds(ctx context.Context, tenant domain.TenantID, equipmentID int64) ([]domain.Hold, error) {
	args := m.Called(ctx, tenant, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Hold), args.Error(1)
}

// inlineTx runs fn directly on the caller's context.
type inlineTx struct{}

func (inlineTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestCreate_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(e *domain.Equipment) bool {
		return e.TenantID == 3 && e.Name == "Tripod" && e.TotalQty == 4
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Equipment).ID = 11
	}).Return(nil)

	e, err := svc.Create(ctx, 3, Input{Name: "  Tripod ", TotalQty: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(11), e.ID)
	assert.Equal(t, "Tripod", e.Name)
	repo.AssertExpectations(t)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})

	_, err := svc.Create(context.Background(), 1, Input{Name: "   ", TotalQty: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), 1, Input{Name: "Lens", TotalQty: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), 0, Input{Name: "Lens", TotalQty: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGet_OtherTenantIsNotFound(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})
	ctx := context.Background()

	repo.On("GetByID", ctx, domain.TenantID(2), int64(5)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Get(ctx, 2, 5)
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})
	ctx := context.Background()

	repo.On("List", ctx, domain.TenantID(1)).Return(nil, nil)

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDelete_ReferencedEquipment(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})
	ctx := context.Background()

	repo.On("GetByID", ctx, domain.TenantID(1), int64(7)).Return(&domain.Equipment{ID: 7, TenantID: 1}, nil)
	repo.On("IsReferenced", ctx, int64(7)).Return(true, nil)

	err := svc.Delete(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrEquipmentInUse)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_ForeignKeyRaceIsInUse(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})
	ctx := context.Background()

	repo.On("GetByID", ctx, domain.TenantID(1), int64(7)).Return(&domain.Equipment{ID: 7, TenantID: 1}, nil)
	repo.On("IsReferenced", ctx, int64(7)).Return(false, nil)
	repo.On("Delete", ctx, domain.TenantID(1), int64(7)).Return(int64(0), gorm.ErrForeignKeyViolated)

	err := svc.Delete(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrEquipmentInUse)
}

func TestDelete_RepositoryErrorPassesThrough(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})
	ctx := context.Background()
	boom := errors.New("disk full")

	repo.On("GetByID", ctx, domain.TenantID(1), int64(7)).Return(&domain.Equipment{ID: 7, TenantID: 1}, nil)
	repo.On("IsReferenced", ctx, int64(7)).Return(false, nil)
	repo.On("Delete", ctx, domain.TenantID(1), int64(7)).Return(int64(0), boom)

	err := svc.Delete(ctx, 1, 7)
	assert.ErrorIs(t, err, boom)
}

func TestUpdate_ReplacesFields(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	svc := NewService(repo, ledger, inlineTx{})
	ctx := context.Background()

	repo.On("FindByIDs", ctx, domain.TenantID(1), []int64{9}, true).
		Return([]domain.Equipment{{ID: 9, TenantID: 1, Name: "Old", TotalQty: 1}}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(e *domain.Equipment) bool {
		return e.ID == 9 && e.Name == "New" && e.TotalQty == 6 && e.Category == "audio"
	})).Return(nil)
	repo.On("GetByID", ctx, domain.TenantID(1), int64(9)).
		Return(&domain.Equipment{ID: 9, TenantID: 1, Name: "New", Category: "audio", TotalQty: 6}, nil)

	e, err := svc.Update(ctx, 1, 9, Input{Name: "New", Category: "audio", TotalQty: 6})
	require.NoError(t, err)
	assert.Equal(t, "New", e.Name)
	repo.AssertExpectations(t)
	// raising capacity never needs the ledger
	ledger.AssertNotCalled(t, "EquipmentHolds", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_LoweringChecksConfirmedPeak(t *testing.T) {
	june := func(d int) time.Time { return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC) }
	holds := []domain.Hold{
		{Window: domain.Window{Start: june(1), End: june(10)}, Qty: 3},
		{Window: domain.Window{Start: june(5), End: june(12)}, Qty: 2},
		{Window: domain.Window{Start: june(12), End: june(20)}, Qty: 4},
	}

	cases := map[string]struct {
		total   int
		wantErr bool
	}{
		"below peak": {4, true},
		"zero":       {0, true},
		"at peak":    {5, false},
		"above peak": {6, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := new(MockRepository)
			ledger := new(MockLedger)
			svc := NewService(repo, ledger, inlineTx{})
			ctx := context.Background()

			repo.On("FindByIDs", ctx, domain.TenantID(1), []int64{7}, true).
				Return([]domain.Equipment{{ID: 7, TenantID: 1, Name: "Camera", TotalQty: 8}}, nil)
			ledger.On("EquipmentHolds", ctx, domain.TenantID(1), int64(7)).Return(holds, nil)
			if !tc.wantErr {
				repo.On("Update", ctx, mock.Anything).Return(nil)
				repo.On("GetByID", ctx, domain.TenantID(1), int64(7)).
					Return(&domain.Equipment{ID: 7, TenantID: 1, Name: "Camera", TotalQty: tc.total}, nil)
			}

			_, err := svc.Update(ctx, 1, 7, Input{Name: "Camera", TotalQty: tc.total})
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrBelowCommitted)
			var below *BelowCommittedError
			require.True(t, errors.As(err, &below))
			assert.Equal(t, 5, below.Committed)
			assert.Equal(t, tc.total, below.Requested)
			assert.True(t, below.PeakAt.Equal(june(5)))
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdate_MissingOrForeignEquipment(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockLedger), inlineTx{})
	ctx := context.Background()

	repo.On("FindByIDs", ctx, domain.TenantID(2), []int64{9}, true).Return([]domain.Equipment{}, nil)

	_, err := svc.Update(ctx, 2, 9, Input{Name: "Lens", TotalQty: 1})
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
