package persistence

import (
	"context"
	"errors"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOriginalBillRepository implements billing.OriginalBillRepository using GORM
type GormOriginalBillRepository struct {
	db *gorm.DB
}

// NewGormOriginalBillRepository creates a new GormOriginalBillRepository
func NewGormOriginalBillRepository(db *gorm.DB) *GormOriginalBillRepository {
	return &GormOriginalBillRepository{db: db}
}

// FindByID finds an original bill by its ID
func (r *GormOriginalBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.OriginalBill, error) {
	model, err := findBill(ctx, r.db, id, models.BillKindOriginal)
	if err != nil {
		return nil, err
	}
	return model.ToOriginalBill(), nil
}

// FindByPeriod finds original bills of a period matching the filter
func (r *GormOriginalBillRepository) FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.OriginalBill], error) {
	billModels, total, err := findBillsByPeriod(ctx, r.db, periodID, models.BillKindOriginal, filter)
	if err != nil {
		return nil, err
	}
	bills := make([]billing.OriginalBill, len(billModels))
	for i := range billModels {
		bills[i] = *billModels[i].ToOriginalBill()
	}
	result := shared.NewPaginated(bills, total, filter.Page, filter.PageSize)
	return &result, nil
}

// FindAllByPeriod finds every original bill of a period
func (r *GormOriginalBillRepository) FindAllByPeriod(ctx context.Context, periodID uuid.UUID) ([]billing.OriginalBill, error) {
	billModels, err := findAllBillsByPeriod(ctx, r.db, periodID, models.BillKindOriginal)
	if err != nil {
		return nil, err
	}
	bills := make([]billing.OriginalBill, len(billModels))
	for i := range billModels {
		bills[i] = *billModels[i].ToOriginalBill()
	}
	return bills, nil
}

// DeleteByPeriod deletes every original bill of a period
func (r *GormOriginalBillRepository) DeleteByPeriod(ctx context.Context, periodID uuid.UUID) error {
	return deleteBillsByPeriod(ctx, r.db, periodID, models.BillKindOriginal)
}

// GormLedgerBillRepository implements billing.LedgerBillRepository using GORM
type GormLedgerBillRepository struct {
	db *gorm.DB
}

// NewGormLedgerBillRepository creates a new GormLedgerBillRepository
func NewGormLedgerBillRepository(db *gorm.DB) *GormLedgerBillRepository {
	return &GormLedgerBillRepository{db: db}
}

// FindByID finds a ledger bill by its ID
func (r *GormLedgerBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.LedgerBill, error) {
	model, err := findBill(ctx, r.db, id, models.BillKindLedger)
	if err != nil {
		return nil, err
	}
	return model.ToLedgerBill(), nil
}

// FindByPeriod finds ledger bills of a period matching the filter
func (r *GormLedgerBillRepository) FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.LedgerBill], error) {
	billModels, total, err := findBillsByPeriod(ctx, r.db, periodID, models.BillKindLedger, filter)
	if err != nil {
		return nil, err
	}
	bills := make([]billing.LedgerBill, len(billModels))
	for i := range billModels {
		bills[i] = *billModels[i].ToLedgerBill()
	}
	result := shared.NewPaginated(bills, total, filter.Page, filter.PageSize)
	return &result, nil
}

// FindAllByPeriod finds every ledger bill of a period
func (r *GormLedgerBillRepository) FindAllByPeriod(ctx context.Context, periodID uuid.UUID) ([]billing.LedgerBill, error) {
	billModels, err := findAllBillsByPeriod(ctx, r.db, periodID, models.BillKindLedger)
	if err != nil {
		return nil, err
	}
	bills := make([]billing.LedgerBill, len(billModels))
	for i := range billModels {
		bills[i] = *billModels[i].ToLedgerBill()
	}
	return bills, nil
}

// DeleteByPeriod deletes every ledger bill of a period
func (r *GormLedgerBillRepository) DeleteByPeriod(ctx context.Context, periodID uuid.UUID) error {
	return deleteBillsByPeriod(ctx, r.db, periodID, models.BillKindLedger)
}

func findBill(ctx context.Context, fallback *gorm.DB, id uuid.UUID, kind string) (*models.BillModel, error) {
	db := dbFromContext(ctx, fallback)
	var model models.BillModel
	if err := db.First(&model, "id = ? AND kind = ?", id, kind).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

func findBillsByPeriod(ctx context.Context, fallback *gorm.DB, periodID uuid.UUID, kind string, filter shared.Filter) ([]models.BillModel, int64, error) {
	db := dbFromContext(ctx, fallback)
	query := db.Model(&models.BillModel{}).Where("bill_period_id = ? AND kind = ?", periodID, kind)
	query = applyBillSearch(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir + ", id ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var billModels []models.BillModel
	if err := query.Find(&billModels).Error; err != nil {
		return nil, 0, err
	}
	return billModels, total, nil
}

func findAllBillsByPeriod(ctx context.Context, fallback *gorm.DB, periodID uuid.UUID, kind string) ([]models.BillModel, error) {
	db := dbFromContext(ctx, fallback)
	var billModels []models.BillModel
	if err := db.Where("bill_period_id = ? AND kind = ?", periodID, kind).
		Order("created_at ASC, id ASC").
		Find(&billModels).Error; err != nil {
		return nil, err
	}
	return billModels, nil
}

func deleteBillsByPeriod(ctx context.Context, fallback *gorm.DB, periodID uuid.UUID, kind string) error {
	db := dbFromContext(ctx, fallback)
	return db.Delete(&models.BillModel{}, "bill_period_id = ? AND kind = ?", periodID, kind).Error
}

func applyBillSearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"provider_name LIKE ? OR bill_subject_name LIKE ? OR service_name LIKE ? OR business_name LIKE ? OR contract_id LIKE ?",
			pattern, pattern, pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "provider_name":
			query = query.Where("provider_name = ?", value)
		case "business_code":
			query = query.Where("business_code = ?", value)
		case "service_type":
			query = query.Where("service_type = ?", value)
		case "abnormal":
			if value == true {
				query = query.Where("exception <> ''")
			} else {
				query = query.Where("exception = ''")
			}
		}
	}
	return query
}

var _ billing.OriginalBillRepository = (*GormOriginalBillRepository)(nil)
var _ billing.LedgerBillRepository = (*GormLedgerBillRepository)(nil)
