package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBillPeriodRepository implements billing.BillPeriodRepository using GORM.
// The aggregate's owned collections are stored in the bills and split_rules
// tables; Save replaces them wholesale with the aggregate's current state.
type GormBillPeriodRepository struct {
	db *gorm.DB
}

// NewGormBillPeriodRepository creates a new GormBillPeriodRepository
func NewGormBillPeriodRepository(db *gorm.DB) *GormBillPeriodRepository {
	return &GormBillPeriodRepository{db: db}
}

// FindByID finds a billing period by its ID, with all owned collections loaded
func (r *GormBillPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillPeriod, error) {
	db := dbFromContext(ctx, r.db)

	var model models.BillPeriodModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.loadAggregate(db, &model)
}

// FindByYearMonth finds the billing period for a calendar month
func (r *GormBillPeriodRepository) FindByYearMonth(ctx context.Context, year, month int) (*billing.BillPeriod, error) {
	db := dbFromContext(ctx, r.db)

	var model models.BillPeriodModel
	if err := db.First(&model, "year = ? AND month = ?", year, month).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.loadAggregate(db, &model)
}

// FindPrevious finds the period with the greatest timestamp strictly before
// the given one. Returns nil without error when no earlier period exists.
func (r *GormBillPeriodRepository) FindPrevious(ctx context.Context, before time.Time) (*billing.BillPeriod, error) {
	db := dbFromContext(ctx, r.db)

	var model models.BillPeriodModel
	err := db.Where("timestamp < ?", before).
		Order("timestamp DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.loadAggregate(db, &model)
}

// FindAll finds billing periods matching the filter, without collections
func (r *GormBillPeriodRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[billing.BillPeriod], error) {
	db := dbFromContext(ctx, r.db)

	query := db.Model(&models.BillPeriodModel{})
	if filter.Search != "" {
		if year, month, ok := parsePeriodLabel(filter.Search); ok {
			query = query.Where("year = ? AND month = ?", year, month)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BillPeriodSortFields, "timestamp")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var periodModels []models.BillPeriodModel
	if err := query.Find(&periodModels).Error; err != nil {
		return nil, err
	}

	periods := make([]billing.BillPeriod, len(periodModels))
	for i, model := range periodModels {
		periods[i] = *model.ToDomain()
	}
	result := shared.NewPaginated(periods, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Save creates or updates the period and replaces its stored collections
func (r *GormBillPeriodRepository) Save(ctx context.Context, period *billing.BillPeriod) error {
	db := dbFromContext(ctx, r.db)

	var model models.BillPeriodModel
	model.FromDomain(period)
	if err := db.Save(&model).Error; err != nil {
		return err
	}

	if err := db.Delete(&models.BillModel{}, "bill_period_id = ?", period.ID).Error; err != nil {
		return err
	}
	if err := db.Delete(&models.SplitRuleModel{}, "bill_period_id = ?", period.ID).Error; err != nil {
		return err
	}

	billModels := make([]*models.BillModel, 0, len(period.OriginalBills)+len(period.LedgerBills))
	for i := range period.OriginalBills {
		var bm models.BillModel
		bm.FromOriginalBill(&period.OriginalBills[i])
		billModels = append(billModels, &bm)
	}
	for i := range period.LedgerBills {
		var bm models.BillModel
		bm.FromLedgerBill(&period.LedgerBills[i])
		billModels = append(billModels, &bm)
	}
	if len(billModels) > 0 {
		if err := db.CreateInBatches(billModels, 500).Error; err != nil {
			return err
		}
	}

	ruleModels := make([]*models.SplitRuleModel, 0, len(period.SplitRules))
	for i := range period.SplitRules {
		var rm models.SplitRuleModel
		rm.FromDomain(&period.SplitRules[i])
		ruleModels = append(ruleModels, &rm)
	}
	if len(ruleModels) > 0 {
		if err := db.CreateInBatches(ruleModels, 500).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete deletes the period and cascades to its bills and rules
func (r *GormBillPeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)

	if err := db.Delete(&models.BillModel{}, "bill_period_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Delete(&models.SplitRuleModel{}, "bill_period_id = ?", id).Error; err != nil {
		return err
	}
	result := db.Delete(&models.BillPeriodModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormBillPeriodRepository) loadAggregate(db *gorm.DB, model *models.BillPeriodModel) (*billing.BillPeriod, error) {
	period := model.ToDomain()

	var billModels []models.BillModel
	if err := db.Where("bill_period_id = ?", model.ID).
		Order("created_at ASC, id ASC").
		Find(&billModels).Error; err != nil {
		return nil, err
	}
	for i := range billModels {
		switch billModels[i].Kind {
		case models.BillKindOriginal:
			period.OriginalBills = append(period.OriginalBills, *billModels[i].ToOriginalBill())
		case models.BillKindLedger:
			period.LedgerBills = append(period.LedgerBills, *billModels[i].ToLedgerBill())
		}
	}

	var ruleModels []models.SplitRuleModel
	if err := db.Where("bill_period_id = ?", model.ID).
		Order("created_at ASC, id ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}
	for i := range ruleModels {
		period.SplitRules = append(period.SplitRules, *ruleModels[i].ToDomain())
	}
	return period, nil
}

// parsePeriodLabel parses a "YYYY-MM" search term
func parsePeriodLabel(label string) (year, month int, ok bool) {
	if _, err := fmt.Sscanf(label, "%d-%d", &year, &month); err != nil {
		return 0, 0, false
	}
	return year, month, true
}

var _ billing.BillPeriodRepository = (*GormBillPeriodRepository)(nil)
