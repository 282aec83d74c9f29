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

// GormSplitRuleRepository implements billing.SplitRuleRepository using GORM
type GormSplitRuleRepository struct {
	db *gorm.DB
}

// NewGormSplitRuleRepository creates a new GormSplitRuleRepository
func NewGormSplitRuleRepository(db *gorm.DB) *GormSplitRuleRepository {
	return &GormSplitRuleRepository{db: db}
}

// FindByID finds a split rule by its ID
func (r *GormSplitRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.SplitRule, error) {
	db := dbFromContext(ctx, r.db)
	var model models.SplitRuleModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPeriod finds split rules of a period matching the filter
func (r *GormSplitRuleRepository) FindByPeriod(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.SplitRule], error) {
	db := dbFromContext(ctx, r.db)
	query := db.Model(&models.SplitRuleModel{}).Where("bill_period_id = ?", periodID)
	if filter.Search != "" {
		query = query.Where("description LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, SplitRuleSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir + ", id ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var ruleModels []models.SplitRuleModel
	if err := query.Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	rules := make([]billing.SplitRule, len(ruleModels))
	for i := range ruleModels {
		rules[i] = *ruleModels[i].ToDomain()
	}
	result := shared.NewPaginated(rules, total, filter.Page, filter.PageSize)
	return &result, nil
}

// FindAllByPeriod finds every split rule of a period in creation order
func (r *GormSplitRuleRepository) FindAllByPeriod(ctx context.Context, periodID uuid.UUID) ([]billing.SplitRule, error) {
	db := dbFromContext(ctx, r.db)
	var ruleModels []models.SplitRuleModel
	if err := db.Where("bill_period_id = ?", periodID).
		Order("created_at ASC, id ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}
	rules := make([]billing.SplitRule, len(ruleModels))
	for i := range ruleModels {
		rules[i] = *ruleModels[i].ToDomain()
	}
	return rules, nil
}

// DeleteByPeriod deletes every split rule of a period
func (r *GormSplitRuleRepository) DeleteByPeriod(ctx context.Context, periodID uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	return db.Delete(&models.SplitRuleModel{}, "bill_period_id = ?", periodID).Error
}

var _ billing.SplitRuleRepository = (*GormSplitRuleRepository)(nil)
