package persistence

import (
	"context"
	"errors"

	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMetaRepository implements meta.Repository using GORM
type GormMetaRepository struct {
	db *gorm.DB
}

// NewGormMetaRepository creates a new GormMetaRepository
func NewGormMetaRepository(db *gorm.DB) *GormMetaRepository {
	return &GormMetaRepository{db: db}
}

// FindByID finds a catalog entry by its ID
func (r *GormMetaRepository) FindByID(ctx context.Context, id uuid.UUID) (*meta.Meta, error) {
	db := dbFromContext(ctx, r.db)
	var model models.MetaModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKind returns all entries of one catalog in creation order
func (r *GormMetaRepository) FindByKind(ctx context.Context, kind meta.Kind) ([]meta.Meta, error) {
	db := dbFromContext(ctx, r.db)
	var metaModels []models.MetaModel
	if err := db.Where("kind = ?", string(kind)).
		Order("created_at ASC, id ASC").
		Find(&metaModels).Error; err != nil {
		return nil, err
	}
	entries := make([]meta.Meta, len(metaModels))
	for i := range metaModels {
		entries[i] = *metaModels[i].ToDomain()
	}
	return entries, nil
}

// Save creates or updates a catalog entry
func (r *GormMetaRepository) Save(ctx context.Context, entry *meta.Meta) error {
	db := dbFromContext(ctx, r.db)
	var model models.MetaModel
	model.FromDomain(entry)
	return db.Save(&model).Error
}

// Delete removes a catalog entry
func (r *GormMetaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	result := db.Delete(&models.MetaModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ meta.Repository = (*GormMetaRepository)(nil)
