package models

import (
	"github.com/costledger/backend/internal/domain/meta"
)

// MetaModel is the GORM model for catalog entries
type MetaModel struct {
	BaseModel
	Kind     string `gorm:"type:varchar(32);not null;index:idx_metas_kind_name,priority:1"`
	Name     string `gorm:"type:varchar(255);not null;index:idx_metas_kind_name,priority:2"`
	FullName string `gorm:"type:varchar(255)"`
	Code     string `gorm:"type:varchar(64)"`
}

// TableName returns the table name for MetaModel
func (MetaModel) TableName() string {
	return "metas"
}

// ToDomain converts to a domain Meta
func (m *MetaModel) ToDomain() *meta.Meta {
	entry := &meta.Meta{
		Kind:     meta.Kind(m.Kind),
		Name:     m.Name,
		FullName: m.FullName,
		Code:     m.Code,
	}
	entry.BaseEntity = m.BaseModel.ToDomain()
	return entry
}

// FromDomain populates the model from a domain Meta
func (m *MetaModel) FromDomain(entry *meta.Meta) {
	m.FromDomainBaseEntity(entry.BaseEntity)
	m.Kind = string(entry.Kind)
	m.Name = entry.Name
	m.FullName = entry.FullName
	m.Code = entry.Code
}
