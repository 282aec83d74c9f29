package models

import (
	"encoding/json"
	"time"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill kind discriminators for the shared bills table
const (
	BillKindOriginal = "original"
	BillKindLedger   = "ledger"
)

// BillPeriodModel is the GORM model for billing periods
type BillPeriodModel struct {
	BaseModel
	Year      int       `gorm:"not null;uniqueIndex:idx_bill_periods_year_month,priority:1"`
	Month     int       `gorm:"not null;uniqueIndex:idx_bill_periods_year_month,priority:2"`
	Timestamp time.Time `gorm:"not null;index"`
	Locked    bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for BillPeriodModel
func (BillPeriodModel) TableName() string {
	return "bill_periods"
}

// ToDomain converts to a domain BillPeriod without its collections
func (m *BillPeriodModel) ToDomain() *billing.BillPeriod {
	period := &billing.BillPeriod{
		Year:      m.Year,
		Month:     m.Month,
		Timestamp: m.Timestamp,
		Locked:    m.Locked,
	}
	period.ID = m.ID
	period.CreatedAt = m.CreatedAt
	period.UpdatedAt = m.UpdatedAt
	return period
}

// FromDomain populates the model from a domain BillPeriod
func (m *BillPeriodModel) FromDomain(period *billing.BillPeriod) {
	m.FromDomainBaseEntity(period.BaseEntity)
	m.Year = period.Year
	m.Month = period.Month
	m.Timestamp = period.Timestamp
	m.Locked = period.Locked
}

// BillModel is the GORM model for both original and ledger bills. The
// two kinds share one table, discriminated by Kind; ParentID is set on
// ledger bills only.
type BillModel struct {
	BaseModel
	BillPeriodID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_bills_period_kind,priority:1"`
	Kind            string     `gorm:"type:varchar(16);not null;index:idx_bills_period_kind,priority:2"`
	ParentID        *uuid.UUID `gorm:"type:uuid;index"`
	ContractID      string     `gorm:"type:varchar(255)"`
	ProviderName    string     `gorm:"type:varchar(255)"`
	BillSubjectName string     `gorm:"type:varchar(255)"`
	ServiceType     string     `gorm:"type:varchar(255)"`
	ServiceName     string     `gorm:"type:varchar(255)"`
	ServiceDetails  string     `gorm:"type:text"`
	UnitPrice       *decimal.Decimal `gorm:"type:decimal(20,6)"`
	BillUnit        string           `gorm:"type:varchar(64)"`
	StatisticCount  *decimal.Decimal `gorm:"type:decimal(20,6)"`
	StatisticUnit   string           `gorm:"type:varchar(64)"`
	Total           *decimal.Decimal `gorm:"type:decimal(20,2)"`
	Discount        *decimal.Decimal `gorm:"type:decimal(20,2)"`
	ActuallyPaid    decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0"`
	TypeLevel1      string           `gorm:"type:varchar(255)"`
	BusinessCode    string           `gorm:"type:varchar(64);index"`
	BusinessName    string           `gorm:"type:varchar(255)"`
	DepartmentName  string           `gorm:"type:varchar(255)"`
	Description     string           `gorm:"type:text"`
	Exception       string           `gorm:"type:text"`
	Tag1            string           `gorm:"type:varchar(255)"`
	Tag2            string           `gorm:"type:varchar(255)"`
	Tag3            string           `gorm:"type:varchar(255)"`
	Tag4            string           `gorm:"type:varchar(255)"`
	Tag5            string           `gorm:"type:varchar(255)"`
}

// TableName returns the table name for BillModel
func (BillModel) TableName() string {
	return "bills"
}

func (m *BillModel) toDomainBill() billing.Bill {
	return billing.Bill{
		BaseEntity:      m.ToDomain(),
		BillPeriodID:    m.BillPeriodID,
		ContractID:      m.ContractID,
		ProviderName:    m.ProviderName,
		BillSubjectName: m.BillSubjectName,
		ServiceType:     m.ServiceType,
		ServiceName:     m.ServiceName,
		ServiceDetails:  m.ServiceDetails,
		UnitPrice:       m.UnitPrice,
		BillUnit:        m.BillUnit,
		StatisticCount:  m.StatisticCount,
		StatisticUnit:   m.StatisticUnit,
		Total:           m.Total,
		Discount:        m.Discount,
		ActuallyPaid:    m.ActuallyPaid,
		TypeLevel1:      m.TypeLevel1,
		BusinessCode:    m.BusinessCode,
		BusinessName:    m.BusinessName,
		DepartmentName:  m.DepartmentName,
		Description:     m.Description,
		Exception:       m.Exception,
		Tag1:            m.Tag1,
		Tag2:            m.Tag2,
		Tag3:            m.Tag3,
		Tag4:            m.Tag4,
		Tag5:            m.Tag5,
	}
}

func (m *BillModel) fromDomainBill(bill *billing.Bill) {
	m.FromDomainBaseEntity(bill.BaseEntity)
	m.BillPeriodID = bill.BillPeriodID
	m.ContractID = bill.ContractID
	m.ProviderName = bill.ProviderName
	m.BillSubjectName = bill.BillSubjectName
	m.ServiceType = bill.ServiceType
	m.ServiceName = bill.ServiceName
	m.ServiceDetails = bill.ServiceDetails
	m.UnitPrice = bill.UnitPrice
	m.BillUnit = bill.BillUnit
	m.StatisticCount = bill.StatisticCount
	m.StatisticUnit = bill.StatisticUnit
	m.Total = bill.Total
	m.Discount = bill.Discount
	m.ActuallyPaid = bill.ActuallyPaid
	m.TypeLevel1 = bill.TypeLevel1
	m.BusinessCode = bill.BusinessCode
	m.BusinessName = bill.BusinessName
	m.DepartmentName = bill.DepartmentName
	m.Description = bill.Description
	m.Exception = bill.Exception
	m.Tag1 = bill.Tag1
	m.Tag2 = bill.Tag2
	m.Tag3 = bill.Tag3
	m.Tag4 = bill.Tag4
	m.Tag5 = bill.Tag5
}

// ToOriginalBill converts to a domain OriginalBill
func (m *BillModel) ToOriginalBill() *billing.OriginalBill {
	return &billing.OriginalBill{Bill: m.toDomainBill()}
}

// ToLedgerBill converts to a domain LedgerBill
func (m *BillModel) ToLedgerBill() *billing.LedgerBill {
	ledger := &billing.LedgerBill{Bill: m.toDomainBill()}
	if m.ParentID != nil {
		ledger.ParentID = *m.ParentID
	}
	return ledger
}

// FromOriginalBill populates the model from a domain OriginalBill
func (m *BillModel) FromOriginalBill(bill *billing.OriginalBill) {
	m.fromDomainBill(&bill.Bill)
	m.Kind = BillKindOriginal
	m.ParentID = nil
}

// FromLedgerBill populates the model from a domain LedgerBill
func (m *BillModel) FromLedgerBill(bill *billing.LedgerBill) {
	m.fromDomainBill(&bill.Bill)
	m.Kind = BillKindLedger
	if bill.ParentID != uuid.Nil {
		parentID := bill.ParentID
		m.ParentID = &parentID
	} else {
		m.ParentID = nil
	}
}

// SplitRuleModel is the GORM model for split rules. Matcher and policy
// payloads are stored as raw JSON exactly as the domain holds them.
type SplitRuleModel struct {
	BaseModel
	BillPeriodID uuid.UUID `gorm:"type:uuid;not null;index"`
	Matcher      []byte    `gorm:"type:jsonb"`
	Policy       []byte    `gorm:"type:jsonb"`
	Description  string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for SplitRuleModel
func (SplitRuleModel) TableName() string {
	return "split_rules"
}

// ToDomain converts to a domain SplitRule
func (m *SplitRuleModel) ToDomain() *billing.SplitRule {
	rule := &billing.SplitRule{
		BillPeriodID: m.BillPeriodID,
		Matcher:      json.RawMessage(m.Matcher),
		Policy:       json.RawMessage(m.Policy),
		Description:  m.Description,
	}
	rule.BaseEntity = m.BaseModel.ToDomain()
	return rule
}

// FromDomain populates the model from a domain SplitRule
func (m *SplitRuleModel) FromDomain(rule *billing.SplitRule) {
	m.FromDomainBaseEntity(rule.BaseEntity)
	m.BillPeriodID = rule.BillPeriodID
	m.Matcher = []byte(rule.Matcher)
	m.Policy = []byte(rule.Policy)
	m.Description = rule.Description
}
