package billing

import (
	"encoding/json"
	"time"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBillPeriodRequest creates a billing period for one calendar month
type CreateBillPeriodRequest struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// PatchBillPeriodRequest re-targets a period and sets its lock flag
type PatchBillPeriodRequest struct {
	Year   int  `json:"year" binding:"required"`
	Month  int  `json:"month" binding:"required,min=1,max=12"`
	Locked bool `json:"locked"`
}

// BillPeriodResponse is the list/detail view of a billing period
type BillPeriodResponse struct {
	ID                    uuid.UUID `json:"id"`
	Year                  int       `json:"year"`
	Month                 int       `json:"month"`
	Label                 string    `json:"label"`
	Timestamp             time.Time `json:"timestamp"`
	Locked                bool      `json:"locked"`
	OriginalBillCount     int       `json:"original_bill_count"`
	LedgerBillCount       int       `json:"ledger_bill_count"`
	SplitRuleCount        int       `json:"split_rule_count"`
	AbnormalOriginalBills int       `json:"abnormal_original_bills"`
	AbnormalLedgerBills   int       `json:"abnormal_ledger_bills"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ToBillPeriodResponse converts a period aggregate to its response view
func ToBillPeriodResponse(period *billing.BillPeriod) *BillPeriodResponse {
	return &BillPeriodResponse{
		ID:                    period.ID,
		Year:                  period.Year,
		Month:                 period.Month,
		Label:                 period.Label(),
		Timestamp:             period.Timestamp,
		Locked:                period.Locked,
		OriginalBillCount:     len(period.OriginalBills),
		LedgerBillCount:       len(period.LedgerBills),
		SplitRuleCount:        len(period.SplitRules),
		AbnormalOriginalBills: period.AbnormalOriginalBillCount(),
		AbnormalLedgerBills:   period.AbnormalLedgerBillCount(),
		CreatedAt:             period.CreatedAt,
		UpdatedAt:             period.UpdatedAt,
	}
}

// BillPayload carries the writable fields shared by both bill kinds
type BillPayload struct {
	ContractID      string           `json:"contract_id"`
	ProviderName    string           `json:"provider_name"`
	BillSubjectName string           `json:"bill_subject_name"`
	ServiceType     string           `json:"service_type"`
	ServiceName     string           `json:"service_name"`
	ServiceDetails  string           `json:"service_details"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	BillUnit        string           `json:"bill_unit"`
	StatisticCount  *decimal.Decimal `json:"statistic_count"`
	StatisticUnit   string           `json:"statistic_unit"`
	Total           *decimal.Decimal `json:"total"`
	Discount        *decimal.Decimal `json:"discount"`
	ActuallyPaid    decimal.Decimal  `json:"actually_paid"`
	TypeLevel1      string           `json:"type_level_1"`
	BusinessCode    string           `json:"business_code"`
	BusinessName    string           `json:"business_name"`
	DepartmentName  string           `json:"department_name"`
	Description     string           `json:"description"`
	Tag1            string           `json:"tag1"`
	Tag2            string           `json:"tag2"`
	Tag3            string           `json:"tag3"`
	Tag4            string           `json:"tag4"`
	Tag5            string           `json:"tag5"`
}

// Apply writes the payload's fields onto a bill, leaving identity and
// exception state untouched.
func (p *BillPayload) Apply(bill *billing.Bill) {
	bill.ContractID = p.ContractID
	bill.ProviderName = p.ProviderName
	bill.BillSubjectName = p.BillSubjectName
	bill.ServiceType = p.ServiceType
	bill.ServiceName = p.ServiceName
	bill.ServiceDetails = p.ServiceDetails
	bill.UnitPrice = p.UnitPrice
	bill.BillUnit = p.BillUnit
	bill.StatisticCount = p.StatisticCount
	bill.StatisticUnit = p.StatisticUnit
	bill.Total = p.Total
	bill.Discount = p.Discount
	bill.ActuallyPaid = p.ActuallyPaid
	bill.TypeLevel1 = p.TypeLevel1
	bill.BusinessCode = p.BusinessCode
	bill.BusinessName = p.BusinessName
	bill.DepartmentName = p.DepartmentName
	bill.Description = p.Description
	bill.Tag1 = p.Tag1
	bill.Tag2 = p.Tag2
	bill.Tag3 = p.Tag3
	bill.Tag4 = p.Tag4
	bill.Tag5 = p.Tag5
}

// BillResponse is the read view of a bill of either kind
type BillResponse struct {
	ID           uuid.UUID  `json:"id"`
	BillPeriodID uuid.UUID  `json:"bill_period_id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	BillPayload
	Exception string    `json:"exception"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBillResponse(bill *billing.Bill) *BillResponse {
	return &BillResponse{
		ID:           bill.ID,
		BillPeriodID: bill.BillPeriodID,
		BillPayload: BillPayload{
			ContractID:      bill.ContractID,
			ProviderName:    bill.ProviderName,
			BillSubjectName: bill.BillSubjectName,
			ServiceType:     bill.ServiceType,
			ServiceName:     bill.ServiceName,
			ServiceDetails:  bill.ServiceDetails,
			UnitPrice:       bill.UnitPrice,
			BillUnit:        bill.BillUnit,
			StatisticCount:  bill.StatisticCount,
			StatisticUnit:   bill.StatisticUnit,
			Total:           bill.Total,
			Discount:        bill.Discount,
			ActuallyPaid:    bill.ActuallyPaid,
			TypeLevel1:      bill.TypeLevel1,
			BusinessCode:    bill.BusinessCode,
			BusinessName:    bill.BusinessName,
			DepartmentName:  bill.DepartmentName,
			Description:     bill.Description,
			Tag1:            bill.Tag1,
			Tag2:            bill.Tag2,
			Tag3:            bill.Tag3,
			Tag4:            bill.Tag4,
			Tag5:            bill.Tag5,
		},
		Exception: bill.Exception,
		CreatedAt: bill.CreatedAt,
		UpdatedAt: bill.UpdatedAt,
	}
}

// ToOriginalBillResponse converts an original bill to its response view
func ToOriginalBillResponse(bill *billing.OriginalBill) *BillResponse {
	return toBillResponse(&bill.Bill)
}

// ToLedgerBillResponse converts a ledger bill to its response view
func ToLedgerBillResponse(bill *billing.LedgerBill) *BillResponse {
	resp := toBillResponse(&bill.Bill)
	parentID := bill.ParentID
	resp.ParentID = &parentID
	return resp
}

// SplitRuleRequest carries the writable fields of a split rule
type SplitRuleRequest struct {
	Matcher     json.RawMessage `json:"matcher" binding:"required"`
	Policy      json.RawMessage `json:"policy" binding:"required"`
	Description string          `json:"description"`
}

// SplitRuleResponse is the read view of a split rule
type SplitRuleResponse struct {
	ID           uuid.UUID       `json:"id"`
	BillPeriodID uuid.UUID       `json:"bill_period_id"`
	Matcher      json.RawMessage `json:"matcher"`
	Policy       json.RawMessage `json:"policy"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToSplitRuleResponse converts a split rule to its response view
func ToSplitRuleResponse(rule *billing.SplitRule) *SplitRuleResponse {
	return &SplitRuleResponse{
		ID:           rule.ID,
		BillPeriodID: rule.BillPeriodID,
		Matcher:      rule.Matcher,
		Policy:       rule.Policy,
		Description:  rule.Description,
		CreatedAt:    rule.CreatedAt,
		UpdatedAt:    rule.UpdatedAt,
	}
}
