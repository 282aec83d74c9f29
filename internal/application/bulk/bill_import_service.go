package bulk

import (
	"context"
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/infrastructure/bulk"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Original bill CSV columns
const (
	colContractID      = "contract_id"
	colProviderName    = "provider_name"
	colBillSubjectName = "bill_subject_name"
	colServiceType     = "service_type"
	colServiceName     = "service_name"
	colServiceDetails  = "service_details"
	colUnitPrice       = "unit_price"
	colBillUnit        = "bill_unit"
	colStatisticCount  = "statistic_count"
	colStatisticUnit   = "statistic_unit"
	colTotal           = "total"
	colDiscount        = "discount"
	colActuallyPaid    = "actually_paid"
	colTypeLevel1      = "type_level_1"
	colBusinessCode    = "business_code"
	colBusinessName    = "business_name"
	colDepartmentName  = "department_name"
	colDescription     = "description"
)

var tagColumns = []string{"tag1", "tag2", "tag3", "tag4", "tag5"}

// ImportResult summarizes one bulk import
type ImportResult struct {
	TotalRows    int `json:"total_rows"`
	ImportedRows int `json:"imported_rows"`
	AbnormalRows int `json:"abnormal_rows"`
}

// BillImportService imports and exports a period's original bills as CSV.
// Import is a full replacement of the period's original bills through the
// aggregate, so every imported bill is validated by the usual reactions.
type BillImportService struct {
	periodRepo billing.BillPeriodRepository
	txManager  shared.TransactionManager
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewBillImportService creates a new BillImportService
func NewBillImportService(
	periodRepo billing.BillPeriodRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *BillImportService {
	return &BillImportService{
		periodRepo: periodRepo,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger,
	}
}

// ImportOriginalBills replaces a period's original bills with the rows
// of a CSV document. Numeric fields that fail to parse are coerced:
// optional amounts are blanked and the failure is noted on the bill's
// exception field, so one bad cell never blocks the rest of the file.
func (s *BillImportService) ImportOriginalBills(ctx context.Context, periodID uuid.UUID, data []byte) (*ImportResult, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Locked {
		return nil, shared.ErrPeriodLocked
	}

	reader, err := bulk.NewReaderFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_IMPORT_FILE", err.Error())
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_IMPORT_FILE", err.Error())
	}

	bills := make([]billing.OriginalBill, 0, len(rows))
	abnormal := 0
	for _, row := range rows {
		bill := rowToOriginalBill(row)
		if bill.HasException() {
			abnormal++
		}
		bills = append(bills, *bill)
	}

	period.SetOriginalBills(bills)

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Save(ctx, period); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Original bills imported",
		zap.String("period", period.Label()),
		zap.Int("rows", len(rows)),
		zap.Int("coercion_failures", abnormal))

	return &ImportResult{
		TotalRows:    len(rows),
		ImportedRows: len(bills),
		AbnormalRows: abnormal,
	}, nil
}

// rowToOriginalBill maps one CSV row onto a fresh original bill,
// coercing the numeric columns.
func rowToOriginalBill(row bulk.Row) *billing.OriginalBill {
	bill := billing.NewOriginalBill()
	bill.ContractID = row.Get(colContractID)
	bill.ProviderName = row.Get(colProviderName)
	bill.BillSubjectName = row.Get(colBillSubjectName)
	bill.ServiceType = row.Get(colServiceType)
	bill.ServiceName = row.Get(colServiceName)
	bill.ServiceDetails = row.Get(colServiceDetails)
	bill.BillUnit = row.Get(colBillUnit)
	bill.StatisticUnit = row.Get(colStatisticUnit)
	bill.TypeLevel1 = row.Get(colTypeLevel1)
	bill.BusinessCode = row.Get(colBusinessCode)
	bill.BusinessName = row.Get(colBusinessName)
	bill.DepartmentName = row.Get(colDepartmentName)
	bill.Description = row.Get(colDescription)

	tags := []*string{&bill.Tag1, &bill.Tag2, &bill.Tag3, &bill.Tag4, &bill.Tag5}
	for i, col := range tagColumns {
		*tags[i] = row.Get(col)
	}

	bill.UnitPrice = coerceOptionalDecimal(&bill.Bill, colUnitPrice, row.Get(colUnitPrice))
	bill.StatisticCount = coerceOptionalDecimal(&bill.Bill, colStatisticCount, row.Get(colStatisticCount))
	bill.Total = coerceOptionalDecimal(&bill.Bill, colTotal, row.Get(colTotal))
	bill.Discount = coerceOptionalDecimal(&bill.Bill, colDiscount, row.Get(colDiscount))

	if raw := row.Get(colActuallyPaid); raw != "" {
		paid, err := decimal.NewFromString(raw)
		if err != nil {
			bill.AppendException(fmt.Sprintf("column %s: %q is not a number, treated as 0", colActuallyPaid, raw))
		} else {
			bill.ActuallyPaid = paid
		}
	} else {
		bill.AppendException(fmt.Sprintf("column %s is empty, treated as 0", colActuallyPaid))
	}
	return bill
}

// coerceOptionalDecimal parses an optional amount cell. An unparsable
// value is blanked and recorded on the bill instead of failing the row.
func coerceOptionalDecimal(bill *billing.Bill, column, raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		bill.AppendException(fmt.Sprintf("column %s: %q is not a number, field blanked", column, raw))
		return nil
	}
	return &value
}

// ExportOriginalBills renders a period's original bills as CSV
func (s *BillImportService) ExportOriginalBills(ctx context.Context, periodID uuid.UUID) ([]byte, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}

	bills := make([]billing.Bill, 0, len(period.OriginalBills))
	for i := range period.OriginalBills {
		bills = append(bills, period.OriginalBills[i].Bill)
	}
	return renderBills(bills)
}

// ExportLedgerBills renders a period's ledger bills as CSV
func (s *BillImportService) ExportLedgerBills(ctx context.Context, periodID uuid.UUID) ([]byte, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}

	bills := make([]billing.Bill, 0, len(period.LedgerBills))
	for i := range period.LedgerBills {
		bills = append(bills, period.LedgerBills[i].Bill)
	}
	return renderBills(bills)
}
