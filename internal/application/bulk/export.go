package bulk

import (
	"bytes"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/infrastructure/bulk"
	"github.com/shopspring/decimal"
)

var billExportHeaders = []string{
	colContractID, colProviderName, colBillSubjectName,
	colServiceType, colServiceName, colServiceDetails,
	colUnitPrice, colBillUnit, colStatisticCount, colStatisticUnit,
	colTotal, colDiscount, colActuallyPaid,
	colTypeLevel1, colBusinessCode, colBusinessName, colDepartmentName,
	colDescription, "tag1", "tag2", "tag3", "tag4", "tag5", "exception",
}

func renderBills(bills []billing.Bill) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := bulk.NewWriter(&buf, billExportHeaders)
	if err != nil {
		return nil, err
	}

	for i := range bills {
		bill := &bills[i]
		row := map[string]string{
			colContractID:      bill.ContractID,
			colProviderName:    bill.ProviderName,
			colBillSubjectName: bill.BillSubjectName,
			colServiceType:     bill.ServiceType,
			colServiceName:     bill.ServiceName,
			colServiceDetails:  bill.ServiceDetails,
			colUnitPrice:       optionalDecimalString(bill.UnitPrice),
			colBillUnit:        bill.BillUnit,
			colStatisticCount:  optionalDecimalString(bill.StatisticCount),
			colStatisticUnit:   bill.StatisticUnit,
			colTotal:           optionalDecimalString(bill.Total),
			colDiscount:        optionalDecimalString(bill.Discount),
			colActuallyPaid:    bill.ActuallyPaid.String(),
			colTypeLevel1:      bill.TypeLevel1,
			colBusinessCode:    bill.BusinessCode,
			colBusinessName:    bill.BusinessName,
			colDepartmentName:  bill.DepartmentName,
			colDescription:     bill.Description,
			"tag1":             bill.Tag1,
			"tag2":             bill.Tag2,
			"tag3":             bill.Tag3,
			"tag4":             bill.Tag4,
			"tag5":             bill.Tag5,
			"exception":        bill.Exception,
		}
		if err := writer.WriteRow(row); err != nil {
			return nil, err
		}
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optionalDecimalString(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return value.String()
}
