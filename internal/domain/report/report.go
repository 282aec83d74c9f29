package report

import (
	"github.com/costledger/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// State describes whether a period's cost report can be trusted
type State string

const (
	// StateGenerated means the period is locked and its ledger is final
	StateGenerated State = "GENERATED"
	// StateUpdating means ledger bills exist but the period is still open
	StateUpdating State = "UPDATING"
	// StateNotGenerated means the period has no ledger bills yet
	StateNotGenerated State = "NOT_GENERATED"
)

// StateOf derives the report state of a period from its lock flag and
// ledger contents.
func StateOf(period *billing.BillPeriod) State {
	if len(period.LedgerBills) == 0 {
		return StateNotGenerated
	}
	if period.Locked {
		return StateGenerated
	}
	return StateUpdating
}

// Slice is one named share of a distribution
type Slice struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// TrendPoint is one period's consumption broken down by service type
type TrendPoint struct {
	Period string                     `json:"period"`
	ByType map[string]decimal.Decimal `json:"by_type"`
}

// CalcTotal sums the actually-paid amounts of the ledger bills
func CalcTotal(bills []billing.LedgerBill) decimal.Decimal {
	total := decimal.Zero
	for i := range bills {
		total = total.Add(bills[i].ActuallyPaid)
	}
	return total
}

// DistributionBy groups the ledger bills' actually-paid amounts by the
// given key. Slices appear in first-seen order of their key.
func DistributionBy(bills []billing.LedgerBill, key func(*billing.LedgerBill) string) []Slice {
	index := make(map[string]int)
	out := make([]Slice, 0)
	for i := range bills {
		k := key(&bills[i])
		pos, seen := index[k]
		if !seen {
			pos = len(out)
			index[k] = pos
			out = append(out, Slice{Name: k})
		}
		out[pos].Total = out[pos].Total.Add(bills[i].ActuallyPaid)
	}
	return out
}

// ByBusiness groups by business code
func ByBusiness(bills []billing.LedgerBill) []Slice {
	return DistributionBy(bills, func(b *billing.LedgerBill) string { return b.BusinessCode })
}

// ByServiceType groups by service type
func ByServiceType(bills []billing.LedgerBill) []Slice {
	return DistributionBy(bills, func(b *billing.LedgerBill) string { return b.ServiceType })
}

// ByTypeLevel1 groups by first-level cost type
func ByTypeLevel1(bills []billing.LedgerBill) []Slice {
	return DistributionBy(bills, func(b *billing.LedgerBill) string { return b.TypeLevel1 })
}

// Trend builds one point per period, in the order given. Callers pass
// periods sorted by period timestamp so the trend reads chronologically
// regardless of creation order.
func Trend(periods []billing.BillPeriod) []TrendPoint {
	out := make([]TrendPoint, 0, len(periods))
	for i := range periods {
		point := TrendPoint{
			Period: periods[i].Label(),
			ByType: make(map[string]decimal.Decimal),
		}
		for j := range periods[i].LedgerBills {
			bill := &periods[i].LedgerBills[j]
			point.ByType[bill.ServiceType] = point.ByType[bill.ServiceType].Add(bill.ActuallyPaid)
		}
		out = append(out, point)
	}
	return out
}
