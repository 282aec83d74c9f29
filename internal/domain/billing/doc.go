// Package billing holds the billing-period bounded context.
//
// The BillPeriod aggregate owns everything that belongs to one calendar
// month of cost accounting: the original bills as imported from
// providers, the ledger bills produced by the split engine, and the
// split rules that drive the allocation. All mutations go through the
// aggregate so that lifecycle events are raised consistently.
//
// Key types:
//   - BillPeriod: aggregate root, one per (year, month)
//   - OriginalBill / LedgerBill: imported bill and its allocated slices
//   - SplitRule: matcher + policy payload pair applied during a split
//
// Validation specs (BillSpec and friends) report structured violations;
// whether a violation blocks the operation or only marks the bill as
// abnormal is decided by the caller.
package billing
