package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBill_Exception(t *testing.T) {
	t.Run("messages accumulate", func(t *testing.T) {
		bill := NewOriginalBill()
		assert.False(t, bill.HasException())

		bill.AppendException("unknown provider")
		bill.AppendException("unknown bill subject")
		assert.True(t, bill.HasException())
		assert.Equal(t, "unknown provider\nunknown bill subject\n", bill.Exception)
	})

	t.Run("empty message is ignored", func(t *testing.T) {
		bill := NewOriginalBill()
		bill.AppendException("")
		assert.False(t, bill.HasException())
	})

	t.Run("clear resets", func(t *testing.T) {
		bill := NewOriginalBill()
		bill.AppendException("unknown provider")
		bill.ClearException()
		assert.False(t, bill.HasException())
		assert.Empty(t, bill.Exception)
	})
}

func TestNewLedgerBillFromOriginal(t *testing.T) {
	original := NewOriginalBill()
	original.ProviderName = "aws"
	original.ContractID = "C-100"
	original.BusinessCode = "infra"
	original.ActuallyPaid = decimal.RequireFromString("1234.56")
	unitPrice := decimal.RequireFromString("0.12")
	original.UnitPrice = &unitPrice

	ledger := NewLedgerBillFromOriginal(original)
	require.NotNil(t, ledger)

	assert.NotEqual(t, original.ID, ledger.ID)
	assert.Equal(t, original.ID, ledger.ParentID)
	assert.Equal(t, original.BillPeriodID, ledger.BillPeriodID)
	assert.Equal(t, "aws", ledger.ProviderName)
	assert.Equal(t, "C-100", ledger.ContractID)
	assert.Equal(t, "infra", ledger.BusinessCode)
	assert.True(t, ledger.ActuallyPaid.Equal(original.ActuallyPaid))
	require.NotNil(t, ledger.UnitPrice)
	assert.True(t, ledger.UnitPrice.Equal(unitPrice))
}

func TestSplitRule_CopyForPeriod(t *testing.T) {
	rule := NewSplitRule([]byte(`{"provider_name":"aws"}`), []byte(`{"policies":[]}`), "carry me")
	target, err := NewBillPeriod(2021, 12)
	require.NoError(t, err)

	clone := rule.CopyForPeriod(target.ID)

	assert.NotEqual(t, rule.ID, clone.ID)
	assert.Equal(t, target.ID, clone.BillPeriodID)
	assert.Equal(t, string(rule.Matcher), string(clone.Matcher))
	assert.Equal(t, string(rule.Policy), string(clone.Policy))
	assert.Equal(t, "carry me", clone.Description)

	// payloads are cloned, not aliased
	clone.Matcher[2] = 'x'
	assert.NotEqual(t, string(rule.Matcher), string(clone.Matcher))
}
