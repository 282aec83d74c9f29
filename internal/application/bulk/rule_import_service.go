package bulk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/domain/split"
	"github.com/costledger/backend/internal/infrastructure/bulk"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Split rule CSV columns. Consecutive rows sharing a rule name form one
// composite rule: the matcher columns are taken from the first row of
// the group, each row contributes one sub-policy.
const (
	colRuleName   = "rule"
	colPolicyType = "policy_type"
	colAmount     = "amount"
)

// RuleImportService imports a period's split rules from a simplified CSV
// form. The imported rules replace the period's rule set wholesale and
// run through the normal blocking validation, so a bad row rejects the
// whole file.
type RuleImportService struct {
	periodRepo billing.BillPeriodRepository
	txManager  shared.TransactionManager
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewRuleImportService creates a new RuleImportService
func NewRuleImportService(
	periodRepo billing.BillPeriodRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *RuleImportService {
	return &RuleImportService{
		periodRepo: periodRepo,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger,
	}
}

// ImportSplitRules replaces a period's split rules with the CSV content
func (s *RuleImportService) ImportSplitRules(ctx context.Context, periodID uuid.UUID, data []byte) (*ImportResult, error) {
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

	rules, err := rowsToSplitRules(rows)
	if err != nil {
		return nil, err
	}
	period.SetSplitRules(rules)

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Save(ctx, period); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Split rules imported",
		zap.String("period", period.Label()),
		zap.Int("rows", len(rows)),
		zap.Int("rules", len(rules)))

	return &ImportResult{TotalRows: len(rows), ImportedRows: len(rules)}, nil
}

// rowsToSplitRules groups consecutive rows by rule name and materializes
// each group into a full split rule.
func rowsToSplitRules(rows []bulk.Row) ([]billing.SplitRule, error) {
	var rules []billing.SplitRule
	var name string
	var matcher json.RawMessage
	var subs []split.SubPolicyPayload

	flush := func() error {
		if name == "" {
			return nil
		}
		policy, err := split.MarshalPolicyPayload(subs...)
		if err != nil {
			return err
		}
		rules = append(rules, *billing.NewSplitRule(matcher, policy, name))
		name, matcher, subs = "", nil, nil
		return nil
	}

	for _, row := range rows {
		ruleName := row.Get(colRuleName)
		if ruleName == "" {
			return nil, shared.NewDomainError("INVALID_IMPORT_FILE",
				fmt.Sprintf("Row %d has no rule name", row.Line))
		}
		if ruleName != name {
			if err := flush(); err != nil {
				return nil, err
			}
			name = ruleName
			m, err := rowToMatcher(row)
			if err != nil {
				return nil, err
			}
			matcher = m
		}

		sub, err := rowToSubPolicy(row)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return rules, nil
}

func rowToMatcher(row bulk.Row) (json.RawMessage, error) {
	matcher := split.BillMatcher{}
	set := func(target **string, column string) {
		if v := row.Get(column); v != "" {
			value := v
			*target = &value
		}
	}
	set(&matcher.ProviderName, colProviderName)
	set(&matcher.ContractID, colContractID)
	set(&matcher.BillSubjectName, colBillSubjectName)
	set(&matcher.ServiceType, colServiceType)
	set(&matcher.ServiceName, colServiceName)
	set(&matcher.ServiceDetails, colServiceDetails)
	for i, col := range tagColumns {
		targets := []**string{&matcher.Tag1, &matcher.Tag2, &matcher.Tag3, &matcher.Tag4, &matcher.Tag5}
		set(targets[i], col)
	}
	return json.Marshal(matcher)
}

func rowToSubPolicy(row bulk.Row) (split.SubPolicyPayload, error) {
	amount, err := decimal.NewFromString(row.Get(colAmount))
	if err != nil {
		return split.SubPolicyPayload{}, shared.NewDomainError("INVALID_IMPORT_FILE",
			fmt.Sprintf("Row %d: amount %q is not a number", row.Line, row.Get(colAmount)))
	}

	business := row.Get(colBusinessCode)
	switch row.Get(colPolicyType) {
	case split.PolicyTypeFixed:
		return split.NewFixedPayload(business, amount), nil
	case split.PolicyTypeProportional:
		return split.NewProportionalPayload(business, amount), nil
	default:
		return split.SubPolicyPayload{}, shared.NewDomainError("INVALID_IMPORT_FILE",
			fmt.Sprintf("Row %d: unknown policy type %q", row.Line, row.Get(colPolicyType)))
	}
}
