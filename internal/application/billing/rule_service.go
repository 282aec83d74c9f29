package billing

import (
	"context"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SplitRuleService handles split-rule operations for a period. Rule
// validation runs in the creation/update reaction; a violation fails the
// save synchronously, so a bad rule never reaches storage.
type SplitRuleService struct {
	periodRepo billing.BillPeriodRepository
	ruleRepo   billing.SplitRuleRepository
	txManager  shared.TransactionManager
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewSplitRuleService creates a new SplitRuleService
func NewSplitRuleService(
	periodRepo billing.BillPeriodRepository,
	ruleRepo billing.SplitRuleRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SplitRuleService {
	return &SplitRuleService{
		periodRepo: periodRepo,
		ruleRepo:   ruleRepo,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger,
	}
}

// List lists a period's split rules
func (s *SplitRuleService) List(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[SplitRuleResponse], error) {
	page, err := s.ruleRepo.FindByPeriod(ctx, periodID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]SplitRuleResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *ToSplitRuleResponse(&page.Items[i]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// GetByID retrieves one split rule
func (s *SplitRuleService) GetByID(ctx context.Context, id uuid.UUID) (*SplitRuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSplitRuleResponse(rule), nil
}

// Create adds a split rule to a period
func (s *SplitRuleService) Create(ctx context.Context, periodID uuid.UUID, req SplitRuleRequest) (*SplitRuleResponse, error) {
	period, err := s.mutablePeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	rule := billing.NewSplitRule(req.Matcher, req.Policy, req.Description)
	period.CreateSplitRule(rule)

	if err := s.saveAndPublish(ctx, period); err != nil {
		return nil, err
	}

	s.logger.Info("Split rule created",
		zap.String("id", rule.ID.String()),
		zap.String("period", period.Label()))
	return ToSplitRuleResponse(rule), nil
}

// Update replaces a split rule's matcher, policy and description
func (s *SplitRuleService) Update(ctx context.Context, id uuid.UUID, req SplitRuleRequest) (*SplitRuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	period, err := s.mutablePeriod(ctx, rule.BillPeriodID)
	if err != nil {
		return nil, err
	}

	rule.Matcher = req.Matcher
	rule.Policy = req.Policy
	rule.Description = req.Description
	if err := period.UpdateSplitRule(rule); err != nil {
		return nil, err
	}

	if err := s.saveAndPublish(ctx, period); err != nil {
		return nil, err
	}
	return ToSplitRuleResponse(rule), nil
}

// Set replaces a period's whole rule set, each new rule individually
// validated by its creation reaction.
func (s *SplitRuleService) Set(ctx context.Context, periodID uuid.UUID, reqs []SplitRuleRequest) ([]SplitRuleResponse, error) {
	period, err := s.mutablePeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	rules := make([]billing.SplitRule, 0, len(reqs))
	for _, req := range reqs {
		rules = append(rules, *billing.NewSplitRule(req.Matcher, req.Policy, req.Description))
	}
	period.SetSplitRules(rules)

	if err := s.saveAndPublish(ctx, period); err != nil {
		return nil, err
	}

	out := make([]SplitRuleResponse, 0, len(period.SplitRules))
	for i := range period.SplitRules {
		out = append(out, *ToSplitRuleResponse(&period.SplitRules[i]))
	}
	return out, nil
}

func (s *SplitRuleService) mutablePeriod(ctx context.Context, periodID uuid.UUID) (*billing.BillPeriod, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Locked {
		return nil, shared.ErrPeriodLocked
	}
	return period, nil
}

func (s *SplitRuleService) saveAndPublish(ctx context.Context, period *billing.BillPeriod) error {
	return s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Save(ctx, period); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
}
