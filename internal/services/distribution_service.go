package services

import (
	"context"
	"fmt"
	"log/slog"

	"fondi/internal/backend"
	"fondi/internal/core"
)

// AppliedRule is one rule's share of a distributed income.
type AppliedRule struct {
	Rule           core.DistributionRule
	Amount         core.Money
	ContributionID string
}

// SkippedRule names a rule that did not apply and why.
type SkippedRule struct {
	Rule   core.DistributionRule
	Reason string
}

// DistributionReport says where an income went: which rules applied, which
// were skipped, and what stayed undistributed.
type DistributionReport struct {
	Income        core.Income
	Applied       []AppliedRule
	Skipped       []SkippedRule
	Undistributed core.Money
}

// DistributionService records incomes and splits them across funds by the
// configured rules.
type DistributionService struct {
	store backend.Backend
	ops   *OperationService
}

func NewDistributionService(store backend.Backend, ops *OperationService) *DistributionService {
	return &DistributionService{store: store, ops: ops}
}

// RecordIncome stores the income and applies the distribution rules in
// priority order. Fixed rules take min(value, remaining); percentage rules
// take their share of the gross amount rounded half-up, capped at what
// remains. Each applied rule becomes a single-allocation contribution on
// its fund. Whatever no rule claims stays undistributed.
//
// A rule that cannot apply (archived fund, different currency, stale asset)
// is skipped and reported, not fatal: a misconfigured rule must not block
// recording the income itself.
func (s *DistributionService) RecordIncome(ctx context.Context, in core.Income) (DistributionReport, error) {
	if err := in.Validate(); err != nil {
		return DistributionReport{}, err
	}
	stored, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return DistributionReport{}, fmt.Errorf("store income: %w", err)
	}
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return DistributionReport{}, fmt.Errorf("list rules: %w", err)
	}

	report := DistributionReport{Income: stored}
	remaining := stored.Amount.Cents
	for _, rule := range rules {
		if remaining <= 0 {
			break
		}
		share := ruleShare(rule, stored.Amount.Cents, remaining)
		if share <= 0 {
			continue
		}
		if reason := s.ruleApplies(ctx, rule, stored.Currency); reason != "" {
			report.Skipped = append(report.Skipped, SkippedRule{Rule: rule, Reason: reason})
			continue
		}
		c := core.Contribution{
			FundID:      rule.FundID,
			Date:        stored.Date,
			TotalAmount: core.Money{Cents: share},
			Currency:    stored.Currency,
			Allocations: []core.OperationAllocation{
				{AssetID: rule.AssetID, Amount: core.Money{Cents: share}},
			},
			Note: "income: " + stored.Source,
		}
		created, err := s.ops.CreateContribution(ctx, c)
		if err != nil {
			slog.ErrorContext(ctx, "Distribution rule failed, skipping",
				"rule_id", rule.ID, "fund_id", rule.FundID, "error", err)
			report.Skipped = append(report.Skipped, SkippedRule{Rule: rule, Reason: err.Error()})
			continue
		}
		remaining -= share
		report.Applied = append(report.Applied, AppliedRule{
			Rule:           rule,
			Amount:         core.Money{Cents: share},
			ContributionID: created.ID,
		})
	}
	report.Undistributed = core.Money{Cents: remaining}
	return report, nil
}

// ruleShare computes the cents a rule claims. Percentage values are in
// hundredths of a percent, so the share is gross*value/10000 rounded
// half-up; fixed values are cents. Both are capped at remaining.
func ruleShare(rule core.DistributionRule, gross, remaining int64) int64 {
	var share int64
	switch rule.Kind {
	case core.RuleFixed:
		share = rule.Value
	case core.RulePercentage:
		share = (gross*rule.Value + 5000) / 10000
	default:
		return 0
	}
	if share > remaining {
		share = remaining
	}
	return share
}

// ruleApplies screens cheap preconditions before money moves. The returned
// reason is empty when the rule can run; contribution-level failures are
// still possible and handled by the caller.
func (s *DistributionService) ruleApplies(ctx context.Context, rule core.DistributionRule, currency string) string {
	fund, err := s.store.GetFund(ctx, rule.FundID)
	if err != nil {
		return fmt.Sprintf("fund %s: %v", rule.FundID, err)
	}
	if fund.IsArchived() {
		return "fund is archived"
	}
	if fund.Currency != currency {
		return fmt.Sprintf("fund currency %s does not match income currency %s", fund.Currency, currency)
	}
	if _, ok := fund.AssetByID(rule.AssetID); !ok {
		return fmt.Sprintf("asset %s not in fund", rule.AssetID)
	}
	return ""
}
