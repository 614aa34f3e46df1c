package coverage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/service/policy"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

const moneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -moneyPlaces)
)

// Outcome is the split of one billed amount under one policy.
type Outcome struct {
	Policy  *model.CoveragePolicy
	Covered decimal.Decimal
	Patient decimal.Decimal
}

func (o Outcome) Coverage() model.PolicyCoverage {
	var summary *model.PolicySummary
	if o.Policy != nil {
		summary = o.Policy.Summary()
	}
	return model.PolicyCoverage{
		Policy:         summary,
		CoveredAmount:  o.Covered,
		PatientPayment: o.Patient,
	}
}

// Calculator splits billed amounts into insurer and patient shares. It is
// pure apart from the clock used by the undated variants.
type Calculator struct {
	clock func() time.Time
}

func NewCalculator() *Calculator {
	return &Calculator{clock: time.Now}
}

func (c *Calculator) WithClock(clock func() time.Time) *Calculator {
	c.clock = clock
	return c
}

// ValidateAmount rejects billed amounts that are not strictly positive or
// carry more than two decimal places.
func ValidateAmount(billed decimal.Decimal) error {
	if !billed.IsPositive() {
		return errors.InvalidAmount("total amount must be greater than zero").
			WithDetail("total_amount", billed.String())
	}
	if !billed.Equal(billed.Round(moneyPlaces)) {
		return errors.InvalidAmount("total amount must have at most two decimal places").
			WithDetail("total_amount", billed.String())
	}
	return nil
}

func (c *Calculator) Calculate(p *model.CoveragePolicy, billed decimal.Decimal) Outcome {
	return c.CalculateAt(p, billed, c.clock())
}

// CalculateAt applies deductible, then percentage, then cap, then rounds the
// covered amount half-up to two places. Covered never exceeds billed. An
// inapplicable policy covers nothing.
func (c *Calculator) CalculateAt(p *model.CoveragePolicy, billed decimal.Decimal, asOf time.Time) Outcome {
	if p == nil || !p.IsApplicable(asOf) {
		return Outcome{Policy: p, Covered: decimal.Zero, Patient: billed}
	}

	afterDeductible := billed.Sub(p.Deductible)
	if afterDeductible.IsNegative() {
		afterDeductible = decimal.Zero
	}

	covered := afterDeductible.Mul(p.CoveragePercentage).Div(hundred)
	if p.MaxAmount != nil && covered.GreaterThan(*p.MaxAmount) {
		covered = *p.MaxAmount
	}
	covered = covered.Round(moneyPlaces)
	if covered.GreaterThan(billed) {
		covered = billed
	}

	return Outcome{
		Policy:  p,
		Covered: covered,
		Patient: billed.Sub(covered),
	}
}

func (c *Calculator) SelectBest(policies []*model.CoveragePolicy, billed decimal.Decimal) (Outcome, error) {
	return c.SelectBestAt(policies, billed, c.clock())
}

// SelectBestAt picks the policy with the largest covered amount. Ties go to
// the lexicographically smallest policy ID.
func (c *Calculator) SelectBestAt(policies []*model.CoveragePolicy, billed decimal.Decimal, asOf time.Time) (Outcome, error) {
	outcomes := c.EvaluateAll(policies, billed, asOf)
	if len(outcomes) == 0 {
		return Outcome{}, errors.NoApplicablePolicy(nil)
	}
	return outcomes[0], nil
}

// EvaluateAll computes every policy and orders the outcomes best first.
func (c *Calculator) EvaluateAll(policies []*model.CoveragePolicy, billed decimal.Decimal, asOf time.Time) []Outcome {
	outcomes := make([]Outcome, 0, len(policies))
	for _, p := range policies {
		if p == nil {
			continue
		}
		outcomes = append(outcomes, c.CalculateAt(p, billed, asOf))
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		if cmp := outcomes[i].Covered.Cmp(outcomes[j].Covered); cmp != 0 {
			return cmp > 0
		}
		return outcomes[i].Policy.ID.String() < outcomes[j].Policy.ID.String()
	})
	return outcomes
}

// Resolve is a convenience for callers holding a resolver result set that
// may include stale rows.
func (c *Calculator) Resolve(policies []*model.CoveragePolicy, q model.PolicyQuery, billed decimal.Decimal) (Outcome, []Outcome, error) {
	applicable := policy.Filter(policies, q)
	all := c.EvaluateAll(applicable, billed, q.AsOf)
	if len(all) == 0 {
		return Outcome{}, nil, errors.NoApplicablePolicy(q.Echo())
	}
	return all[0], all, nil
}

// AllocateLineItems splits covered across line items in proportion to their
// totals. Shares are whole cents and always sum to covered; leftover cents go
// to the largest remainders, earliest item first on ties.
func AllocateLineItems(covered decimal.Decimal, totals []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(totals))
	sum := decimal.Zero
	for i, t := range totals {
		shares[i] = decimal.Zero
		sum = sum.Add(t)
	}
	if len(totals) == 0 || !sum.IsPositive() || !covered.IsPositive() {
		return shares
	}

	covered = covered.Round(moneyPlaces)
	remainders := make([]decimal.Decimal, len(totals))
	allocated := decimal.Zero
	for i, t := range totals {
		exact := covered.Mul(t).Div(sum)
		shares[i] = exact.Truncate(moneyPlaces)
		remainders[i] = exact.Sub(shares[i])
		allocated = allocated.Add(shares[i])
	}

	order := make([]int, len(totals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	left := covered.Sub(allocated)
	for k := 0; left.IsPositive(); k = (k + 1) % len(order) {
		shares[order[k]] = shares[order[k]].Add(cent)
		left = left.Sub(cent)
	}
	return shares
}
