package coverage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

var asOf = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testPolicy(id string, pct string, deductible string, max *decimal.Decimal) *model.CoveragePolicy {
	return &model.CoveragePolicy{
		Base:               model.Base{ID: uuid.MustParse(id)},
		PolicyType:         model.PolicyTypeOutpatient,
		FacilityLevel:      model.FacilityLevelDistrict,
		CoveragePercentage: dec(pct),
		Deductible:         dec(deductible),
		MaxAmount:          max,
		EffectiveFrom:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:           true,
	}
}

func TestCalculateDeductibleBeforePercentage(t *testing.T) {
	c := NewCalculator()
	p := testPolicy("00000000-0000-0000-0000-000000000001", "80", "100000", nil)

	out := c.CalculateAt(p, dec("1000000"), asOf)
	assert.True(t, dec("720000").Equal(out.Covered), out.Covered.String())
	assert.True(t, dec("280000").Equal(out.Patient), out.Patient.String())
}

func TestCalculateCap(t *testing.T) {
	c := NewCalculator()
	p := testPolicy("00000000-0000-0000-0000-000000000001", "100", "0", decPtr("500000"))

	out := c.CalculateAt(p, dec("2000000"), asOf)
	assert.True(t, dec("500000").Equal(out.Covered))
	assert.True(t, dec("1500000").Equal(out.Patient))
}

func TestCalculateDeductibleAboveBilled(t *testing.T) {
	c := NewCalculator()
	p := testPolicy("00000000-0000-0000-0000-000000000001", "80", "500000", nil)

	out := c.CalculateAt(p, dec("300000"), asOf)
	assert.True(t, out.Covered.IsZero())
	assert.True(t, dec("300000").Equal(out.Patient))
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	c := NewCalculator()
	p := testPolicy("00000000-0000-0000-0000-000000000001", "50", "0", nil)

	out := c.CalculateAt(p, dec("0.01"), asOf)
	assert.Equal(t, "0.01", out.Covered.StringFixed(2))
	assert.Equal(t, "0.00", out.Patient.StringFixed(2))

	out = c.CalculateAt(p, dec("100.05"), asOf)
	assert.Equal(t, "50.03", out.Covered.StringFixed(2))
	assert.Equal(t, "50.02", out.Patient.StringFixed(2))
}

func TestCalculateInapplicablePolicyCoversNothing(t *testing.T) {
	c := NewCalculator()
	p := testPolicy("00000000-0000-0000-0000-000000000001", "80", "0", nil)
	p.IsActive = false

	out := c.CalculateAt(p, dec("1000"), asOf)
	assert.True(t, out.Covered.IsZero())
	assert.True(t, dec("1000").Equal(out.Patient))

	p.IsActive = true
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p.EffectiveTo = &end
	out = c.CalculateAt(p, dec("1000"), asOf)
	assert.True(t, out.Covered.IsZero())
}

func TestCalculateInvariantsOverGrid(t *testing.T) {
	c := NewCalculator()
	amounts := []string{"0.01", "1", "99.99", "1000", "123456.78", "5000000"}
	policies := []*model.CoveragePolicy{
		testPolicy("00000000-0000-0000-0000-000000000001", "0", "0", nil),
		testPolicy("00000000-0000-0000-0000-000000000002", "100", "0", nil),
		testPolicy("00000000-0000-0000-0000-000000000003", "80", "100000", nil),
		testPolicy("00000000-0000-0000-0000-000000000004", "95", "1000", decPtr("300000")),
		testPolicy("00000000-0000-0000-0000-000000000005", "33.33", "0.5", decPtr("0")),
	}

	for _, p := range policies {
		for _, a := range amounts {
			billed := dec(a)
			out := c.CalculateAt(p, billed, asOf)
			assert.False(t, out.Covered.IsNegative(), "policy %s amount %s", p.ID, a)
			assert.True(t, out.Covered.LessThanOrEqual(billed), "policy %s amount %s", p.ID, a)
			assert.True(t, out.Covered.Add(out.Patient).Equal(billed), "policy %s amount %s", p.ID, a)
			if p.MaxAmount != nil {
				assert.True(t, out.Covered.LessThanOrEqual(*p.MaxAmount))
			}
			assert.True(t, out.Covered.Equal(out.Covered.Round(2)))
		}
	}
}

func TestSelectBestDeterministic(t *testing.T) {
	c := NewCalculator()
	a := testPolicy("00000000-0000-0000-0000-00000000000b", "60", "0", nil)
	b := testPolicy("00000000-0000-0000-0000-00000000000a", "80", "0", decPtr("300000"))
	weaker := testPolicy("00000000-0000-0000-0000-000000000001", "10", "0", nil)

	for _, order := range [][]*model.CoveragePolicy{{a, b, weaker}, {weaker, b, a}, {b, weaker, a}} {
		best, err := c.SelectBestAt(order, dec("500000"), asOf)
		require.NoError(t, err)
		assert.Equal(t, b.ID, best.Policy.ID, "tie goes to the smaller id")
		assert.True(t, dec("300000").Equal(best.Covered))
	}

	best, err := c.SelectBestAt([]*model.CoveragePolicy{a, weaker}, dec("1000"), asOf)
	require.NoError(t, err)
	assert.Equal(t, a.ID, best.Policy.ID)
}

func TestSelectBestEmpty(t *testing.T) {
	_, err := NewCalculator().SelectBestAt(nil, dec("100"), asOf)
	assert.True(t, errors.HasReason(err, errors.ReasonNoApplicablePolicy))
}

func TestResolveEchoesQuery(t *testing.T) {
	q := model.PolicyQuery{
		CardTypeID:    uuid.New(),
		PolicyType:    model.PolicyTypeInpatient,
		FacilityLevel: model.FacilityLevelCentral,
		AsOf:          asOf,
	}
	_, _, err := NewCalculator().Resolve(nil, q, dec("100"))
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonNoApplicablePolicy, appErr.Reason)
	assert.Equal(t, "2024-06-15", appErr.Details["service_date"])
	assert.Equal(t, model.FacilityLevelCentral, appErr.Details["facility_level"])
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(dec("0.01")))
	assert.True(t, errors.HasReason(ValidateAmount(decimal.Zero), errors.ReasonInvalidAmount))
	assert.True(t, errors.HasReason(ValidateAmount(dec("-5")), errors.ReasonInvalidAmount))
	assert.NoError(t, ValidateAmount(dec("1000.10")))
	assert.True(t, errors.HasReason(ValidateAmount(dec("1000.005")), errors.ReasonInvalidAmount))
}

func TestCalculateCoveredNeverExceedsBilled(t *testing.T) {
	c := NewCalculator()
	p := testPolicy("00000000-0000-0000-0000-000000000001", "100", "0", nil)

	out := c.CalculateAt(p, dec("1000.005"), asOf)
	assert.True(t, out.Covered.LessThanOrEqual(dec("1000.005")))
	assert.False(t, out.Patient.IsNegative())
	assert.True(t, out.Covered.Add(out.Patient).Equal(dec("1000.005")))
}

func TestAllocateLineItems(t *testing.T) {
	shares := AllocateLineItems(dec("100"), []decimal.Decimal{dec("1"), dec("1"), dec("1")})
	require.Len(t, shares, 3)
	assert.Equal(t, "33.34", shares[0].StringFixed(2))
	assert.Equal(t, "33.33", shares[1].StringFixed(2))
	assert.Equal(t, "33.33", shares[2].StringFixed(2))

	covered := dec("720000")
	totals := []decimal.Decimal{dec("150000"), dec("350000"), dec("499999.99"), dec("0.01")}
	shares = AllocateLineItems(covered, totals)
	sum := decimal.Zero
	for _, s := range shares {
		assert.False(t, s.IsNegative())
		sum = sum.Add(s)
	}
	assert.True(t, covered.Equal(sum), sum.String())

	assert.True(t, AllocateLineItems(dec("10"), []decimal.Decimal{decimal.Zero})[0].IsZero())
	assert.Empty(t, AllocateLineItems(dec("10"), nil))
}
