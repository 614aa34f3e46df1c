package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func testCard(status model.CardStatus) *model.InsuranceCard {
	return &model.InsuranceCard{
		CardNumber: "HS4010123456789",
		Status:     status,
		ValidFrom:  day("2024-01-01"),
		ValidTo:    day("2024-12-31"),
	}
}

func TestValidatorBoundaries(t *testing.T) {
	v := NewValidator()
	c := testCard(model.CardStatusActive)

	assert.True(t, v.IsValid(c, day("2024-01-01")), "valid_from is inclusive")
	assert.True(t, v.IsValid(c, day("2024-12-31")), "valid_to is inclusive")
	assert.True(t, v.IsValid(c, day("2024-12-31").Add(23*time.Hour)), "time of day is ignored")
	assert.False(t, v.IsValid(c, day("2023-12-31")))
	assert.False(t, v.IsValid(c, day("2025-01-01")))
}

func TestValidatorExplain(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.Explain(testCard(model.CardStatusActive), day("2024-06-01")))
	assert.Equal(t, []string{ReasonExpired}, v.Explain(testCard(model.CardStatusActive), day("2025-01-01")))
	assert.Equal(t, []string{ReasonNotYetValid}, v.Explain(testCard(model.CardStatusActive), day("2023-06-01")))
	assert.Equal(t,
		[]string{ReasonStatusNotActive, ReasonExpired},
		v.Explain(testCard(model.CardStatusSuspended), day("2025-03-01")))

	for _, status := range []model.CardStatus{model.CardStatusSuspended, model.CardStatusExpired, model.CardStatusCancelled} {
		assert.Equal(t, []string{ReasonStatusNotActive}, v.Explain(testCard(status), day("2024-06-01")), status)
	}
}

func TestValidatorZeroDateUsesClock(t *testing.T) {
	v := NewValidator().WithClock(func() time.Time { return day("2025-02-01") })
	assert.False(t, v.IsValid(testCard(model.CardStatusActive), time.Time{}))

	v.WithClock(func() time.Time { return day("2024-02-01") })
	assert.True(t, v.IsValid(testCard(model.CardStatusActive), time.Time{}))
}

func TestValidatorCheck(t *testing.T) {
	v := NewValidator()
	c := testCard(model.CardStatusActive)

	res := v.Check(c, nil, day("2024-12-21"))
	assert.True(t, res.IsValid)
	assert.True(t, res.StatusValid)
	assert.True(t, res.DateValid)
	assert.Equal(t, 10, res.ExpiresInDays)
	assert.Empty(t, res.InvalidReasons)

	res = v.Check(c, nil, day("2025-01-05"))
	assert.False(t, res.IsValid)
	assert.True(t, res.StatusValid)
	assert.False(t, res.DateValid)
	assert.Equal(t, -5, res.ExpiresInDays)
	assert.Equal(t, []string{ReasonExpired}, res.InvalidReasons)
}
