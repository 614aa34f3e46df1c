package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

func TestApplicableDataset(t *testing.T) {
	q := model.PolicyQuery{
		CardTypeID:    uuid.New(),
		PolicyType:    model.PolicyTypeOutpatient,
		FacilityLevel: model.FacilityLevelDistrict,
		AsOf:          time.Date(2024, 6, 15, 17, 30, 0, 0, time.UTC),
	}

	query, args, err := applicableDataset(q).Prepared(true).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "coverage_policies"`)
	assert.Contains(t, query, `"effective_to" IS NULL`)
	assert.Contains(t, query, `ORDER BY "id" ASC`)
	assert.Contains(t, query, "$1")
	assert.Contains(t, args, q.CardTypeID.String())
	assert.Contains(t, args, "outpatient")
	assert.Contains(t, args, "district")
	assert.Contains(t, args, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
}

func TestClaimConditions(t *testing.T) {
	assert.Empty(t, claimConditions(&model.ClaimFilters{}))

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	user := uuid.New()
	where := claimConditions(&model.ClaimFilters{
		UserID: user,
		Status: model.ClaimStatusApproved,
		From:   &from,
	})
	require.Len(t, where, 3)

	query, args, err := dialect.From("claims").Where(where...).Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `"user_id" = $1`)
	assert.Contains(t, query, `"submitted_at" >= $3`)
	assert.Equal(t, []interface{}{user.String(), "approved", from}, args)
}

func TestFacilityDataset(t *testing.T) {
	query, args, err := facilityDataset(&model.FacilityFilters{
		ProvinceCode: "79",
		Level:        model.FacilityLevelDistrict,
		Search:       "cho ray",
		Pagination:   model.Pagination{Page: 2, PageSize: 10},
	}).Prepared(true).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "healthcare_facilities"`)
	assert.Contains(t, query, `COALESCE("province_code"`)
	assert.Contains(t, query, `"is_active" IS TRUE`)
	assert.Contains(t, query, `"name" ILIKE`)
	assert.Contains(t, query, `ORDER BY "level" ASC, "name" ASC`)
	assert.Contains(t, args, "79")
	assert.Contains(t, args, "district")
	assert.Contains(t, args, "%cho ray%")

	query, _, err = facilityDataset(&model.FacilityFilters{}).Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.NotContains(t, query, "ILIKE")
}
