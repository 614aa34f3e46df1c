package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/truongngoctrac/claims-platform/internal/model"
	"github.com/truongngoctrac/claims-platform/internal/repository"
	"github.com/truongngoctrac/claims-platform/pkg/errors"
)

const facilityColumns = `id, code, name, level, COALESCE(type, '') AS type, COALESCE(address, '') AS address,
	COALESCE(province_code, '') AS province_code, COALESCE(district_code, '') AS district_code,
	COALESCE(ward_code, '') AS ward_code, is_active, created_at, updated_at`

var facilitySelect = []interface{}{
	"id", "code", "name", "level",
	goqu.COALESCE(goqu.C("type"), "").As("type"),
	goqu.COALESCE(goqu.C("address"), "").As("address"),
	goqu.COALESCE(goqu.C("province_code"), "").As("province_code"),
	goqu.COALESCE(goqu.C("district_code"), "").As("district_code"),
	goqu.COALESCE(goqu.C("ward_code"), "").As("ward_code"),
	"is_active", "created_at", "updated_at",
}

type facilityRepository struct {
	BaseRepository
}

func NewFacilityRepository(base BaseRepository) repository.FacilityRepository {
	return &facilityRepository{base}
}

func (r *facilityRepository) GetByCode(ctx context.Context, code string) (*model.HealthcareFacility, error) {
	var f model.HealthcareFacility
	query := `SELECT ` + facilityColumns + ` FROM healthcare_facilities WHERE code = $1`
	if err := r.db.GetContext(ctx, &f, query, code); err != nil {
		if isNoRows(err) {
			return nil, errors.FacilityNotFound(code)
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return &f, nil
}

func (r *facilityRepository) List(ctx context.Context, filters *model.FacilityFilters) ([]*model.HealthcareFacility, error) {
	if filters == nil {
		filters = &model.FacilityFilters{}
	}
	query, args, err := facilityDataset(filters).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build facility query: %w", err)
	}
	facilities := []*model.HealthcareFacility{}
	if err := r.db.SelectContext(ctx, &facilities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}

func facilityDataset(filters *model.FacilityFilters) *goqu.SelectDataset {
	ds := dialect.From("healthcare_facilities").Select(facilitySelect...).
		Where(goqu.Ex{"is_active": true})
	if filters.ProvinceCode != "" {
		ds = ds.Where(goqu.Ex{"province_code": filters.ProvinceCode})
	}
	if filters.Level != "" {
		ds = ds.Where(goqu.Ex{"level": string(filters.Level)})
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("name").ILike(pattern),
			goqu.C("code").ILike(pattern),
			goqu.C("address").ILike(pattern),
		))
	}
	limit, offset := filters.Normalize()
	return ds.Order(goqu.I("level").Asc(), goqu.I("name").Asc()).
		Limit(uint(limit)).Offset(uint(offset))
}
