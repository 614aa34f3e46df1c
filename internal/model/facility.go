package model

import (
	"time"

	"github.com/google/uuid"
)

type FacilityLevel string

const (
	FacilityLevelCentral    FacilityLevel = "central"
	FacilityLevelProvincial FacilityLevel = "provincial"
	FacilityLevelDistrict   FacilityLevel = "district"
	FacilityLevelCommune    FacilityLevel = "commune"
)

func (l FacilityLevel) Valid() bool {
	switch l {
	case FacilityLevelCentral, FacilityLevelProvincial, FacilityLevelDistrict, FacilityLevelCommune:
		return true
	}
	return false
}

// HealthcareFacility is reference data looked up by code.
type HealthcareFacility struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	Code         string        `db:"code" json:"code"`
	Name         string        `db:"name" json:"name"`
	Level        FacilityLevel `db:"level" json:"level"`
	Type         string        `db:"type" json:"type"`
	Address      string        `db:"address" json:"address"`
	ProvinceCode string        `db:"province_code" json:"province_code"`
	DistrictCode string        `db:"district_code" json:"district_code"`
	WardCode     string        `db:"ward_code" json:"ward_code"`
	IsActive     bool          `db:"is_active" json:"is_active"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// FacilityFilters narrows facility listings. Only active facilities are
// listed.
type FacilityFilters struct {
	ProvinceCode string
	Level        FacilityLevel
	Search       string
	Pagination
}
