package model

import "time"

// Institution types recognized by the platform.  They correspond to the
// categories of public bodies and operators involved in municipal waste
// management.
const (
	InstitutionPrimarieSector      = "PRIMARIE_SECTOR"
	InstitutionPMB                 = "PMB"
	InstitutionOperatorSalubrizare = "OPERATOR_SALUBRIZARE"
	InstitutionMinisterMediu       = "MINISTER_MEDIU"
	InstitutionGardaMediu          = "GARDA_MEDIU"
	InstitutionAgentieMediu        = "AGENTIE_MEDIU"
)

// Territory levels at which an institution operates.
const (
	TerritorySector    = "SECTOR"
	TerritoryMunicipiu = "MUNICIPIU"
	TerritoryJudet     = "JUDET"
	TerritoryNational  = "NATIONAL"
)

// Institution represents a row in the `institutions` table.  An
// institution weakly owns its memberships: it cannot be deleted while any
// user is still assigned to it.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – human-friendly institution name.
//  Type           – institution category (see constants above).
//  TerritoryLevel – administrative level the institution covers.
//  TerritoryCode  – code of the covered territory (e.g. "S3", "B").
//  IsActive       – whether the institution is active.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Institution struct {
	ID             uint64    // institutions.id
	Name           string    // institutions.name
	Type           string    // institutions.type
	TerritoryLevel string    // institutions.territory_level
	TerritoryCode  string    // institutions.territory_code
	IsActive       bool      // institutions.is_active
	CreatedAt      time.Time // institutions.created_at
	UpdatedAt      time.Time // institutions.updated_at
}

// ValidInstitutionType reports whether s is a known institution type.
func ValidInstitutionType(s string) bool {
	switch s {
	case InstitutionPrimarieSector, InstitutionPMB, InstitutionOperatorSalubrizare,
		InstitutionMinisterMediu, InstitutionGardaMediu, InstitutionAgentieMediu:
		return true
	}
	return false
}

// ValidTerritoryLevel reports whether s is a known territory level.
func ValidTerritoryLevel(s string) bool {
	switch s {
	case TerritorySector, TerritoryMunicipiu, TerritoryJudet, TerritoryNational:
		return true
	}
	return false
}
