package model

// IdentityInstitution is one institution the authenticated user belongs
// to, flattened from the membership join for downstream authorization
// checks and API responses.
type IdentityInstitution struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	TerritoryLevel string `json:"territoryLevel"`
	Role           string `json:"role"`
}

// Identity is the resolved snapshot of the authenticated user attached to
// the request context by the authentication middleware.  It is loaded
// fresh from the database on every request and never embedded in tokens,
// so role and membership changes take effect on the very next request.
type Identity struct {
	ID           uint64                `json:"id"`
	Email        string                `json:"email"`
	GlobalRole   string                `json:"globalRole"`
	Institutions []IdentityInstitution `json:"institutions"`
}

// InstitutionRole returns the caller's role inside the given institution
// and whether a membership exists at all.
func (id *Identity) InstitutionRole(institutionID uint64) (string, bool) {
	for _, inst := range id.Institutions {
		if inst.ID == institutionID {
			return inst.Role, true
		}
	}
	return "", false
}
