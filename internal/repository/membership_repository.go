package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecotrack/waste-admin/internal/model"
)

// MembershipRepo encapsulates queries against the user_institutions join
// table.  The (user_id, institution_id) pair carries a unique key, so
// assignment uses upsert semantics: at most one row ever exists per pair.
type MembershipRepo struct {
	db *sql.DB
}

// NewMembershipRepo constructs a MembershipRepo with the provided DB handle.
func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

// InstitutionMember is one user inside an institution, joined from the
// users table for institution-scoped listings.
type InstitutionMember struct {
	UserID          uint64
	Email           string
	GlobalRole      string
	IsActive        bool
	InstitutionRole string
	CreatedAt       time.Time
}

// ListForUser returns the institutions the user belongs to, joined with
// the institution record and the user's role inside each.  This feeds the
// per-request identity snapshot, so it must stay a single query.
func (r *MembershipRepo) ListForUser(ctx context.Context, userID uint64) ([]model.IdentityInstitution, error) {
	const q = `SELECT i.id, i.name, i.type, i.territory_level, ui.institution_role
	           FROM user_institutions ui
	           JOIN institutions i ON i.id = ui.institution_id
	           WHERE ui.user_id = ?
	           ORDER BY i.id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IdentityInstitution
	for rows.Next() {
		var m model.IdentityInstitution
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.TerritoryLevel, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListForInstitution returns the members of an institution joined with
// their user records, newest membership first.
func (r *MembershipRepo) ListForInstitution(ctx context.Context, institutionID uint64) ([]InstitutionMember, error) {
	const q = `SELECT u.id, u.email, u.global_role, u.is_active, ui.institution_role, ui.created_at
	           FROM user_institutions ui
	           JOIN users u ON u.id = ui.user_id
	           WHERE ui.institution_id = ?
	           ORDER BY ui.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InstitutionMember
	for rows.Next() {
		var m InstitutionMember
		if err := rows.Scan(&m.UserID, &m.Email, &m.GlobalRole, &m.IsActive, &m.InstitutionRole, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Upsert creates the membership or, when the pair already exists, updates
// the role in place.  The unique key on (user_id, institution_id) makes
// this atomic at the database, so concurrent assignments cannot produce
// duplicate rows.
func (r *MembershipRepo) Upsert(ctx context.Context, userID, institutionID uint64, role string) error {
	const q = `INSERT INTO user_institutions (user_id, institution_id, institution_role)
	           VALUES (?,?,?)
	           ON DUPLICATE KEY UPDATE institution_role = VALUES(institution_role)`
	_, err := r.db.ExecContext(ctx, q, userID, institutionID, role)
	return err
}

// Delete removes the membership for the pair.  Returns
// ErrMembershipNotFound when no row was deleted.
func (r *MembershipRepo) Delete(ctx context.Context, userID, institutionID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM user_institutions WHERE user_id=? AND institution_id=?",
		userID, institutionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// CountForInstitution returns how many memberships point at the
// institution.
func (r *MembershipRepo) CountForInstitution(ctx context.Context, institutionID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_institutions WHERE institution_id=?",
		institutionID).Scan(&n)
	return n, err
}
