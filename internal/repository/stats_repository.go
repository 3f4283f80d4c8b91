package repository

import (
	"context"
	"database/sql"
	"time"
)

// StatsRepo runs the read-only aggregate queries behind the dashboard
// endpoints.  These are pure projections; all authorization happens in
// the middleware chain before a handler ever reaches this type.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo constructs a StatsRepo with the provided DB handle.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// RoleCount is one bucket of a group-by-role aggregation.
type RoleCount struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// TypeCount is one bucket of a group-by-type aggregation.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// RecentUser is a row of the recent-activity feed on the admin dashboard.
type RecentUser struct {
	ID         uint64    `json:"id"`
	Email      string    `json:"email"`
	GlobalRole string    `json:"globalRole"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AdminStats aggregates platform-wide totals for the admin dashboard.
type AdminStats struct {
	TotalUsers         int          `json:"totalUsers"`
	ActiveUsers        int          `json:"activeUsers"`
	UsersByRole        []RoleCount  `json:"usersByRole"`
	TotalInstitutions  int          `json:"totalInstitutions"`
	ActiveInstitutions int          `json:"activeInstitutions"`
	InstitutionsByType []TypeCount  `json:"institutionsByType"`
	RecentUsers        []RecentUser `json:"recentUsers"`
}

// InstitutionStats aggregates member counts for one institution.
type InstitutionStats struct {
	InstitutionID uint64      `json:"institutionId"`
	TotalMembers  int         `json:"totalMembers"`
	ActiveMembers int         `json:"activeMembers"`
	MembersByRole []RoleCount `json:"membersByRole"`
}

// Admin collects the platform-wide aggregates.  Queries run sequentially
// on the request's context; any failure aborts the whole projection.
func (r *StatsRepo) Admin(ctx context.Context) (*AdminStats, error) {
	var s AdminStats
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&s.TotalUsers); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE is_active=1").Scan(&s.ActiveUsers); err != nil {
		return nil, err
	}
	roleRows, err := r.db.QueryContext(ctx,
		"SELECT global_role, COUNT(*) FROM users GROUP BY global_role ORDER BY global_role")
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var rc RoleCount
		if err := roleRows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, err
		}
		s.UsersByRole = append(s.UsersByRole, rc)
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM institutions").Scan(&s.TotalInstitutions); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM institutions WHERE is_active=1").Scan(&s.ActiveInstitutions); err != nil {
		return nil, err
	}
	typeRows, err := r.db.QueryContext(ctx,
		"SELECT type, COUNT(*) FROM institutions GROUP BY type ORDER BY type")
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var tc TypeCount
		if err := typeRows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		s.InstitutionsByType = append(s.InstitutionsByType, tc)
	}
	if err := typeRows.Err(); err != nil {
		return nil, err
	}

	recentRows, err := r.db.QueryContext(ctx,
		"SELECT id, email, global_role, created_at FROM users ORDER BY created_at DESC LIMIT 10")
	if err != nil {
		return nil, err
	}
	defer recentRows.Close()
	for recentRows.Next() {
		var ru RecentUser
		if err := recentRows.Scan(&ru.ID, &ru.Email, &ru.GlobalRole, &ru.CreatedAt); err != nil {
			return nil, err
		}
		s.RecentUsers = append(s.RecentUsers, ru)
	}
	if err := recentRows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Institution collects member aggregates for one institution.
func (r *StatsRepo) Institution(ctx context.Context, institutionID uint64) (*InstitutionStats, error) {
	s := InstitutionStats{InstitutionID: institutionID}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_institutions WHERE institution_id=?", institutionID).Scan(&s.TotalMembers); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_institutions ui
		 JOIN users u ON u.id = ui.user_id
		 WHERE ui.institution_id=? AND u.is_active=1`, institutionID).Scan(&s.ActiveMembers); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT institution_role, COUNT(*) FROM user_institutions
		 WHERE institution_id=? GROUP BY institution_role ORDER BY institution_role`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, err
		}
		s.MembersByRole = append(s.MembersByRole, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}
