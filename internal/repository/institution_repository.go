package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ecotrack/waste-admin/internal/model"
)

// InstitutionRepo encapsulates all database queries against the
// institutions table.
type InstitutionRepo struct {
	db *sql.DB
}

// NewInstitutionRepo constructs an InstitutionRepo with the provided DB handle.
func NewInstitutionRepo(db *sql.DB) *InstitutionRepo { return &InstitutionRepo{db: db} }

const institutionColumns = "id, name, type, territory_level, territory_code, is_active, created_at, updated_at"

func scanInstitution(row *sql.Row) (*model.Institution, error) {
	var i model.Institution
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.TerritoryLevel, &i.TerritoryCode, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInstitutionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts a new institution.  On success the ID, CreatedAt and
// UpdatedAt fields are populated from the database so callers receive a
// fully populated record.
func (r *InstitutionRepo) Create(ctx context.Context, inst *model.Institution) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO institutions (name, type, territory_level, territory_code, is_active) VALUES (?,?,?,?,?)",
		inst.Name, inst.Type, inst.TerritoryLevel, inst.TerritoryCode, inst.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inst.ID = uint64(id)
	fresh, err := r.GetByID(ctx, inst.ID)
	if err != nil {
		return err
	}
	*inst = *fresh
	return nil
}

// GetByID fetches an institution by id.
func (r *InstitutionRepo) GetByID(ctx context.Context, id uint64) (*model.Institution, error) {
	return scanInstitution(r.db.QueryRowContext(ctx,
		"SELECT "+institutionColumns+" FROM institutions WHERE id=? LIMIT 1", id))
}

// List returns all institutions ordered by creation time, newest first.
func (r *InstitutionRepo) List(ctx context.Context) ([]*model.Institution, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+institutionColumns+" FROM institutions ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Institution
	for rows.Next() {
		i := new(model.Institution)
		if err := rows.Scan(&i.ID, &i.Name, &i.Type, &i.TerritoryLevel, &i.TerritoryCode, &i.IsActive, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// ExistsByNameAndCode reports whether an institution with the same name
// and territory code already exists.  The pair is checked here rather
// than enforced by a DB constraint, matching the platform's data model.
func (r *InstitutionRepo) ExistsByNameAndCode(ctx context.Context, name, territoryCode string) (bool, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM institutions WHERE name=? AND territory_code=? LIMIT 1",
		name, territoryCode).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InstitutionUpdate lists the fields that may change on an existing
// institution.  Nil pointers leave the corresponding column untouched.
type InstitutionUpdate struct {
	Name           *string
	Type           *string
	TerritoryLevel *string
	TerritoryCode  *string
	IsActive       *bool
}

// Update applies a partial update and returns the fresh row.
func (r *InstitutionRepo) Update(ctx context.Context, id uint64, upd InstitutionUpdate) (*model.Institution, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if upd.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.Type != nil {
		sets = append(sets, "type=?")
		args = append(args, *upd.Type)
	}
	if upd.TerritoryLevel != nil {
		sets = append(sets, "territory_level=?")
		args = append(args, *upd.TerritoryLevel)
	}
	if upd.TerritoryCode != nil {
		sets = append(sets, "territory_code=?")
		args = append(args, *upd.TerritoryCode)
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *upd.IsActive)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at=CURRENT_TIMESTAMP")
		args = append(args, id)
		q := "UPDATE institutions SET " + strings.Join(sets, ", ") + " WHERE id=?"
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// ToggleActive flips the is_active flag and returns the fresh row.
func (r *InstitutionRepo) ToggleActive(ctx context.Context, id uint64) (*model.Institution, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE institutions SET is_active = NOT is_active, updated_at=CURRENT_TIMESTAMP WHERE id=?", id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrInstitutionNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes an institution, refusing while memberships still point
// at it.  The existence check, dependency count and delete run inside a
// single transaction.  Returns ErrInstitutionNotFound when the id does
// not exist and ErrConflict when members remain.
func (r *InstitutionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var exists uint64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM institutions WHERE id=?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrInstitutionNotFound
		}
		return err
	}
	var members int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_institutions WHERE institution_id=?", id).Scan(&members); err != nil {
		return err
	}
	if members > 0 {
		err = ErrConflict
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM institutions WHERE id=?", id); err != nil {
		return err
	}
	return nil
}
