package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pitchside/pitchside/internal/model"
)

// FieldRepo provides access to the `fields` table.  It is the
// authoritative source behind the field cache: the cache fetches the
// full set from here whenever its mirror is stale.  Fields are
// reference data maintained by admins and change rarely.
type FieldRepo struct {
	db *sql.DB
}

// NewFieldRepo returns a new FieldRepo bound to the given database.
func NewFieldRepo(db *sql.DB) *FieldRepo { return &FieldRepo{db: db} }

// ListAll returns every active field.  The result feeds the field
// mirror wholesale, so no pagination is applied.
func (r *FieldRepo) ListAll(ctx context.Context) ([]model.Field, error) {
	const q = `SELECT id, name, address, capacity, indoor, is_active, created_at, updated_at
               FROM fields
               WHERE is_active = 1`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	fields := make([]model.Field, 0)
	for rows.Next() {
		var f model.Field
		if err := rows.Scan(&f.ID, &f.Name, &f.Address, &f.Capacity, &f.Indoor, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// GetByID fetches a single field.  ErrFieldNotFound is returned when
// the id matches no row.
func (r *FieldRepo) GetByID(ctx context.Context, id uint64) (model.Field, error) {
	const q = `SELECT id, name, address, capacity, indoor, is_active, created_at, updated_at
               FROM fields WHERE id = ? LIMIT 1`
	var f model.Field
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.Name, &f.Address, &f.Capacity, &f.Indoor, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Field{}, ErrFieldNotFound
	}
	if err != nil {
		return model.Field{}, err
	}
	return f, nil
}

// Create inserts a field and returns the stored row.  Field names are
// unique; a duplicate insert returns ErrConflict.
func (r *FieldRepo) Create(ctx context.Context, f *model.Field) error {
	const q = `INSERT INTO fields (name, address, capacity, indoor, is_active) VALUES (?, ?, ?, ?, 1)`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.Address, f.Capacity, f.Indoor)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT id, name, address, capacity, indoor, is_active, created_at, updated_at
                 FROM fields WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, f.ID).Scan(
		&f.ID, &f.Name, &f.Address, &f.Capacity, &f.Indoor, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
}

// Update applies a partial update to a field.  Nil pointers leave the
// corresponding column untouched.  It returns ErrFieldNotFound when
// the id matches no row.
func (r *FieldRepo) Update(ctx context.Context, id uint64, name, address *string, capacity *uint32, indoor, isActive *bool) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *address)
	}
	if capacity != nil {
		sets = append(sets, "capacity = ?")
		args = append(args, *capacity)
	}
	if indoor != nil {
		sets = append(sets, "indoor = ?")
		args = append(args, *indoor)
	}
	if isActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *isActive)
	}
	if len(sets) == 0 {
		return nil
	}
	q := "UPDATE fields SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the id is unknown or the values were unchanged; probe.
		var exists uint64
		if scanErr := r.db.QueryRowContext(ctx, `SELECT id FROM fields WHERE id = ?`, id).Scan(&exists); scanErr == sql.ErrNoRows {
			return ErrFieldNotFound
		} else if scanErr != nil {
			return scanErr
		}
	}
	return nil
}
