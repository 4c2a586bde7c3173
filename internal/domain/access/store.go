package access

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) ListForms(ctx context.Context) ([]Form, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, description, position
    FROM access_forms
    ORDER BY position, name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Form
	for rows.Next() {
		var f Form
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Position); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) GetForm(ctx context.Context, formID string) (Form, error) {
	var f Form
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, description, position FROM access_forms WHERE id = $1
  `, formID).Scan(&f.ID, &f.Name, &f.Description, &f.Position)
	return f, err
}

func (s *Store) ListUserAccess(ctx context.Context, userID string) ([]FormAccess, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT fa.form_id, fa.full_access, fa.no_access, fa.partial_enabled, fa.permissions,
           COALESCE(fa.selected_access_level, ''), f.name
    FROM form_access fa
    JOIN access_forms f ON f.id = fa.form_id
    WHERE fa.user_id = $1
    ORDER BY f.position, f.name
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FormAccess
	for rows.Next() {
		var rec Record
		var formName string
		if err := rows.Scan(&rec.FormID, &rec.FullAccess, &rec.NoAccess, &rec.PartialAccess.Enabled,
			&rec.PartialAccess.Permissions, &rec.SelectedAccessLevel, &formName); err != nil {
			return nil, err
		}
		out = append(out, NewFormAccess(rec, formName))
	}
	return out, rows.Err()
}

func (s *Store) ListFormUsers(ctx context.Context, formID string) ([]UserFormAccess, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.name, u.email, r.name,
           fa.form_id, fa.full_access, fa.no_access, fa.partial_enabled, fa.permissions,
           COALESCE(fa.selected_access_level, ''), f.name
    FROM form_access fa
    JOIN access_forms f ON f.id = fa.form_id
    JOIN users u ON u.id = fa.user_id
    JOIN roles r ON r.id = u.role_id
    WHERE fa.form_id = $1
    ORDER BY u.name
  `, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserFormAccess
	for rows.Next() {
		var item UserFormAccess
		var rec Record
		var formName string
		if err := rows.Scan(&item.UserID, &item.UserName, &item.Email, &item.RoleName,
			&rec.FormID, &rec.FullAccess, &rec.NoAccess, &rec.PartialAccess.Enabled,
			&rec.PartialAccess.Permissions, &rec.SelectedAccessLevel, &formName); err != nil {
			return nil, err
		}
		item.FormAccess = NewFormAccess(rec, formName)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetRecord(ctx context.Context, userID, formID string) (Record, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
    SELECT form_id, full_access, no_access, partial_enabled, permissions, COALESCE(selected_access_level, '')
    FROM form_access
    WHERE user_id = $1 AND form_id = $2
  `, userID, formID).Scan(&rec.FormID, &rec.FullAccess, &rec.NoAccess, &rec.PartialAccess.Enabled,
		&rec.PartialAccess.Permissions, &rec.SelectedAccessLevel)
	return rec, err
}

func (s *Store) FindRecordByFormName(ctx context.Context, userID, formName string) (Record, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
    SELECT fa.form_id, fa.full_access, fa.no_access, fa.partial_enabled, fa.permissions,
           COALESCE(fa.selected_access_level, '')
    FROM form_access fa
    JOIN access_forms f ON f.id = fa.form_id
    WHERE fa.user_id = $1 AND f.name = $2
  `, userID, formName).Scan(&rec.FormID, &rec.FullAccess, &rec.NoAccess, &rec.PartialAccess.Enabled,
		&rec.PartialAccess.Permissions, &rec.SelectedAccessLevel)
	return rec, err
}

func (s *Store) SaveRecord(ctx context.Context, userID string, rec Record) error {
	perms := Normalize(rec.PartialAccess.Permissions)
	tag, err := s.DB.Exec(ctx, `
    UPDATE form_access
    SET full_access = $3, no_access = $4, partial_enabled = $5, permissions = $6,
        selected_access_level = NULLIF($7, ''), updated_at = now()
    WHERE user_id = $1 AND form_id = $2
  `, userID, rec.FormID, rec.FullAccess, rec.NoAccess, rec.PartialAccess.Enabled, perms, rec.SelectedAccessLevel)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// EnsureForms inserts missing catalogue entries and refreshes their order.
func (s *Store) EnsureForms(ctx context.Context, forms []Form) error {
	for i, form := range forms {
		if _, err := s.DB.Exec(ctx, `
      INSERT INTO access_forms (id, name, description, position)
      VALUES ($1, $2, $3, $4)
      ON CONFLICT (name) DO UPDATE SET position = EXCLUDED.position
    `, db.NewID(), form.Name, form.Description, i); err != nil {
			return err
		}
	}
	return nil
}

// EnsureMatrices gives every user an access-control document and one
// no-access row for any form they do not have yet.
func (s *Store) EnsureMatrices(ctx context.Context) error {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.role_id
    FROM users u
    LEFT JOIN user_access_controls uac ON uac.user_id = u.id
    WHERE uac.id IS NULL
  `)
	if err != nil {
		return err
	}
	type pending struct{ userID, roleID string }
	var missing []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.userID, &p.roleID); err != nil {
			rows.Close()
			return err
		}
		missing = append(missing, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range missing {
		if _, err := s.DB.Exec(ctx, `
      INSERT INTO user_access_controls (id, user_id, role_id) VALUES ($1, $2, $3)
      ON CONFLICT (user_id) DO NOTHING
    `, db.NewID(), p.userID, p.roleID); err != nil {
			return err
		}
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO form_access (access_control_id, user_id, form_id, no_access, permissions)
    SELECT uac.id, uac.user_id, f.id, true, $1
    FROM user_access_controls uac
    CROSS JOIN access_forms f
    ON CONFLICT (user_id, form_id) DO NOTHING
  `, DefaultPermissions())
	return err
}

// GrantFullAccess sets full access on every form for one user.
func (s *Store) GrantFullAccess(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE form_access
    SET full_access = true, no_access = false, partial_enabled = false, permissions = $2,
        selected_access_level = $3, updated_at = now()
    WHERE user_id = $1
  `, userID, DefaultPermissions(), string(LevelFull))
	return err
}
