package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Control is a single persisted boolean resource.
type Control struct {
	ID       int64
	Name     string
	Enabled  bool
	Revision string
}

type Store interface {
	GetControls(context.Context) ([]Control, error)
	GetControl(context.Context, string) (Control, error)
	AddControls(context.Context, []string) error
	SetControl(context.Context, string, bool) (Control, error)
	FlipControl(context.Context, string) (Control, error)
}

type store struct {
	db *sql.DB
}

// New create new DB store.
func New(db *sql.DB) Store {
	return &store{db: db}
}

// GetControl returns control by name.
func (s *store) GetControl(
	ctx context.Context,
	name string,
) (rv Control, err error) {
	const query = `
SELECT
	id, name, enabled, revision
FROM
	controls
WHERE
	name = $1
LIMIT 1`

	err = s.db.QueryRowContext(ctx, query, strings.ToLower(name)).Scan(
		&rv.ID, &rv.Name, &rv.Enabled, &rv.Revision,
	)

	return
}

// GetControls returns all known controls.
func (s *store) GetControls(
	ctx context.Context,
) (rv []Control, err error) {
	const query = `SELECT id, name, enabled, revision FROM controls ORDER BY name`

	var rows *sql.Rows

	if rows, err = s.db.QueryContext(ctx, query); err != nil {
		return
	}

	defer rows.Close()

	var c Control

	for rows.Next() {
		if err = rows.Scan(&c.ID, &c.Name, &c.Enabled, &c.Revision); err != nil {
			return
		}

		rv = append(rv, c)
	}

	return rv, rows.Err()
}

// AddControls adds new controls, disabled by default.
func (s *store) AddControls(
	ctx context.Context,
	names []string,
) error {
	const queryHead = `INSERT INTO controls(name, enabled, revision) VALUES `

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	defer tx.Rollback()

	queryParts := make([]string, len(names))
	args := make([]interface{}, 0, len(names)*2)

	for i, n := range names {
		queryParts[i] = fmt.Sprintf("($%d, FALSE, $%d)", i*2+1, i*2+2)
		args = append(args, strings.ToLower(n), uuid.New().String())
	}

	query := queryHead + strings.Join(queryParts, ",")

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return tx.Commit()
}

// SetControl stores explicit value, bumping revision.
func (s *store) SetControl(
	ctx context.Context,
	name string,
	enabled bool,
) (rv Control, err error) {
	const query = `
UPDATE controls
SET
	enabled = $2, revision = $3, updated_at = NOW()
WHERE
	name = $1
RETURNING
	id, name, enabled, revision`

	err = s.db.QueryRowContext(
		ctx, query, strings.ToLower(name), enabled, uuid.New().String(),
	).Scan(
		&rv.ID, &rv.Name, &rv.Enabled, &rv.Revision,
	)

	return
}

// FlipControl inverts stored value, bumping revision.
func (s *store) FlipControl(
	ctx context.Context,
	name string,
) (rv Control, err error) {
	const query = `
UPDATE controls
SET
	enabled = NOT enabled, revision = $2, updated_at = NOW()
WHERE
	name = $1
RETURNING
	id, name, enabled, revision`

	err = s.db.QueryRowContext(
		ctx, query, strings.ToLower(name), uuid.New().String(),
	).Scan(
		&rv.ID, &rv.Name, &rv.Enabled, &rv.Revision,
	)

	return
}
