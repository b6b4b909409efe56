package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/fetchxml"
)

var (
	// ErrNotFound is returned when no query is saved under a name.
	ErrNotFound = errors.New("query not found")

	// ErrInvalidName is returned for empty or whitespace-only names.
	ErrInvalidName = errors.New("invalid query name")
)

// Record is a saved query.
type Record struct {
	ID          string
	Name        string
	Entity      string // empty when the query has no entity
	Fingerprint string
	XML         string
	Seq         int64
}

// Save renders q and stores it under name. Saving an existing name replaces
// its XML and fingerprint, keeps its ID and moves it to the next seq.
// A query with recorded argument errors is not saved.
func (c *Catalog) Save(ctx context.Context, name string, q *fetchxml.Query) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, fmt.Errorf("save query: %w", ErrInvalidName)
	}
	if q == nil {
		return Record{}, fmt.Errorf("save query %q: nil query", name)
	}

	xml, err := q.Render()
	if err != nil {
		return Record{}, fmt.Errorf("save query %q: %w", name, err)
	}
	fingerprint, err := q.Fingerprint()
	if err != nil {
		return Record{}, fmt.Errorf("save query %q: %w", name, err)
	}

	var entity sql.NullString
	if e, ok := q.Entity(); ok {
		entity = sql.NullString{String: e, Valid: true}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("save query %q: begin: %w", name, err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM queries`).Scan(&seq); err != nil {
		return Record{}, fmt.Errorf("save query %q: next seq: %w", name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO queries (id, name, entity, fingerprint, xml, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			entity = excluded.entity,
			fingerprint = excluded.fingerprint,
			xml = excluded.xml,
			seq = excluded.seq
	`, c.ids.Generate(), name, entity, fingerprint, xml, seq)
	if err != nil {
		return Record{}, fmt.Errorf("save query %q: %w", name, err)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE name = ?`, name))
	if err != nil {
		return Record{}, fmt.Errorf("save query %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("save query %q: commit: %w", name, err)
	}

	c.log.Debug().
		Str("name", rec.Name).
		Str("id", rec.ID).
		Int64("seq", rec.Seq).
		Str("fingerprint", rec.Fingerprint).
		Msg("query saved")
	return rec, nil
}

// Get returns the query saved under name. Names are trimmed as in Save.
func (c *Catalog) Get(ctx context.Context, name string) (Record, error) {
	name = strings.TrimSpace(name)
	rec, err := scanRecord(c.db.QueryRowContext(ctx, selectRecord+` WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get query %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get query %q: %w", name, err)
	}
	return rec, nil
}

// List returns all saved queries ordered by name.
// Returns an empty slice (not nil) when the catalog is empty.
func (c *Catalog) List(ctx context.Context) ([]Record, error) {
	return c.query(ctx, selectRecord+` ORDER BY name COLLATE BINARY ASC`)
}

// FindByFingerprint returns the queries whose state hashes to fingerprint,
// ordered by seq.
func (c *Catalog) FindByFingerprint(ctx context.Context, fingerprint string) ([]Record, error) {
	return c.query(ctx, selectRecord+` WHERE fingerprint = ? ORDER BY seq ASC, id COLLATE BINARY ASC`, fingerprint)
}

// Delete removes the query saved under name.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	res, err := c.db.ExecContext(ctx, `DELETE FROM queries WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete query %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete query %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete query %q: %w", name, ErrNotFound)
	}

	c.log.Debug().Str("name", name).Msg("query deleted")
	return nil
}

const selectRecord = `SELECT id, name, entity, fingerprint, xml, seq FROM queries`

func (c *Catalog) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var entity sql.NullString
	if err := row.Scan(&rec.ID, &rec.Name, &entity, &rec.Fingerprint, &rec.XML, &rec.Seq); err != nil {
		return Record{}, err
	}
	rec.Entity = entity.String
	return rec, nil
}
