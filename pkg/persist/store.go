// Package persist is the layout persistence boundary, backed by SQLite.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paneshell/paneshell/pkg/model"
)

// ErrNotFound reports a load for a layout id that does not exist.
var ErrNotFound = errors.New("layout not found")

// Store persists layout records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the layout database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DefaultPath returns the per-user database location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "paneshell.db")
	}
	return filepath.Join(dir, "paneshell", "layouts.db")
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS layouts (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		mode          TEXT NOT NULL,
		structure     TEXT NOT NULL,
		views         TEXT NOT NULL,
		overrides     TEXT,
		active_view   TEXT,
		version       INTEGER NOT NULL DEFAULT 0,
		last_modified TIMESTAMP NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the layout and bumps its version. Returns the persisted
// version so the caller can adopt it after a confirmed save.
func (s *Store) Save(ctx context.Context, layout model.LayoutConfiguration) (int, error) {
	if err := layout.Validate(); err != nil {
		return 0, fmt.Errorf("save layout: %w", err)
	}

	structure, err := json.Marshal(layout.Structure)
	if err != nil {
		return 0, fmt.Errorf("encode structure: %w", err)
	}
	views, err := json.Marshal(layout.Views)
	if err != nil {
		return 0, fmt.Errorf("encode views: %w", err)
	}
	var overrides []byte
	if len(layout.Overrides) > 0 {
		overrides, err = json.Marshal(layout.Overrides)
		if err != nil {
			return 0, fmt.Errorf("encode overrides: %w", err)
		}
	}

	version := layout.Version + 1
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO layouts (id, name, mode, structure, views, overrides, active_view, version, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			mode = excluded.mode,
			structure = excluded.structure,
			views = excluded.views,
			overrides = excluded.overrides,
			active_view = excluded.active_view,
			version = excluded.version,
			last_modified = excluded.last_modified
	`, layout.ID, layout.Name, string(layout.Mode), string(structure), string(views),
		nullable(overrides), layout.ActiveViewID, version, time.Now())
	if err != nil {
		return 0, fmt.Errorf("save layout %s: %w", layout.ID, err)
	}
	return version, nil
}

// Load reads one layout by id. Returns ErrNotFound for unknown ids.
func (s *Store) Load(ctx context.Context, id string) (model.LayoutConfiguration, error) {
	var (
		layout    model.LayoutConfiguration
		mode      string
		structure string
		views     string
		overrides sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, mode, structure, views, overrides, active_view, version, last_modified
		FROM layouts WHERE id = ?
	`, id).Scan(&layout.ID, &layout.Name, &mode, &structure, &views,
		&overrides, &layout.ActiveViewID, &layout.Version, &layout.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LayoutConfiguration{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.LayoutConfiguration{}, fmt.Errorf("load layout %s: %w", id, err)
	}

	layout.Mode = model.LayoutMode(mode)
	if err := json.Unmarshal([]byte(structure), &layout.Structure); err != nil {
		return model.LayoutConfiguration{}, fmt.Errorf("decode structure: %w", err)
	}
	if err := json.Unmarshal([]byte(views), &layout.Views); err != nil {
		return model.LayoutConfiguration{}, fmt.Errorf("decode views: %w", err)
	}
	if overrides.Valid && overrides.String != "" {
		if err := json.Unmarshal([]byte(overrides.String), &layout.Overrides); err != nil {
			return model.LayoutConfiguration{}, fmt.Errorf("decode overrides: %w", err)
		}
	}
	if err := layout.Validate(); err != nil {
		return model.LayoutConfiguration{}, fmt.Errorf("load layout %s: %w", id, err)
	}
	return layout, nil
}

// Summary is one row of List.
type Summary struct {
	ID           string
	Name         string
	Mode         model.LayoutMode
	Views        int
	Version      int
	LastModified time.Time
}

// List returns summaries of all persisted layouts, most recent first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, mode, views, version, last_modified
		FROM layouts ORDER BY last_modified DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum   Summary
			mode  string
			views string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &mode, &views, &sum.Version, &sum.LastModified); err != nil {
			return nil, fmt.Errorf("scan layout row: %w", err)
		}
		sum.Mode = model.LayoutMode(mode)
		var vs []model.ViewConfiguration
		if err := json.Unmarshal([]byte(views), &vs); err == nil {
			sum.Views = len(vs)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return out, nil
}

// Delete removes a layout by id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete layout %s: %w", id, err)
	}
	return nil
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
