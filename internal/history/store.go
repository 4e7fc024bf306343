// internal/history/store.go
package history

import (
	"database/sql"
	"errors"
	"time"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/nhath/ezgrid/internal/query"
)

// Store persists the query log in SQLite
type Store struct {
	db         *sql.DB
	maxEntries int
}

// NewStore opens the log in the XDG data directory
func NewStore(maxEntries int) (*Store, error) {
	dbPath, err := xdg.DataFile("ezgrid/history.db")
	if err != nil {
		return nil, err
	}
	return NewStoreAt(dbPath, maxEntries)
}

// NewStoreAt opens the log at path. maxEntries <= 0 keeps every entry.
func NewStoreAt(path string, maxEntries int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			table_name TEXT NOT NULL,
			query TEXT NOT NULL,
			args TEXT NOT NULL DEFAULT '',
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			duration_ms INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_history_profile ON history(profile_name);
		CREATE INDEX IF NOT EXISTS idx_history_executed_at ON history(executed_at);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := &Store{db: db, maxEntries: maxEntries}
	if err := store.cleanup(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts an entry and prunes the profile down to the entry limit
func (s *Store) Add(entry *Entry) error {
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now()
	}
	res, err := s.db.Exec(`
		INSERT INTO history (profile_name, kind, table_name, query, args, executed_at, duration_ms, row_count, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ProfileName,
		entry.Kind,
		entry.Table,
		entry.Query,
		entry.Args,
		entry.ExecutedAt,
		entry.DurationMs,
		entry.RowCount,
		entry.Status,
		entry.ErrorMessage,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id

	if s.maxEntries > 0 {
		return s.enforceLimit(entry.ProfileName, s.maxEntries)
	}
	return nil
}

// enforceLimit keeps only the most recent N entries per profile
func (s *Store) enforceLimit(profileName string, limit int) error {
	_, err := s.db.Exec(`
		DELETE FROM history
		WHERE profile_name = ?
		AND id NOT IN (
			SELECT id FROM history
			WHERE profile_name = ?
			ORDER BY executed_at DESC, id DESC
			LIMIT ?
		)
	`, profileName, profileName, limit)
	return err
}

const selectColumns = `
	SELECT id, profile_name, kind, table_name, query, args, executed_at, duration_ms, row_count, status, error_message
	FROM history`

// List returns paginated history entries for a profile, newest first
func (s *Store) List(profileName string, limit, offset int) ([]Entry, error) {
	rows, err := s.db.Query(selectColumns+`
		WHERE profile_name = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, profileName, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search finds history entries by table or query substring
func (s *Store) Search(profileName, substr string, limit int) ([]Entry, error) {
	pattern := "%" + substr + "%"
	rows, err := s.db.Query(selectColumns+`
		WHERE profile_name = ? AND (query LIKE ? OR table_name LIKE ?)
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`, profileName, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.ProfileName, &e.Kind, &e.Table, &e.Query, &e.Args,
		&e.ExecutedAt, &e.DurationMs, &e.RowCount, &e.Status, &e.ErrorMessage)
	return e, err
}

// scanEntries scans rows into an Entry slice
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetByID retrieves a single history entry by ID. A missing entry returns
// nil without an error.
func (s *Store) GetByID(id int64) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRow(selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes a history entry by ID
func (s *Store) Delete(id int64) error {
	_, err := s.db.Exec("DELETE FROM history WHERE id = ?", id)
	return err
}

// cleanup removes history entries older than 90 days
func (s *Store) cleanup() error {
	_, err := s.db.Exec(`
		DELETE FROM history
		WHERE executed_at < datetime('now', '-90 days')
	`)
	return err
}

// Count returns the total number of history entries for a profile
func (s *Store) Count(profileName string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM history WHERE profile_name = ?
	`, profileName).Scan(&count)
	return count, err
}

// Recorder logs statements for one profile. It satisfies query.Recorder.
type Recorder struct {
	store   *Store
	profile string
	log     logrus.FieldLogger
}

// Recorder returns a recorder writing under profile
func (s *Store) Recorder(profile string, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{store: s, profile: profile, log: log}
}

// Record stores st. Write failures are logged, never returned to the grid.
func (r *Recorder) Record(st query.Statement) {
	e := &Entry{
		ProfileName: r.profile,
		Kind:        st.Kind,
		Table:       st.Table,
		Query:       st.SQL,
		Args:        encodeArgs(st.Args),
		DurationMs:  st.Duration.Milliseconds(),
		RowCount:    st.Rows,
		Status:      StatusSuccess,
	}
	if st.Err != nil {
		e.Status = StatusError
		e.ErrorMessage = st.Err.Error()
	}
	if err := r.store.Add(e); err != nil {
		r.log.WithError(err).Warn("failed to record query")
	}
}
