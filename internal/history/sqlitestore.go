package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore keeps history rows in a three-column table. It does not report
// totals; callers detect end-of-data from a short page.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the history database.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS histories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			sender TEXT NOT NULL,
			text TEXT NOT NULL,
			ts TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_histories_username ON histories(username, id);
	`
	_, err := s.db.Exec(query)
	return err
}

// Append implements Store.
func (s *SQLiteStore) Append(user string, item Item) error {
	item.Stamp()

	_, err := s.db.Exec(
		`INSERT INTO histories (username, sender, text, ts) VALUES (?, ?, ?, ?)`,
		SanitizeUser(user), item.From, item.Text, item.TS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history row: %w", err)
	}
	return nil
}

// Read implements Store. Rows come back newest first straight from the
// query; insertion order is the autoincrement id.
func (s *SQLiteStore) Read(user string, page, size int) ([]Item, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	rows, err := s.db.Query(
		`SELECT sender, text, ts FROM histories WHERE username = ? ORDER BY id DESC LIMIT ? OFFSET ?`,
		SanitizeUser(user), size, (page-1)*size,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.From, &item.Text, &item.TS); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return items, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(user string) error {
	_, err := s.db.Exec(`DELETE FROM histories WHERE username = ?`, SanitizeUser(user))
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Total implements Store. The row backend does not report totals.
func (s *SQLiteStore) Total(string) (int, bool) {
	return 0, false
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
