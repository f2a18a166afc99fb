package bitmap

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists Bitmaps in a sqlite table keyed by owner ID,
// generalized beyond transfer sessions to any owner (P2P session,
// Wormhole window) that needs bit-level resume.
type Store struct {
	db *sql.DB
}

// Open opens or creates a sqlite-backed bitmap store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("bitmap: open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS bitmaps (
			owner_id TEXT PRIMARY KEY,
			bitmap_data BLOB NOT NULL,
			done_count INTEGER NOT NULL DEFAULT 0,
			last_updated TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bitmaps_updated ON bitmaps(last_updated);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bitmap: init schema: %w", err)
	}
	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
			db.Close()
			return nil, fmt.Errorf("bitmap: set schema version: %w", err)
		}
	} else if err != nil {
		db.Close()
		return nil, fmt.Errorf("bitmap: query schema version: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save persists b's current state.
func (s *Store) Save(b *Bitmap) error {
	done, _ := b.Progress()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO bitmaps (owner_id, bitmap_data, done_count, last_updated) VALUES (?, ?, ?, ?)`,
		b.OwnerID(), b.Serialize(), done, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("bitmap: save: %w", err)
	}
	return nil
}

// ErrNotFound is returned by Load when no bitmap is stored for an owner.
var ErrNotFound = fmt.Errorf("bitmap: not found")

// Load retrieves the bitmap for ownerID, sized for total items.
func (s *Store) Load(ownerID string, total int64) (*Bitmap, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT bitmap_data FROM bitmaps WHERE owner_id = ?`, ownerID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bitmap: load: %w", err)
	}

	b := New(ownerID, total)
	if err := b.Deserialize(data); err != nil {
		return nil, fmt.Errorf("bitmap: deserialize: %w", err)
	}
	return b, nil
}

// Delete removes ownerID's persisted bitmap, if any.
func (s *Store) Delete(ownerID string) error {
	_, err := s.db.Exec(`DELETE FROM bitmaps WHERE owner_id = ?`, ownerID)
	if err != nil {
		return fmt.Errorf("bitmap: delete: %w", err)
	}
	return nil
}
