package index

import (
	"fmt"

	"database/sql"
)

// LoadOffsets returns the consumed byte offset per log segment.
func (db *DB) LoadOffsets() (map[string]int64, error) {
	rows, err := db.reader.Query(
		"SELECT file_path, byte_offset FROM log_offsets",
	)
	if err != nil {
		return nil, fmt.Errorf("loading log offsets: %w", err)
	}
	defer rows.Close()

	offsets := make(map[string]int64)
	for rows.Next() {
		var path string
		var offset int64
		if err := rows.Scan(&path, &offset); err != nil {
			return nil, fmt.Errorf("scanning log offset: %w", err)
		}
		offsets[path] = offset
	}
	return offsets, rows.Err()
}

// SetOffset records the consumed byte offset for one segment.
func (db *DB) SetOffset(path string, offset int64) error {
	return db.Update(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO log_offsets (file_path, byte_offset)
			VALUES (?, ?)
			ON CONFLICT(file_path) DO UPDATE SET
				byte_offset = excluded.byte_offset`,
			path, offset,
		)
		if err != nil {
			return fmt.Errorf("setting offset for %s: %w", path, err)
		}
		return nil
	})
}
