package types

import "time"

// Ledger statuses.
const (
	MigrationDone   = "DONE"
	MigrationFailed = "FAILED"
)

// MigrationFile is one row of the migration_files ledger.
type MigrationFile struct {
	FileName     string    `json:"file_name"`
	Term         string    `json:"term"`
	Checksum     string    `json:"checksum"`
	RowsInserted int       `json:"rows_inserted"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}
