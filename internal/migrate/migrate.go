package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

// Inserter stores one grade record.
type Inserter interface {
	InsertGrade(ctx context.Context, r *types.GradeRecord) error
}

// Ledger records the outcome of every file a run attempts.
type Ledger interface {
	RecordMigrationFile(ctx context.Context, f *types.MigrationFile) error
}

// RowError reports an insert failure. Rows before Row stay committed.
type RowError struct {
	File     string
	Row      int // 1-based data row that failed
	Inserted int // rows of File committed before the failure
	Err      error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d (%d rows inserted): %v", e.File, e.Row, e.Inserted, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Source is a CSV file with its term already extracted.
type Source struct {
	Path string
	Name string
	Term string
}

// FileReport is the outcome of one migrated file.
type FileReport struct {
	Name     string
	Term     string
	Checksum string
	Rows     int
}

// Report summarises a run.
type Report struct {
	Files []FileReport
	Rows  int
}

// ListSources returns the *.csv files of dir sorted by name, each with its
// term. Every name is checked before anything is returned, so a single bad
// name fails the whole run before any row is written.
func ListSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var sources []Source
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		term, err := ExtractTerm(entry.Name())
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
			Term: term,
		})
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// LoadDir reads every record of every CSV file in dir.
func LoadDir(dir string) ([]types.GradeRecord, error) {
	sources, err := ListSources(dir)
	if err != nil {
		return nil, err
	}

	var all []types.GradeRecord
	for _, src := range sources {
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", src.Name, err)
		}
		records, err := ReadRecords(f, src.Term)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

// Checksum is the hex xxhash64 of data.
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Migrator copies CSV releases into the grade table one row at a time.
type Migrator struct {
	inserter Inserter
	ledger   Ledger
	now      func() time.Time
}

// New creates a Migrator. ledger may be nil.
func New(inserter Inserter, ledger Ledger) *Migrator {
	return &Migrator{inserter: inserter, ledger: ledger, now: time.Now}
}

// Run migrates every CSV file in dir, in name order. It stops at the first
// failure; rows inserted before it are not rolled back.
func (m *Migrator) Run(ctx context.Context, dir string) (*Report, error) {
	sources, err := ListSources(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	log.Info().Int("files", len(sources)).Strs("names", names).Msg("starting migration")

	report := &Report{}
	for _, src := range sources {
		fr, err := m.migrateFile(ctx, src)
		report.Rows += fr.Rows
		if err != nil {
			return report, err
		}
		report.Files = append(report.Files, fr)
		log.Info().Str("file", src.Name).Str("term", src.Term).Int("rows", fr.Rows).Msg("migrated")
	}

	log.Info().Int("files", len(report.Files)).Int("rows", report.Rows).Msg("migration complete")
	return report, nil
}

func (m *Migrator) migrateFile(ctx context.Context, src Source) (FileReport, error) {
	fr := FileReport{Name: src.Name, Term: src.Term}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return fr, fmt.Errorf("failed to read %s: %w", src.Name, err)
	}
	fr.Checksum = Checksum(data)

	err = m.insertAll(ctx, src, bytes.NewReader(data), &fr)
	m.record(ctx, fr, err)
	return fr, err
}

func (m *Migrator) insertAll(ctx context.Context, src Source, r io.Reader, fr *FileReport) error {
	rr, err := NewRecordReader(r, src.Term)
	if err != nil {
		return fmt.Errorf("%s: %w", src.Name, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return &RowError{File: src.Name, Row: rr.Row() + 1, Inserted: fr.Rows, Err: err}
		}

		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", src.Name, err)
		}

		if err := m.inserter.InsertGrade(ctx, rec); err != nil {
			return &RowError{File: src.Name, Row: rr.Row(), Inserted: fr.Rows, Err: err}
		}
		fr.Rows++
	}
}

func (m *Migrator) record(ctx context.Context, fr FileReport, runErr error) {
	if m.ledger == nil {
		return
	}

	entry := &types.MigrationFile{
		FileName:     fr.Name,
		Term:         fr.Term,
		Checksum:     fr.Checksum,
		RowsInserted: fr.Rows,
		Status:       types.MigrationDone,
		ProcessedAt:  m.now().UTC(),
	}
	if runErr != nil {
		entry.Status = types.MigrationFailed
		entry.Error = runErr.Error()
	}

	// The ledger must still be written when the run was cancelled.
	if err := m.ledger.RecordMigrationFile(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn().Err(err).Str("file", fr.Name).Msg("failed to record migration file")
	}
}
