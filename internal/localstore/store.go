// Package localstore answers grade searches in memory over registrar CSV
// exports, for offline inspection without a database.
package localstore

import (
	"context"
	"sync"

	"github.com/arod1104/uic-gradebook/internal/grades"
	"github.com/arod1104/uic-gradebook/internal/migrate"
	"github.com/arod1104/uic-gradebook/internal/types"
)

type Store struct {
	mu      sync.RWMutex
	records []types.GradeRecord
}

// New stores records, numbering them from 1 in order as the database would.
func New(records []types.GradeRecord) *Store {
	s := &Store{records: make([]types.GradeRecord, len(records))}
	copy(s.records, records)
	for i := range s.records {
		s.records[i].ID = int64(i + 1)
	}
	return s
}

// Open loads every CSV file of dir.
func Open(dir string) (*Store, error) {
	records, err := migrate.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return New(records), nil
}

// Len is the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// SearchGrades returns the first q.Limit matches in id order and the total
// number of matches.
func (s *Store) SearchGrades(ctx context.Context, q grades.Query) ([]grades.Row, int64, error) {
	limit := q.Limit
	if limit <= 0 || limit > grades.MaxResults {
		limit = grades.MaxResults
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make([]grades.Row, 0)
	var total int64
	for i := range s.records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		r := &s.records[i]
		if !q.Matches(r) {
			continue
		}
		total++
		if len(data) < limit {
			data = append(data, q.Project(r))
		}
	}
	return data, total, nil
}

// InsertGrade appends r, assigning the next id.
func (s *Store) InsertGrade(_ context.Context, r *types.GradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *r
	rec.ID = int64(len(s.records) + 1)
	s.records = append(s.records, rec)
	return nil
}
