// internal/store/store.go
package store

import (
	"slices"

	"github.com/nhath/ezgrid/internal/schema"
)

// Stats holds counters for a Store
type Stats struct {
	Merged    int64
	Dropped   int64 // rows offered to MergeRows outside [0, totalRows)
	Evictions int64
	Hits      int64
	Misses    int64
}

// Store is a sparse mapping from row index to record for one table, plus the
// known dataset size. Indices outside [0, totalRows) are never stored.
//
// Store is owned by a single event loop and is not safe for concurrent use.
type Store struct {
	rows  map[int]schema.Record
	total int
	stats Stats
}

// New creates an empty store
func New() *Store {
	return &Store{rows: make(map[int]schema.Record)}
}

// MergeRows writes rows at contiguous indices starting at start, replacing
// existing entries. Rows falling outside [0, totalRows) are dropped. It
// returns the number of rows stored.
func (s *Store) MergeRows(start int, rows []schema.Record) int {
	n := 0
	for i, r := range rows {
		idx := start + i
		if idx < 0 || idx >= s.total {
			s.stats.Dropped++
			continue
		}
		s.rows[idx] = r.Clone()
		n++
	}
	s.stats.Merged += int64(n)
	return n
}

// GetRow returns the record at index. The returned record must be treated
// as read-only.
func (s *Store) GetRow(index int) (schema.Record, bool) {
	r, ok := s.rows[index]
	if ok {
		s.stats.Hits++
	} else {
		s.stats.Misses++
	}
	return r, ok
}

// HasRow reports whether index is cached
func (s *Store) HasRow(index int) bool {
	_, ok := s.rows[index]
	return ok
}

// Evict removes every cached index outside [start, end], both inclusive,
// and returns how many rows were removed.
func (s *Store) Evict(start, end int) int {
	n := 0
	for idx := range s.rows {
		if idx < start || idx > end {
			delete(s.rows, idx)
			n++
		}
	}
	s.stats.Evictions += int64(n)
	return n
}

// SetTotalRows records the dataset size. Cached rows past a shrunken end
// are dropped.
func (s *Store) SetTotalRows(n int) {
	if n < 0 {
		n = 0
	}
	if n < s.total {
		for idx := range s.rows {
			if idx >= n {
				delete(s.rows, idx)
			}
		}
	}
	s.total = n
}

// TotalRows returns the known dataset size
func (s *Store) TotalRows() int { return s.total }

// Clear drops every cached row. The dataset size is kept.
func (s *Store) Clear() {
	clear(s.rows)
}

// Len returns the number of cached rows
func (s *Store) Len() int { return len(s.rows) }

// Indices returns the cached row indices in ascending order
func (s *Store) Indices() []int {
	out := make([]int, 0, len(s.rows))
	for idx := range s.rows {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// Stats returns a snapshot of the store counters
func (s *Store) Stats() Stats { return s.stats }
