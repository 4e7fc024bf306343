package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nhath/ezgrid/internal/schema"
)

func rowsFrom(start, n int) []schema.Record {
	out := make([]schema.Record, n)
	for i := range out {
		out[i] = schema.Record{"n": int64(start + i)}
	}
	return out
}

func TestMergeAndGet(t *testing.T) {
	s := New()
	s.SetTotalRows(1000)

	rows := rowsFrom(100, 50)
	if n := s.MergeRows(100, rows); n != 50 {
		t.Fatalf("expected 50 rows merged, got %d", n)
	}
	for i, want := range rows {
		got, ok := s.GetRow(100 + i)
		if !ok {
			t.Fatalf("row %d missing", 100+i)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("row %d mismatch (-want +got):\n%s", 100+i, diff)
		}
	}
	if s.HasRow(99) || s.HasRow(150) {
		t.Error("rows outside the merged span must be absent")
	}

	// overwrite
	s.MergeRows(120, []schema.Record{{"n": "replaced"}})
	if got, _ := s.GetRow(120); got["n"] != "replaced" {
		t.Errorf("expected overwrite, got %v", got)
	}
}

func TestMergeCopiesRows(t *testing.T) {
	s := New()
	s.SetTotalRows(10)
	rows := rowsFrom(0, 1)
	s.MergeRows(0, rows)
	rows[0]["n"] = "mutated"

	if got, _ := s.GetRow(0); got["n"] != int64(0) {
		t.Errorf("stored row changed with the caller's slice: %v", got)
	}
}

func TestMergeClipsToTotal(t *testing.T) {
	s := New()
	s.SetTotalRows(10)

	if n := s.MergeRows(8, rowsFrom(8, 5)); n != 2 {
		t.Errorf("expected 2 rows stored, got %d", n)
	}
	if n := s.MergeRows(-2, rowsFrom(0, 3)); n != 1 {
		t.Errorf("expected 1 row stored, got %d", n)
	}
	if diff := cmp.Diff([]int{0, 8, 9}, s.Indices()); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
	if st := s.Stats(); st.Dropped != 5 {
		t.Errorf("expected 5 dropped rows, got %d", st.Dropped)
	}

	fresh := New()
	if n := fresh.MergeRows(0, rowsFrom(0, 3)); n != 0 {
		t.Errorf("expected nothing stored before the count is known, got %d", n)
	}
}

func TestEvict(t *testing.T) {
	s := New()
	s.SetTotalRows(100)
	s.MergeRows(0, rowsFrom(0, 100))

	if n := s.Evict(20, 39); n != 80 {
		t.Errorf("expected 80 evicted, got %d", n)
	}
	for i := 0; i < 100; i++ {
		if want := i >= 20 && i <= 39; s.HasRow(i) != want {
			t.Errorf("row %d: present=%v, want %v", i, s.HasRow(i), want)
		}
	}
	if n := s.Evict(0, 99); n != 0 {
		t.Errorf("expected nothing evicted inside retention, got %d", n)
	}
	if st := s.Stats(); st.Evictions != 80 {
		t.Errorf("expected 80 evictions counted, got %d", st.Evictions)
	}
}

func TestSetTotalRowsShrinks(t *testing.T) {
	s := New()
	s.SetTotalRows(50)
	s.MergeRows(0, rowsFrom(0, 50))

	s.SetTotalRows(10)
	if s.Len() != 10 || s.HasRow(10) {
		t.Errorf("expected rows past the new end dropped, have %d", s.Len())
	}
	s.SetTotalRows(-3)
	if s.TotalRows() != 0 || s.Len() != 0 {
		t.Errorf("expected empty store, got total=%d len=%d", s.TotalRows(), s.Len())
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.SetTotalRows(5)
	s.MergeRows(0, rowsFrom(0, 5))
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d rows", s.Len())
	}
	if s.TotalRows() != 5 {
		t.Errorf("clear must keep the total, got %d", s.TotalRows())
	}
	if _, ok := s.GetRow(0); ok {
		t.Error("expected row 0 absent")
	}
}
