package query

import (
	"slices"
	"strings"
)

// SortField orders by one column
type SortField struct {
	Column string
	Desc   bool
}

// Sort is an ordered list of sort fields. An empty Sort leaves the order to
// the backend.
type Sort []SortField

// Field returns the entry for column and its position
func (s Sort) Field(column string) (SortField, int, bool) {
	for i, f := range s {
		if f.Column == column {
			return f, i, true
		}
	}
	return SortField{}, -1, false
}

// Equal reports whether s and o order identically
func (s Sort) Equal(o Sort) bool {
	return slices.Equal(s, o)
}

func (s Sort) String() string {
	if len(s) == 0 {
		return "unsorted"
	}
	parts := make([]string, len(s))
	for i, f := range s {
		dir := "asc"
		if f.Desc {
			dir = "desc"
		}
		parts[i] = f.Column + " " + dir
	}
	return strings.Join(parts, ", ")
}

// NextSort advances column through unsorted, ascending, descending and back
// to unsorted. Without multi, the result sorts by column alone; with multi,
// other columns keep their place and a newly sorted column is appended.
func NextSort(current Sort, column string, multi bool) Sort {
	f, i, ok := current.Field(column)

	var next *SortField
	switch {
	case !ok:
		next = &SortField{Column: column}
	case !f.Desc:
		next = &SortField{Column: column, Desc: true}
	}

	if !multi {
		if next == nil {
			return nil
		}
		return Sort{*next}
	}

	out := slices.Clone(current)
	switch {
	case !ok:
		out = append(out, *next)
	case next == nil:
		out = slices.Delete(out, i, i+1)
	default:
		out[i] = *next
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
