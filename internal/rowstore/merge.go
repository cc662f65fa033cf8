package rowstore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Merge concatenates rows from many CSV files in input order. Every input
// must carry the exact schema header.
func Merge(paths []string) ([]Row, error) {
	var rows []Row
	for _, path := range paths {
		part, err := Read(path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

// SortRows orders rows by a schema column, numerically when every
// non-empty value in the column is an unsigned integer, lexically
// (case-insensitive) otherwise. The sort is stable; empty values sort
// last in numeric mode.
func SortRows(rows []Row, column string) ([]Row, error) {
	if column == "" {
		return rows, nil
	}
	if !IsColumn(column) {
		return nil, fmt.Errorf("sort column %q is not a schema column", column)
	}
	numeric := true
	for _, row := range rows {
		value := row.Field(column)
		if value == "" {
			continue
		}
		if _, err := strconv.Atoi(value); err != nil {
			numeric = false
			break
		}
	}
	sorted := append([]Row(nil), rows...)
	if numeric {
		sort.SliceStable(sorted, func(i, j int) bool {
			return numericKey(sorted[i].Field(column)) < numericKey(sorted[j].Field(column))
		})
		return sorted, nil
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Field(column)) < strings.ToLower(sorted[j].Field(column))
	})
	return sorted, nil
}

func numericKey(value string) int {
	if value == "" {
		// Sort empties after any real value.
		return int(^uint(0) >> 1)
	}
	n, _ := strconv.Atoi(value)
	return n
}

// Dedupe removes rows whose slide UID was already seen, keeping the first
// occurrence. Rows with empty UIDs are always kept.
func Dedupe(rows []Row) ([]Row, int) {
	seen := make(map[string]struct{}, len(rows))
	kept := rows[:0:0]
	removed := 0
	for _, row := range rows {
		if row.SlideUID != "" {
			if _, dup := seen[row.SlideUID]; dup {
				removed++
				continue
			}
			seen[row.SlideUID] = struct{}{}
		}
		kept = append(kept, row)
	}
	return kept, removed
}
