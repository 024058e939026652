package views

import (
	"strings"
)

// FilterAll is the select value meaning "don't filter on this column"
const FilterAll = "All"

// Page is one page of a list view. Empty is set when nothing matched at all,
// which views render as a "no records" state rather than an error.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	Total      int  `json:"total"`
	Empty      bool `json:"empty"`
}

// Filter keeps the items keep returns true for, in order
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Paginate slices out a 1-based page. Pages past the end come back with no
// items; a page below 1 is treated as 1.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	p := Page[T]{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
		Empty:      total == 0,
		Items:      []T{},
	}

	start := (page - 1) * size
	if start >= total {
		return p
	}
	end := start + size
	if end > total {
		end = total
	}
	p.Items = items[start:end]
	return p
}

// List wraps a whole unpaginated list the same way
func List[T any](items []T) Page[T] {
	return Paginate(items, 1, 0)
}

// containsFold is a case-insensitive substring match. An empty needle matches everything.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func anyContainsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if containsFold(f, needle) {
			return true
		}
	}
	return false
}

func matchesSelect(value, selected string) bool {
	return selected == "" || selected == FilterAll || value == selected
}

// Distinct returns FilterAll followed by each distinct value in first-seen
// order, for building select options.
func Distinct[T any](items []T, field func(T) string) []string {
	seen := map[string]bool{}
	out := []string{FilterAll}
	for _, it := range items {
		v := field(it)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
