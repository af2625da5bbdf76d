package store

import (
	"sort"

	"github.com/zako-ac/issuetracker/internal/models"
)

// SortedIDs returns the keys of a listing in ascending order.
func SortedIDs(issues map[int64]*models.Issue) []int64 {
	ids := make([]int64, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Page returns the 1-based page of ids for the given page size. Out-of-range
// pages yield an empty slice; a non-positive size returns every id.
func Page(ids []int64, page, size int) []int64 {
	if size <= 0 {
		return ids
	}
	if page < 1 {
		page = 1
	}
	// Bound the page before multiplying; (page-1)*size can overflow.
	if len(ids) == 0 || page > PageCount(len(ids), size) {
		return []int64{}
	}
	start := (page - 1) * size
	end := min(start+size, len(ids))
	return ids[start:end]
}

// PageCount returns how many pages of the given size n items span.
func PageCount(n, size int) int {
	if size <= 0 || n == 0 {
		return 1
	}
	return (n-1)/size + 1
}
