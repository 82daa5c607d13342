package codec

import (
	"errors"
	"fmt"

	"outgo/internal/core"
)

// MergeMode selects what happens to the existing collection on import.
type MergeMode string

const (
	// Replace discards the existing collection and adopts the imported set.
	Replace MergeMode = "replace"
	// Merge appends imported records, applying a duplicate policy.
	Merge MergeMode = "merge"
)

// DuplicatePolicy decides what to do when an imported record duplicates an
// existing one. A duplicate is same name, same price, same calendar day.
type DuplicatePolicy string

const (
	SkipDuplicates  DuplicatePolicy = "skip"
	ReplaceMatching DuplicatePolicy = "replace"
	AllowDuplicates DuplicatePolicy = "allow"
)

var (
	ErrUnknownMergeMode = errors.New("unknown merge mode")
	ErrUnknownPolicy    = errors.New("unknown duplicate policy")
)

// MergeStats reports what Apply did.
type MergeStats struct {
	Added             int
	SkippedDuplicates int
	Replaced          int
}

// Apply combines an imported set with the existing collection and returns
// the new collection to persist.
func Apply(existing, imported []core.Expense, mode MergeMode, policy DuplicatePolicy) ([]core.Expense, MergeStats, error) {
	var stats MergeStats

	switch mode {
	case Replace:
		out := make([]core.Expense, len(imported))
		copy(out, imported)
		stats.Added = len(out)
		return out, stats, nil
	case Merge:
	default:
		return nil, stats, fmt.Errorf("%w: %q", ErrUnknownMergeMode, mode)
	}

	switch policy {
	case SkipDuplicates, ReplaceMatching, AllowDuplicates:
	default:
		return nil, stats, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	out := make([]core.Expense, len(existing))
	copy(out, existing)

	for _, in := range imported {
		idx := findDuplicate(out, in)
		switch {
		case idx < 0 || policy == AllowDuplicates:
			out = append(out, in)
			stats.Added++
		case policy == SkipDuplicates:
			stats.SkippedDuplicates++
		default: // ReplaceMatching
			out[idx] = in
			stats.Replaced++
		}
	}
	return out, stats, nil
}

func findDuplicate(collection []core.Expense, candidate core.Expense) int {
	for i, e := range collection {
		if e.SameContent(candidate) {
			return i
		}
	}
	return -1
}
